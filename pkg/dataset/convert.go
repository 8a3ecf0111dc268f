package dataset

import (
	"math"

	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
)

// GenerateEnergyEdges derives bin half-widths from the energies alone, for
// tables that carry no bin information. Inner edges sit at the geometric
// mean of neighbouring energies.
func GenerateEnergyEdges(energy []float64) (lo, hi []float64) {
	n := len(energy)
	lo = make([]float64, n)
	hi = make([]float64, n)
	if n == 0 {
		return lo, hi
	}
	for i := 1; i < n; i++ {
		mid := math.Sqrt(energy[i] * energy[i-1])
		lo[i] = energy[i] - mid
		hi[i-1] = mid - energy[i-1]
	}
	lo[0] = energy[0] * (1 - energy[0]/(energy[0]+hi[0]))
	hi[n-1] = lo[n-1]
	return lo, hi
}

// SEDMode selects the representation produced by SEDConversion.
type SEDMode int

const (
	// SEDNone keeps the original units.
	SEDNone SEDMode = iota
	// SEDOn converts to an energy-weighted spectral energy distribution.
	SEDOn
	// SEDOff converts to a differential spectrum.
	SEDOff
)

// SEDConversion returns the unit of the converted quantity and the per-energy
// factors that convert values of physical type pt, evaluated at energy (TeV),
// into the representation selected by mode.
func SEDConversion(energy []float64, pt PhysicalType, mode SEDMode) (string, []float64, error) {
	factors := make([]float64, len(energy))
	for i := range factors {
		factors[i] = 1
	}
	if mode == SEDNone {
		return CanonicalUnit(pt), factors, nil
	}

	integrated := pt == TypeFlux || pt == TypePower || pt == TypeEnergy
	if !integrated && !pt.IsDifferential() {
		return "", nil, ferrors.DataFormatf(ferrors.ErrDataInvalidUnit,
			"physical type %q has no SED representation", pt).
			WithSuggestion("Supported physical types are power, flux, differential power and differential flux")
	}

	switch mode {
	case SEDOn:
		unit := "erg/s"
		if pt.IsDifferential() {
			for i, e := range energy {
				factors[i] = e * e * ergPerTeV
			}
		}
		switch {
		case pt == TypeFlux || pt == TypeDifferentialFlux:
			unit = "erg/(cm2 s)"
		case pt == TypeEnergy || pt == TypeDifferentialEnergy:
			unit = "erg"
		}
		return unit, factors, nil
	default:
		unit := "1/(s TeV)"
		if integrated {
			for i, e := range energy {
				factors[i] = 1 / (e * e * ergPerTeV)
			}
		}
		switch {
		case pt == TypeFlux || pt == TypeDifferentialFlux:
			unit = "1/(cm2 s TeV)"
		case pt == TypeEnergy || pt == TypeDifferentialEnergy:
			unit = "1/TeV"
		}
		return unit, factors, nil
	}
}
