// Package dataset holds the observed spectrum consumed by the likelihood and
// the sampler, together with its validation and ingestion helpers.
//
// All values are stored in canonical units: energies in TeV and fluxes in the
// canonical unit of FluxType (see CanonicalUnit). A Dataset is built once and
// must be treated as read-only afterwards.
package dataset

import (
	"math"

	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
)

// DefaultCL is the confidence level assumed for upper limits when none is given.
const DefaultCL = 0.9

// Dataset is a validated, binned spectrum.
type Dataset struct {
	// Energy holds the bin energies in TeV, strictly increasing.
	Energy []float64

	// EnergyLo and EnergyHi are the distances from Energy to the lower and
	// upper bin edges.
	EnergyLo []float64
	EnergyHi []float64

	// Flux holds the observed values; for upper limits it is the limit.
	Flux []float64

	// FluxErrorLo and FluxErrorHi are the 68% gaussian uncertainties below
	// and above Flux. A symmetric error is stored in both.
	FluxErrorLo []float64
	FluxErrorHi []float64

	// Asymmetric is true when distinct lower and upper errors were given.
	Asymmetric bool

	// UpperLimit flags points that are upper limits rather than detections.
	UpperLimit []bool

	// CL is the confidence level of the upper limits, in (0, 1).
	CL float64

	// FluxType is the physical type of Flux and its errors.
	FluxType PhysicalType
}

// Len returns the number of points.
func (d *Dataset) Len() int {
	return len(d.Energy)
}

// NumUpperLimits returns how many points are upper limits.
func (d *Dataset) NumUpperLimits() int {
	n := 0
	for _, ul := range d.UpperLimit {
		if ul {
			n++
		}
	}
	return n
}

// Validate checks the structural invariants of the dataset. The returned
// error is a data-format FitError.
func (d *Dataset) Validate() error {
	n := len(d.Energy)
	if n == 0 {
		return ferrors.DataFormat(ferrors.ErrDataEmpty, "dataset has no points")
	}

	columns := map[string]int{
		"flux":          len(d.Flux),
		"flux_error_lo": len(d.FluxErrorLo),
		"flux_error_hi": len(d.FluxErrorHi),
		"energy_lo":     len(d.EnergyLo),
		"energy_hi":     len(d.EnergyHi),
		"ul":            len(d.UpperLimit),
	}
	for name, l := range columns {
		if l != n {
			return ferrors.DataFormatf(ferrors.ErrDataLengthMismatch,
				"column %s has %d entries, energy has %d", name, l, n).
				WithContext("column", name)
		}
	}

	for i, e := range d.Energy {
		if !(e > 0) || math.IsInf(e, 0) {
			return ferrors.DataFormatf(ferrors.ErrDataInvalidValue, "energy[%d] = %g is not positive", i, e).
				WithContext("column", "energy")
		}
		if i > 0 && e <= d.Energy[i-1] {
			return ferrors.DataFormatf(ferrors.ErrDataNotIncreasing,
				"energy[%d] = %g does not exceed energy[%d] = %g", i, e, i-1, d.Energy[i-1])
		}
	}

	for i := range d.Flux {
		if math.IsNaN(d.Flux[i]) || math.IsInf(d.Flux[i], 0) {
			return ferrors.DataFormatf(ferrors.ErrDataInvalidValue, "flux[%d] is not finite", i).
				WithContext("column", "flux")
		}
		if d.UpperLimit[i] {
			continue
		}
		if !(d.FluxErrorLo[i] > 0) || !(d.FluxErrorHi[i] > 0) {
			return ferrors.DataFormatf(ferrors.ErrDataInvalidValue,
				"flux error at point %d must be positive for a detection", i).
				WithContext("column", "flux_error")
		}
	}

	if !(d.CL > 0 && d.CL < 1) {
		return ferrors.DataFormatf(ferrors.ErrDataInvalidCL, "confidence level %g is outside (0, 1)", d.CL)
	}
	if !d.FluxType.IsFluxType() {
		return ferrors.DataFormatf(ferrors.ErrDataInvalidUnit, "flux has physical type %q", d.FluxType)
	}
	return nil
}
