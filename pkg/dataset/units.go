package dataset

import "strings"

// PhysicalType tags the dimension of a column or of model output.
type PhysicalType string

const (
	TypeEnergy             PhysicalType = "energy"
	TypeFlux               PhysicalType = "flux"                // erg/(cm2 s)
	TypeDifferentialFlux   PhysicalType = "differential flux"   // 1/(cm2 s TeV)
	TypePower              PhysicalType = "power"               // erg/s
	TypeDifferentialPower  PhysicalType = "differential power"  // 1/(s TeV)
	TypeDifferentialEnergy PhysicalType = "differential energy" // 1/TeV
	TypeNumberDensity      PhysicalType = "number density"      // 1/cm3
)

// ergPerTeV converts TeV to erg.
const ergPerTeV = 1.602176634

// FluxTypes are the physical types accepted for flux columns.
var FluxTypes = []PhysicalType{TypeFlux, TypeDifferentialFlux, TypePower, TypeDifferentialPower}

// IsDifferential reports whether pt is a per-unit-energy quantity.
func (pt PhysicalType) IsDifferential() bool {
	return strings.HasPrefix(string(pt), "differential")
}

// IsFluxType reports whether pt may be used for flux columns.
func (pt PhysicalType) IsFluxType() bool {
	for _, f := range FluxTypes {
		if pt == f {
			return true
		}
	}
	return false
}

// Unit is a recognised unit string with its physical type and the factor that
// converts a value in this unit to the canonical unit of that type.
type Unit struct {
	Symbol string
	Type   PhysicalType
	Scale  float64
}

// units is the fixed unit table. Canonical units are TeV for energy, erg-based
// for integrated flux and power, and per-TeV for differential quantities.
var units = map[string]Unit{
	"tev": {"TeV", TypeEnergy, 1},
	"gev": {"GeV", TypeEnergy, 1e-3},
	"mev": {"MeV", TypeEnergy, 1e-6},
	"kev": {"keV", TypeEnergy, 1e-9},
	"ev":  {"eV", TypeEnergy, 1e-12},
	"erg": {"erg", TypeEnergy, 1 / ergPerTeV},

	"erg/(cm2 s)": {"erg/(cm2 s)", TypeFlux, 1},
	"tev/(cm2 s)": {"TeV/(cm2 s)", TypeFlux, ergPerTeV},

	"1/(cm2 s tev)": {"1/(cm2 s TeV)", TypeDifferentialFlux, 1},
	"1/(cm2 s gev)": {"1/(cm2 s GeV)", TypeDifferentialFlux, 1e3},
	"1/(cm2 s erg)": {"1/(cm2 s erg)", TypeDifferentialFlux, ergPerTeV},

	"erg/s": {"erg/s", TypePower, 1},

	"1/(s tev)": {"1/(s TeV)", TypeDifferentialPower, 1},
	"1/(s erg)": {"1/(s erg)", TypeDifferentialPower, ergPerTeV},

	"1/tev": {"1/TeV", TypeDifferentialEnergy, 1},
	"1/cm3": {"1/cm3", TypeNumberDensity, 1},
}

// ParseUnit looks up a unit string. Matching ignores case and collapses
// repeated whitespace.
func ParseUnit(s string) (Unit, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	u, ok := units[key]
	return u, ok
}

// CanonicalUnit returns the symbol of the canonical unit for pt.
func CanonicalUnit(pt PhysicalType) string {
	switch pt {
	case TypeEnergy:
		return "TeV"
	case TypeFlux:
		return "erg/(cm2 s)"
	case TypeDifferentialFlux:
		return "1/(cm2 s TeV)"
	case TypePower:
		return "erg/s"
	case TypeDifferentialPower:
		return "1/(s TeV)"
	case TypeDifferentialEnergy:
		return "1/TeV"
	case TypeNumberDensity:
		return "1/cm3"
	}
	return ""
}
