package dataset

import (
	"go.uber.org/zap"

	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
)

// Quantity is a column of values with a unit string.
type Quantity struct {
	Values []float64
	Unit   string
}

// BuildInput collects arrays for BuildTable. Exactly one of FluxError or the
// FluxErrorLo/FluxErrorHi pair is required; the bin width fields are optional.
type BuildInput struct {
	Energy      Quantity
	Flux        Quantity
	FluxError   *Quantity
	FluxErrorLo *Quantity
	FluxErrorHi *Quantity
	EnergyWidth *Quantity
	EnergyLo    *Quantity
	EnergyHi    *Quantity
	UpperLimit  []bool
	CL          *float64
}

// BuildTable assembles a Table from in-memory arrays and checks that it
// validates. The table, not the Dataset, is returned so it can be stored or
// passed to a sampler that validates it again.
func BuildTable(in BuildInput) (*Table, error) {
	t := NewTable()
	t.Comments = append(t.Comments, "Table generated with dataset.BuildTable")
	if in.CL != nil {
		cl := *in.CL
		if !(cl > 0 && cl < 1) {
			return nil, ferrors.DataFormatf(ferrors.ErrDataInvalidCL, "confidence level %g is outside (0, 1)", cl)
		}
		t.CL = &cl
	}

	t.Add("energy", in.Energy.Unit, in.Energy.Values)
	switch {
	case in.EnergyWidth != nil:
		t.Add("ene_width", in.EnergyWidth.Unit, in.EnergyWidth.Values)
	case in.EnergyLo != nil && in.EnergyHi != nil:
		t.Add("ene_lo", in.EnergyLo.Unit, in.EnergyLo.Values)
		t.Add("ene_hi", in.EnergyHi.Unit, in.EnergyHi.Values)
	}

	t.Add("flux", in.Flux.Unit, in.Flux.Values)
	switch {
	case in.FluxError != nil:
		t.Add("flux_error", in.FluxError.Unit, in.FluxError.Values)
	case in.FluxErrorLo != nil && in.FluxErrorHi != nil:
		t.Add("flux_error_lo", in.FluxErrorLo.Unit, in.FluxErrorLo.Values)
		t.Add("flux_error_hi", in.FluxErrorHi.Unit, in.FluxErrorHi.Values)
	default:
		return nil, ferrors.DataFormat(ferrors.ErrDataMissingColumn, "flux error not provided").
			WithContext("column", "flux_error")
	}

	if in.UpperLimit != nil {
		flags := make([]float64, len(in.UpperLimit))
		for i, ul := range in.UpperLimit {
			if ul {
				flags[i] = 1
			}
		}
		t.Add("ul", "", flags)
	}

	if _, err := Validate(t, zap.NewNop()); err != nil {
		return nil, err
	}
	return t, nil
}
