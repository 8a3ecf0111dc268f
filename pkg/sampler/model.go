package sampler

import (
	"github.com/r3d91ll/spectrafit/pkg/dataset"
)

// Blob is the ordered list of auxiliary arrays stored with one evaluation.
type Blob [][]float64

// ModelOutput is what a Model returns: the predicted values aligned with the
// dataset energies, and optionally auxiliary arrays to keep in the chain.
// Build it with Values or ValuesWithAux.
type ModelOutput struct {
	Values []float64
	Aux    [][]float64

	// Type is the physical type of Values. Empty means the flux type of
	// the dataset.
	Type dataset.PhysicalType
}

// Model predicts the spectrum for a parameter vector. params is a private
// copy; d must not be modified.
type Model func(params []float64, d *dataset.Dataset) (ModelOutput, error)

// Values wraps a plain prediction with no auxiliary output.
func Values(v []float64) ModelOutput {
	return ModelOutput{Values: v}
}

// ValuesWithAux wraps a prediction followed by auxiliary arrays.
func ValuesWithAux(v []float64, aux ...[]float64) ModelOutput {
	return ModelOutput{Values: v, Aux: aux}
}

// WithType returns a copy of o tagged with physical type pt.
func (o ModelOutput) WithType(pt dataset.PhysicalType) ModelOutput {
	o.Type = pt
	return o
}

// blob returns the arrays stored in the chain for this output. When one of
// the auxiliary arrays already holds the prediction, the auxiliary arrays are
// stored as given; otherwise the prediction is stored first.
func (o ModelOutput) blob() Blob {
	for _, a := range o.Aux {
		if equal(a, o.Values) {
			return Blob(o.Aux)
		}
	}
	b := make(Blob, 0, 1+len(o.Aux))
	b = append(b, o.Values)
	return append(b, o.Aux...)
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
