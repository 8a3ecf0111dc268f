// Package likelihood scores model predictions against an observed spectrum.
package likelihood

import (
	"fmt"
	"math"

	"github.com/r3d91ll/spectrafit/pkg/dataset"
)

// LogLikelihood returns the log-likelihood of model given d.
//
// Detections contribute -r²/(2σ²) with r = model - flux. With asymmetric
// errors σ is the lower error where the model lies above the observation and
// the upper error otherwise. Every upper limit exceeded by the model adds
// ln(1-CL), whatever the size of the excess. No normalization constants are
// included.
//
// model must be aligned with d.Energy; a length mismatch panics.
func LogLikelihood(model []float64, d *dataset.Dataset) float64 {
	if len(model) != d.Len() {
		panic(fmt.Sprintf("likelihood: model has %d values, dataset has %d points", len(model), d.Len()))
	}

	var total float64
	violations := 0
	for i, m := range model {
		if d.UpperLimit[i] {
			if m > d.Flux[i] {
				violations++
			}
			continue
		}
		r := m - d.Flux[i]
		sigma := d.FluxErrorHi[i]
		if r > 0 {
			sigma = d.FluxErrorLo[i]
		}
		total -= r * r / (2 * sigma * sigma)
	}

	if violations > 0 {
		total += float64(violations) * math.Log(1-d.CL)
	}
	return total
}

// Violations counts the upper limits exceeded by model.
func Violations(model []float64, d *dataset.Dataset) int {
	n := 0
	for i, ul := range d.UpperLimit {
		if ul && model[i] > d.Flux[i] {
			n++
		}
	}
	return n
}
