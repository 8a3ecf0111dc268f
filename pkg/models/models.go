// Package models provides reference spectral models and a registry that
// turns them into sampler models by name.
package models

import "math"

// PowerLaw is dN/dE = Amplitude·(E/E0)^-Alpha.
type PowerLaw struct {
	Amplitude float64
	E0        float64
	Alpha     float64
}

// Eval returns the differential flux at each energy (TeV).
func (m PowerLaw) Eval(energy []float64) []float64 {
	out := make([]float64, len(energy))
	for i, e := range energy {
		out[i] = m.Amplitude * math.Pow(e/m.E0, -m.Alpha)
	}
	return out
}

// ExponentialCutoffPowerLaw is
// dN/dE = Amplitude·(E/E0)^-Alpha·exp(-(E/ECutoff)^Beta).
type ExponentialCutoffPowerLaw struct {
	Amplitude float64
	E0        float64
	Alpha     float64
	ECutoff   float64
	Beta      float64
}

// Eval returns the differential flux at each energy (TeV).
func (m ExponentialCutoffPowerLaw) Eval(energy []float64) []float64 {
	beta := m.Beta
	if beta == 0 {
		beta = 1
	}
	out := make([]float64, len(energy))
	for i, e := range energy {
		out[i] = m.Amplitude * math.Pow(e/m.E0, -m.Alpha) * math.Exp(-math.Pow(e/m.ECutoff, beta))
	}
	return out
}

// GeometricMean returns sqrt(first·last) of energies, the default pivot.
func GeometricMean(energy []float64) float64 {
	if len(energy) == 0 {
		return 1
	}
	return math.Sqrt(energy[0] * energy[len(energy)-1])
}
