package sampler

import "math/rand/v2"

// SampleBall draws n walkers from independent gaussians centred on p0 with
// per-dimension widths std. A zero width pins that dimension to p0.
func SampleBall(p0, std []float64, n int, rng *rand.Rand) [][]float64 {
	walkers := make([][]float64, n)
	for k := range walkers {
		w := make([]float64, len(p0))
		for j, c := range p0 {
			w[j] = c + std[j]*rng.NormFloat64()
		}
		walkers[k] = w
	}
	return walkers
}

// relativeWidths returns frac·|p| for each component.
func relativeWidths(p []float64, frac float64) []float64 {
	out := make([]float64, len(p))
	for i, v := range p {
		if v < 0 {
			v = -v
		}
		out[i] = frac * v
	}
	return out
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
