// Package prior provides log-density priors over a parameter vector.
package prior

import "math"

// Func returns the log prior density of a parameter vector. It may return
// -Inf to reject the vector outright. A nil Func is a flat prior.
type Func func(params []float64) float64

// Uniform returns 0 when min <= value <= max and -Inf otherwise. Either bound
// may be infinite.
func Uniform(value, min, max float64) float64 {
	if min <= value && value <= max {
		return 0
	}
	return math.Inf(-1)
}

// Normal returns -0.5*(2*pi*sigma) - (value-mean)^2/(2*sigma^2).
// The leading term is not the usual -0.5*log(2*pi*sigma^2).
func Normal(value, mean, sigma float64) float64 {
	d := value - mean
	return -0.5*(2*math.Pi*sigma) - d*d/(2*sigma*sigma)
}

// Sum combines priors by adding their log densities. Evaluation stops at
// the first -Inf. Nil entries are skipped.
func Sum(fs ...Func) Func {
	return func(params []float64) float64 {
		total := 0.0
		for _, f := range fs {
			if f == nil {
				continue
			}
			lp := f(params)
			if math.IsInf(lp, -1) {
				return lp
			}
			total += lp
		}
		return total
	}
}

// UniformOn returns a Func applying Uniform to params[index].
func UniformOn(index int, min, max float64) Func {
	return func(params []float64) float64 {
		return Uniform(params[index], min, max)
	}
}

// NormalOn returns a Func applying Normal to params[index].
func NormalOn(index int, mean, sigma float64) Func {
	return func(params []float64) float64 {
		return Normal(params[index], mean, sigma)
	}
}

// Eval evaluates f, treating nil as a flat prior.
func Eval(f Func, params []float64) float64 {
	if f == nil {
		return 0
	}
	return f(params)
}
