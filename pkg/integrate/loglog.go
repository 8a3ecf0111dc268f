// Package integrate provides trapezoidal integration in log-log space.
//
// Between consecutive samples the integrand is treated as a local power law
// y = y1 (x/x1)^b, which integrates exactly and is well suited to spectra that
// span many decades. Degenerate segments (a zero sample or coincident
// abscissae) contribute exactly zero.
package integrate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// indexTolerance is the distance from b = -1 below which a segment is
// integrated as 1/x.
const indexTolerance = 1e-10

// Segment returns the integral of a local power law through (x1, y1) and
// (x2, y2) over [x1, x2].
func Segment(x1, x2, y1, y2 float64) float64 {
	if y1 == 0 || y2 == 0 || x1 == x2 {
		return 0
	}
	ratio := x2 / x1
	b := math.Log(y2/y1) / math.Log(ratio)
	if math.Abs(b+1) > indexTolerance {
		return y1 * (x2*math.Pow(ratio, b) - x1) / (b + 1)
	}
	return x1 * y1 * math.Log(ratio)
}

// Intervals returns the per-segment integrals of y over x. The result has
// len(x)-1 entries; entry i covers [x[i], x[i+1]].
func Intervals(y, x []float64) []float64 {
	checkLengths(len(y), len(x))
	if len(x) < 2 {
		return []float64{}
	}
	out := make([]float64, len(x)-1)
	for i := range out {
		out[i] = Segment(x[i], x[i+1], y[i], y[i+1])
	}
	return out
}

// TrapzLogLog returns the definite integral of y over x.
func TrapzLogLog(y, x []float64) float64 {
	return floats.Sum(Intervals(y, x))
}

// IntervalsDense integrates each line of y along axis and returns the
// per-segment integrals. For axis 0 the result has r-1 rows and c columns; for
// axis 1 it has r rows and c-1 columns. Negative axes count from the end, so
// -1 is the last axis. y is not modified.
func IntervalsDense(y mat.Matrix, x []float64, axis int) *mat.Dense {
	r, c := y.Dims()
	switch normalizeAxis(axis) {
	case 0:
		checkLengths(r, len(x))
		if r < 2 {
			return &mat.Dense{}
		}
		out := mat.NewDense(r-1, c, nil)
		col := make([]float64, r)
		for j := 0; j < c; j++ {
			mat.Col(col, j, y)
			for i, v := range Intervals(col, x) {
				out.Set(i, j, v)
			}
		}
		return out
	default:
		checkLengths(c, len(x))
		if c < 2 {
			return &mat.Dense{}
		}
		out := mat.NewDense(r, c-1, nil)
		row := make([]float64, c)
		for i := 0; i < r; i++ {
			mat.Row(row, i, y)
			out.SetRow(i, Intervals(row, x))
		}
		return out
	}
}

// TrapzLogLogDense integrates each line of y along axis and returns one total
// per line: per column for axis 0, per row for axis 1.
func TrapzLogLogDense(y mat.Matrix, x []float64, axis int) []float64 {
	r, c := y.Dims()
	switch normalizeAxis(axis) {
	case 0:
		checkLengths(r, len(x))
		out := make([]float64, c)
		col := make([]float64, r)
		for j := range out {
			mat.Col(col, j, y)
			out[j] = TrapzLogLog(col, x)
		}
		return out
	default:
		checkLengths(c, len(x))
		out := make([]float64, r)
		row := make([]float64, c)
		for i := range out {
			mat.Row(row, i, y)
			out[i] = TrapzLogLog(row, x)
		}
		return out
	}
}

func normalizeAxis(axis int) int {
	if axis < 0 {
		axis += 2
	}
	if axis != 0 && axis != 1 {
		panic(fmt.Sprintf("integrate: axis %d out of range for a matrix", axis))
	}
	return axis
}

func checkLengths(ny, nx int) {
	if ny != nx {
		panic(fmt.Sprintf("integrate: length mismatch: %d samples, %d abscissae", ny, nx))
	}
}
