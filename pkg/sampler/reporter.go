package sampler

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const columnWidth = 15

// Reporter prints ensemble statistics at every 5% of a phase: the median
// and standard deviation of each parameter and the average and maximum
// log-probability.
type Reporter struct {
	w io.Writer
}

// NewReporter returns a Reporter writing to w, or to stdout if w is nil.
func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = os.Stdout
	}
	return &Reporter{w: w}
}

// ShouldReport reports whether step (0-based) of total falls on a 5% boundary.
func ShouldReport(step, total int) bool {
	if total <= 0 {
		return false
	}
	pct := 100 * float64(step) / float64(total)
	return math.Mod(pct, 5) < 5/float64(total)
}

// OnStep implements Observer.
func (r *Reporter) OnStep(ev StepEvent) {
	if ev.Step == 0 {
		switch ev.Phase {
		case PhaseBurnIn:
			fmt.Fprintf(r.w, "Burning in the %d walkers with %d steps...\n", ev.Walkers, ev.Total)
		case PhaseProduction:
			fmt.Fprintf(r.w, "\nWalker burn in finished, running %d steps...\n", ev.Total)
		}
	}
	if !ShouldReport(ev.Step, ev.Total) {
		return
	}

	pct := 100 * float64(ev.Step) / float64(ev.Total)
	fmt.Fprintf(r.w, "\nProgress of the run: %d percent (%d of %d steps)\n", int(pct), ev.Step, ev.Total)

	medians, stds := Summarize(ev.Positions)
	labels := make([]string, len(ev.Labels))
	for i, l := range ev.Labels {
		labels[i] = center(l, columnWidth, '-')
	}
	fmt.Fprintf(r.w, "%s%s\n", strings.Repeat(" ", 27), strings.Join(labels, " "))
	fmt.Fprintf(r.w, "  Last ensemble median : %s\n", row(medians))
	fmt.Fprintf(r.w, "  Last ensemble std    : %s\n", row(stds))
	fmt.Fprintf(r.w, "  Last ensemble lnprob :  avg: %.3f, max: %.3f\n",
		stat.Mean(ev.LogProbs, nil), floats.Max(ev.LogProbs))
}

// Summarize returns the per-parameter median and population standard
// deviation of an ensemble.
func Summarize(positions [][]float64) (medians, stds []float64) {
	if len(positions) == 0 {
		return nil, nil
	}
	ndim := len(positions[0])
	medians = make([]float64, ndim)
	stds = make([]float64, ndim)
	col := make([]float64, len(positions))
	for d := 0; d < ndim; d++ {
		for k, p := range positions {
			col[k] = p[d]
		}
		_, stds[d] = stat.PopMeanStdDev(col, nil)
		medians[d] = median(col)
	}
	return medians, stds
}

// median averages the two central values of an even-length sample.
func median(x []float64) float64 {
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func row(values []float64) string {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = center(fmt.Sprintf("%.3g", v), columnWidth, ' ')
	}
	return strings.Join(cells, " ")
}

// center pads s to width with fill, putting the odd pad character on the right.
func center(s string, width int, fill rune) string {
	pad := width - len([]rune(s))
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(string(fill), left) + s + strings.Repeat(string(fill), pad-left)
}
