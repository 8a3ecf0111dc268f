package spinner

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"

	"github.com/r3d91ll/spectrafit/pkg/sampler"
)

// PhaseProgress is a sampler.Observer that draws one progress bar per
// sampler phase, annotated with the best log-probability in the ensemble.
type PhaseProgress struct {
	w     io.Writer
	isTTY *bool
	bar   *ProgressBar
}

// NewPhaseProgress returns an observer writing to w (stderr if nil).
func NewPhaseProgress(w io.Writer) *PhaseProgress {
	return &PhaseProgress{w: w}
}

// OnStep implements sampler.Observer.
func (pp *PhaseProgress) OnStep(ev sampler.StepEvent) {
	if ev.Step == 0 || pp.bar == nil {
		pp.bar = NewProgressWithConfig(ProgressConfig{
			Total:   ev.Total,
			Message: string(ev.Phase),
			ShowETA: true,
			Writer:  pp.w,
			IsTTY:   pp.isTTY,
		})
		pp.bar.Start()
	}

	detail := ""
	if len(ev.LogProbs) > 0 {
		detail = fmt.Sprintf("max lnprob %.3f", floats.Max(ev.LogProbs))
	}
	pp.bar.Set(ev.Step+1, detail)

	if ev.Step+1 == ev.Total {
		pp.bar.Complete(fmt.Sprintf("%s: %d steps", ev.Phase, ev.Total))
		pp.bar = nil
	}
}

// Abort marks an unfinished phase as failed.
func (pp *PhaseProgress) Abort(message string) {
	if pp.bar != nil && pp.bar.IsActive() {
		pp.bar.Fail(message)
	}
	pp.bar = nil
}
