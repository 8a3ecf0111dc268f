package sampler

// Phase names the part of a run a step belongs to.
type Phase string

const (
	PhaseBurnIn     Phase = "burn-in"
	PhaseProduction Phase = "production"
)

// StepEvent describes the ensemble after one step. Slices are copies owned
// by the receiver.
type StepEvent struct {
	Phase   Phase
	Step    int // 0-based
	Total   int
	Walkers int
	Labels  []string

	Positions [][]float64
	LogProbs  []float64
}

// Observer is notified synchronously after every step. It must not block
// for long; the sampler waits for it before the next step.
type Observer interface {
	OnStep(StepEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(StepEvent)

// OnStep calls f(ev).
func (f ObserverFunc) OnStep(ev StepEvent) { f(ev) }
