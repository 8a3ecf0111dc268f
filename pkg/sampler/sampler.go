// Package sampler fits a model to a dataset with an affine-invariant
// ensemble MCMC sampler.
//
// A run is prepared once with Prepare, which validates the inputs, scatters
// the walkers around the initial vector and optionally burns them in. Run
// then discards the chain history and advances the ensemble for the
// requested number of steps, recording positions, log-probabilities and
// blobs. Progress is delivered to Observers between steps.
package sampler

import (
	"context"
	"errors"
	"math"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/r3d91ll/spectrafit/pkg/dataset"
	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
	"github.com/r3d91ll/spectrafit/pkg/integrate"
	"github.com/r3d91ll/spectrafit/pkg/prior"
)

const (
	DefaultWalkers = 500
	DefaultThreads = 4

	// ballWidth is the relative width of the initial walker ball.
	ballWidth = 0.05

	normLabel = "norm"
)

// State is the lifecycle position of a Sampler.
type State int

const (
	StateUninitialized State = iota
	StateBurnedIn
	StateReady
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBurnedIn:
		return "burned-in"
	case StateReady:
		return "ready"
	case StateComplete:
		return "complete"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Options configures Prepare.
type Options struct {
	// Dataset is the observed spectrum. Required.
	Dataset *dataset.Dataset

	// P0 is the initial parameter vector. Required, not modified.
	P0 []float64

	// Model predicts the spectrum. Required.
	Model Model

	// Prior is the log-prior; nil is flat.
	Prior prior.Func

	// Walkers is the ensemble size. It must be even and at least twice the
	// number of parameters. Zero means DefaultWalkers.
	Walkers int

	// BurnSteps is the number of burn-in steps. Zero skips burn-in.
	BurnSteps int

	// Labels name the parameters. Missing labels are synthesized.
	Labels []string

	// Guess rescales the "norm" parameter so the model energy flux
	// matches the data before the walkers are scattered.
	Guess bool

	// Threads bounds concurrent walker evaluations. Zero means DefaultThreads.
	Threads int

	// Seed initializes the random stream.
	Seed uint64

	// StretchScale is the stretch move scale a. Zero means DefaultStretchScale.
	StretchScale float64

	Logger    *zap.Logger
	Observers []Observer
}

// Sampler owns an ensemble, its chain and the inputs of one fit. It is not
// safe for concurrent use.
type Sampler struct {
	data      *dataset.Dataset
	model     Model
	prior     prior.Func
	labels    []string
	walkers   int
	ndim      int
	p0        []float64
	ensemble  *Ensemble
	chain     *Chain
	state     State
	observers []Observer
	logger    *zap.Logger
}

// Prepare validates opts and builds a sampler. It returns the walker
// positions to pass to Run: the burned-in positions when BurnSteps > 0, the
// initial ball otherwise.
func Prepare(ctx context.Context, opts Options) (*Sampler, [][]float64, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Dataset == nil {
		return nil, nil, ferrors.Config(ferrors.ErrConfigMissingDataset, "data table is missing")
	}
	if err := opts.Dataset.Validate(); err != nil {
		return nil, nil, err
	}
	if opts.Model == nil {
		return nil, nil, ferrors.Config(ferrors.ErrConfigMissingModel, "model function is missing")
	}
	ndim := len(opts.P0)
	if ndim == 0 {
		return nil, nil, ferrors.Config(ferrors.ErrConfigInvalid, "initial parameter vector is empty")
	}

	labels, err := synthesizeLabels(opts.Labels, ndim)
	if err != nil {
		return nil, nil, err
	}

	walkers := opts.Walkers
	if walkers == 0 {
		walkers = DefaultWalkers
	}
	if walkers%2 != 0 || walkers < 2*ndim {
		return nil, nil, ferrors.Configf(ferrors.ErrConfigInvalid,
			"walker count %d must be even and at least twice the number of parameters (%d)", walkers, ndim).
			WithContext("walkers", strconv.Itoa(walkers))
	}
	if opts.BurnSteps < 0 {
		return nil, nil, ferrors.Configf(ferrors.ErrConfigInvalid, "burn-in steps must not be negative, got %d", opts.BurnSteps)
	}
	threads := opts.Threads
	if threads == 0 {
		threads = DefaultThreads
	}

	p0 := slices.Clone(opts.P0)
	if opts.Guess {
		if err := guessNormalization(p0, labels, opts.Dataset, opts.Model, logger); err != nil {
			return nil, nil, err
		}
	}

	rng := newRand(opts.Seed)
	s := &Sampler{
		data:      opts.Dataset,
		model:     opts.Model,
		prior:     opts.Prior,
		labels:    labels,
		walkers:   walkers,
		ndim:      ndim,
		p0:        p0,
		chain:     newChain(walkers),
		state:     StateReady,
		observers: slices.Clone(opts.Observers),
		logger:    logger,
	}
	s.ensemble = newEnsemble(s.lnprob, opts.StretchScale, threads, rng)

	pos := SampleBall(p0, relativeWidths(p0, ballWidth), walkers, rng)
	if opts.BurnSteps == 0 {
		return s, pos, nil
	}

	logger.Info("burning in walkers",
		zap.Int("walkers", walkers),
		zap.Int("steps", opts.BurnSteps))
	pos, err = s.advance(ctx, PhaseBurnIn, pos, opts.BurnSteps)
	if err != nil {
		return nil, nil, err
	}
	s.state = StateBurnedIn
	return s, pos, nil
}

// RunSampler prepares a sampler from opts and runs it for steps steps.
func RunSampler(ctx context.Context, opts Options, steps int) (*Sampler, [][]float64, error) {
	s, pos, err := Prepare(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	pos, err = s.Run(ctx, pos, steps)
	if err != nil {
		if pos != nil {
			return s, pos, err
		}
		return nil, nil, err
	}
	return s, pos, nil
}

// Run discards the chain history and advances the ensemble from positions
// for steps steps. It returns the final positions.
func (s *Sampler) Run(ctx context.Context, positions [][]float64, steps int) ([][]float64, error) {
	if s == nil || s.state == StateUninitialized {
		return nil, ferrors.Samplerf(ferrors.ErrSamplerNotPrepared, "sampler has not been prepared")
	}
	s.logger.Info("running sampler", zap.Int("steps", steps), zap.Stringer("from", s.state))
	s.chain.reset()
	pos, err := s.advance(ctx, PhaseProduction, positions, steps)
	if err != nil {
		if pos != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return pos, err
		}
		return nil, err
	}
	s.state = StateComplete
	return pos, nil
}

// Advance moves the ensemble from positions for steps steps, appending to
// the chain without resetting it. Observers receive production events.
func (s *Sampler) Advance(ctx context.Context, positions [][]float64, steps int) ([][]float64, error) {
	if s == nil || s.state == StateUninitialized {
		return nil, ferrors.Samplerf(ferrors.ErrSamplerNotPrepared, "sampler has not been prepared")
	}
	return s.advance(ctx, PhaseProduction, positions, steps)
}

// Reset discards the chain history and returns a prepared sampler to
// StateReady.
func (s *Sampler) Reset() {
	if s == nil || s.state == StateUninitialized {
		return
	}
	s.chain.reset()
	s.state = StateReady
}

func (s *Sampler) advance(ctx context.Context, phase Phase, positions [][]float64, steps int) ([][]float64, error) {
	if steps < 0 {
		return nil, ferrors.Configf(ferrors.ErrConfigInvalid, "step count must not be negative, got %d", steps)
	}
	if err := s.checkPositions(positions); err != nil {
		return nil, err
	}

	st, err := s.ensemble.Init(ctx, positions)
	if err != nil {
		return nil, err
	}
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("sampler interrupted", zap.String("phase", string(phase)), zap.Int("step", i), zap.Error(err))
			return copyPositions(st.Positions), err
		}
		next, err := s.ensemble.Step(ctx, st)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return copyPositions(st.Positions), err
			}
			if fe, ok := ferrors.AsFitError(err); ok {
				return nil, fe.WithContext("phase", string(phase)).WithContext("step", strconv.Itoa(i))
			}
			return nil, err
		}
		st = next
		s.chain.append(st)
		s.notify(phase, i, steps, st)
	}
	return copyPositions(st.Positions), nil
}

func (s *Sampler) notify(phase Phase, step, total int, st EnsembleState) {
	for _, o := range s.observers {
		o.OnStep(StepEvent{
			Phase:     phase,
			Step:      step,
			Total:     total,
			Walkers:   s.walkers,
			Labels:    slices.Clone(s.labels),
			Positions: copyPositions(st.Positions),
			LogProbs:  slices.Clone(st.LogProbs),
		})
	}
}

func (s *Sampler) checkPositions(positions [][]float64) error {
	if len(positions) != s.walkers {
		return ferrors.Samplerf(ferrors.ErrSamplerInvalidPositions,
			"got %d walker positions, sampler has %d walkers", len(positions), s.walkers)
	}
	for k, p := range positions {
		if len(p) != s.ndim {
			return ferrors.Samplerf(ferrors.ErrSamplerInvalidPositions,
				"walker %d has %d parameters, expected %d", k, len(p), s.ndim)
		}
	}
	return nil
}

func (s *Sampler) lnprob(params []float64) (float64, Blob, error) {
	return LogProb(params, s.data, s.model, s.prior)
}

// AddObserver registers o for subsequent steps.
func (s *Sampler) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// State returns the lifecycle state.
func (s *Sampler) State() State {
	if s == nil {
		return StateUninitialized
	}
	return s.state
}

// Chain returns the recorded history.
func (s *Sampler) Chain() *Chain { return s.chain }

// Labels returns the parameter labels.
func (s *Sampler) Labels() []string { return slices.Clone(s.labels) }

// Dataset returns the dataset being fitted.
func (s *Sampler) Dataset() *dataset.Dataset { return s.data }

// Walkers returns the ensemble size.
func (s *Sampler) Walkers() int { return s.walkers }

// Dim returns the number of parameters.
func (s *Sampler) Dim() int { return s.ndim }

// InitialVector returns the initial vector after any normalization guess.
func (s *Sampler) InitialVector() []float64 { return slices.Clone(s.p0) }

// synthesizeLabels names unlabelled parameters: "norm", "par1", ... when no
// labels are given, "par<i>" for the tail of a short list.
func synthesizeLabels(labels []string, ndim int) ([]string, error) {
	if labels == nil {
		out := make([]string, ndim)
		out[0] = normLabel
		for i := 1; i < ndim; i++ {
			out[i] = "par" + strconv.Itoa(i)
		}
		return out, nil
	}
	if len(labels) > ndim {
		return nil, ferrors.Configf(ferrors.ErrConfigInvalidLabels,
			"%d labels given for %d parameters", len(labels), ndim)
	}
	out := slices.Clone(labels)
	for i := len(labels); i < ndim; i++ {
		out = append(out, "par"+strconv.Itoa(i))
	}
	return out, nil
}

// guessNormalization rescales the "norm" component of p0 in place by the
// ratio of the data and model energy fluxes, both integrated in log-log
// space. It leaves p0 untouched, with a warning, when there is no "norm"
// label or the ratio is unusable.
func guessNormalization(p0 []float64, labels []string, d *dataset.Dataset, model Model, logger *zap.Logger) error {
	idx := slices.Index(labels, normLabel)
	if idx < 0 {
		logger.Warn("normalization guess skipped: no parameter labelled norm")
		return nil
	}

	out, err := model(slices.Clone(p0), d)
	if err != nil {
		return ferrors.WrapModel(err, ferrors.ErrModelEvaluationFailed, "model evaluation failed during normalization guess")
	}
	if err := checkOutput(out, d); err != nil {
		return err
	}

	_, sedf, err := dataset.SEDConversion(d.Energy, d.FluxType, dataset.SEDOff)
	if err != nil {
		logger.Warn("normalization guess skipped", zap.Error(err))
		return nil
	}

	num := make([]float64, d.Len())
	den := make([]float64, d.Len())
	for i, e := range d.Energy {
		num[i] = e * d.Flux[i] * sedf[i]
		den[i] = e * out.Values[i] * sedf[i]
	}
	ratio := integrate.TrapzLogLog(num, d.Energy) / integrate.TrapzLogLog(den, d.Energy)
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio <= 0 {
		logger.Warn("normalization guess skipped: ratio is not a positive number",
			zap.Float64("ratio", ratio))
		return nil
	}

	logger.Debug("normalization guessed",
		zap.String("label", normLabel),
		zap.Float64("from", p0[idx]),
		zap.Float64("to", p0[idx]*ratio))
	p0[idx] *= ratio
	return nil
}
