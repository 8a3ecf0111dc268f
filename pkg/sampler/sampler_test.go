package sampler

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/r3d91ll/spectrafit/pkg/dataset"
	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
	"github.com/r3d91ll/spectrafit/pkg/prior"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// powerLawData returns a five point spectrum following 1e-12·E^-2.
func powerLawData() *dataset.Dataset {
	energy := []float64{0.5, 1, 2, 4, 8}
	flux := make([]float64, len(energy))
	errs := make([]float64, len(energy))
	for i, e := range energy {
		flux[i] = 1e-12 * math.Pow(e, -2)
		errs[i] = 0.1 * flux[i]
	}
	lo, hi := dataset.GenerateEnergyEdges(energy)
	return &dataset.Dataset{
		Energy:      energy,
		EnergyLo:    lo,
		EnergyHi:    hi,
		Flux:        flux,
		FluxErrorLo: errs,
		FluxErrorHi: append([]float64(nil), errs...),
		UpperLimit:  make([]bool, len(energy)),
		CL:          dataset.DefaultCL,
		FluxType:    dataset.TypeDifferentialFlux,
	}
}

func powerLawModel(p []float64, d *dataset.Dataset) (ModelOutput, error) {
	out := make([]float64, d.Len())
	for i, e := range d.Energy {
		out[i] = p[0] * math.Pow(e, -p[1])
	}
	return Values(out), nil
}

func baseOptions() Options {
	return Options{
		Dataset: powerLawData(),
		P0:      []float64{1e-12, 2},
		Model:   powerLawModel,
		Prior:   prior.UniformOn(1, -1, 5),
		Walkers: 16,
		Threads: 4,
		Seed:    42,
	}
}

func TestPrepare_ConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Options)
		code     string
		category ferrors.Category
	}{
		{"missing dataset", func(o *Options) { o.Dataset = nil }, ferrors.ErrConfigMissingDataset, ferrors.CategoryConfig},
		{"missing model", func(o *Options) { o.Model = nil }, ferrors.ErrConfigMissingModel, ferrors.CategoryConfig},
		{"empty p0", func(o *Options) { o.P0 = nil }, ferrors.ErrConfigInvalid, ferrors.CategoryConfig},
		{"too many labels", func(o *Options) { o.Labels = []string{"a", "b", "c"} }, ferrors.ErrConfigInvalidLabels, ferrors.CategoryConfig},
		{"odd walkers", func(o *Options) { o.Walkers = 15 }, ferrors.ErrConfigInvalid, ferrors.CategoryConfig},
		{"too few walkers", func(o *Options) { o.Walkers = 2 }, ferrors.ErrConfigInvalid, ferrors.CategoryConfig},
		{"negative burn-in", func(o *Options) { o.BurnSteps = -1 }, ferrors.ErrConfigInvalid, ferrors.CategoryConfig},
		{"invalid dataset", func(o *Options) { o.Dataset.Energy[2] = 0.1 }, ferrors.ErrDataNotIncreasing, ferrors.CategoryData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := baseOptions()
			tt.mutate(&opts)
			s, pos, err := Prepare(context.Background(), opts)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.Nil(t, pos)
			assert.True(t, ferrors.IsCode(err, tt.code), "got %v", err)
			assert.True(t, ferrors.IsCategory(err, tt.category), "got %v", err)
		})
	}
}

func TestPrepare_NoBurnIn(t *testing.T) {
	opts := baseOptions()
	s, pos, err := Prepare(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, StateReady, s.State())
	require.Len(t, pos, opts.Walkers)
	for _, p := range pos {
		assert.Len(t, p, len(opts.P0))
	}
	assert.Equal(t, 0, s.Chain().Len())
	assert.Equal(t, []string{"norm", "par1"}, s.Labels())
	assert.Equal(t, opts.Walkers, s.Walkers())
	assert.Equal(t, 2, s.Dim())
}

func TestPrepare_DefaultWalkers(t *testing.T) {
	opts := baseOptions()
	opts.Walkers = 0
	_, pos, err := Prepare(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, pos, DefaultWalkers)
}

func TestPrepare_DoesNotModifyP0(t *testing.T) {
	opts := baseOptions()
	opts.P0 = []float64{1, 2}
	opts.Guess = true
	s, _, err := Prepare(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, opts.P0)
	assert.InEpsilon(t, 1e-12, s.InitialVector()[0], 1e-9)
}

func TestPrepare_BurnIn(t *testing.T) {
	var events []StepEvent
	opts := baseOptions()
	opts.BurnSteps = 10
	opts.Observers = []Observer{ObserverFunc(func(ev StepEvent) { events = append(events, ev) })}

	s, pos, err := Prepare(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, StateBurnedIn, s.State())
	assert.Len(t, pos, opts.Walkers)
	require.Len(t, events, 10)
	assert.Equal(t, PhaseBurnIn, events[0].Phase)
	assert.Equal(t, 9, events[9].Step)
	assert.Equal(t, 10, events[9].Total)

	pos, err = s.Run(context.Background(), pos, 7)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, s.State())
	assert.Equal(t, 7, s.Chain().Len(), "burn-in history is discarded")
	assert.Len(t, pos, opts.Walkers)
	assert.Equal(t, PhaseProduction, events[len(events)-1].Phase)
}

func TestRun_ChainLength(t *testing.T) {
	s, pos, err := Prepare(context.Background(), baseOptions())
	require.NoError(t, err)

	_, err = s.Run(context.Background(), pos, 25)
	require.NoError(t, err)

	c := s.Chain()
	assert.Equal(t, 25, c.Len())
	lp := c.LogProbs()
	require.Len(t, lp, 25)
	for _, step := range lp {
		assert.Len(t, step, 16)
	}
	blobs := c.Blobs()
	require.Len(t, blobs, 25)
	assert.Len(t, blobs[24][0], 1)
	assert.Len(t, blobs[24][0][0], 5)

	flat := c.Flat()
	assert.Len(t, flat, 25*16)
	assert.Equal(t, c.Positions()[1][0], flat[1])
	assert.Equal(t, c.Positions()[0][1], flat[25])
	assert.Len(t, c.FlatLogProbs(), 25*16)

	for _, f := range c.AcceptanceFraction() {
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
	}
}

func TestRun_ResetsBetweenRuns(t *testing.T) {
	s, pos, err := Prepare(context.Background(), baseOptions())
	require.NoError(t, err)

	pos, err = s.Run(context.Background(), pos, 5)
	require.NoError(t, err)
	pos, err = s.Advance(context.Background(), pos, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, s.Chain().Len())

	_, err = s.Run(context.Background(), pos, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Chain().Len())

	s.Reset()
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, 0, s.Chain().Len())
}

func TestRun_NotPrepared(t *testing.T) {
	var s Sampler
	_, err := s.Run(context.Background(), nil, 10)
	assert.True(t, ferrors.IsCode(err, ferrors.ErrSamplerNotPrepared))

	var nilSampler *Sampler
	_, err = nilSampler.Run(context.Background(), nil, 10)
	assert.True(t, ferrors.IsCode(err, ferrors.ErrSamplerNotPrepared))
	assert.Equal(t, StateUninitialized, nilSampler.State())
}

func TestRun_InvalidPositions(t *testing.T) {
	s, pos, err := Prepare(context.Background(), baseOptions())
	require.NoError(t, err)

	_, err = s.Run(context.Background(), pos[:3], 5)
	assert.True(t, ferrors.IsCode(err, ferrors.ErrSamplerInvalidPositions))

	pos[0] = []float64{1}
	_, err = s.Run(context.Background(), pos, 5)
	assert.True(t, ferrors.IsCode(err, ferrors.ErrSamplerInvalidPositions))
}

func TestRun_DeterministicAcrossThreads(t *testing.T) {
	run := func(threads int) [][][]float64 {
		opts := baseOptions()
		opts.Threads = threads
		opts.BurnSteps = 5
		s, pos, err := RunSampler(context.Background(), opts, 10)
		require.NoError(t, err)
		assert.Len(t, pos, opts.Walkers)
		return s.Chain().Positions()
	}
	assert.Equal(t, run(1), run(8))
}

func TestRun_ModelErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	opts := baseOptions()
	opts.Threads = 1
	opts.Model = func(p []float64, d *dataset.Dataset) (ModelOutput, error) {
		calls++
		if calls > 20 {
			return ModelOutput{}, boom
		}
		return powerLawModel(p, d)
	}

	s, pos, err := Prepare(context.Background(), opts)
	require.NoError(t, err)

	_, err = s.Run(context.Background(), pos, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, ferrors.IsCode(err, ferrors.ErrModelEvaluationFailed))
	assert.NotEqual(t, StateComplete, s.State())
}

func TestRun_ContextCancelled(t *testing.T) {
	s, pos, err := Prepare(context.Background(), baseOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.AddObserver(ObserverFunc(func(ev StepEvent) {
		if ev.Step == 2 {
			cancel()
		}
	}))

	out, err := s.Run(ctx, pos, 100)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, s.Chain().Len())
	assert.NotEqual(t, StateComplete, s.State())

	// The interrupted run hands back the last recorded positions.
	require.Len(t, out, 16)
	last := s.Chain().Positions()[2]
	assert.Equal(t, last, out)
}

func TestRunSampler_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	opts := baseOptions()
	opts.Observers = []Observer{ObserverFunc(func(ev StepEvent) {
		if ev.Step == 1 {
			cancel()
		}
	})}

	s, out, err := RunSampler(ctx, opts, 50)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, s)
	assert.Len(t, out, 16)
	assert.Equal(t, 2, s.Chain().Len())
}

func TestGuessNormalization(t *testing.T) {
	t.Run("rescales norm", func(t *testing.T) {
		opts := baseOptions()
		opts.P0 = []float64{3e-9, 2}
		opts.Guess = true
		s, _, err := Prepare(context.Background(), opts)
		require.NoError(t, err)
		assert.InEpsilon(t, 1e-12, s.InitialVector()[0], 1e-9)
	})

	t.Run("labelled norm need not be first", func(t *testing.T) {
		opts := baseOptions()
		opts.P0 = []float64{2, 3e-9}
		opts.Labels = []string{"index", "norm"}
		opts.Prior = nil
		opts.Model = func(p []float64, d *dataset.Dataset) (ModelOutput, error) {
			return powerLawModel([]float64{p[1], p[0]}, d)
		}
		opts.Guess = true
		s, _, err := Prepare(context.Background(), opts)
		require.NoError(t, err)
		assert.Equal(t, 2.0, s.InitialVector()[0])
		assert.InEpsilon(t, 1e-12, s.InitialVector()[1], 1e-9)
	})

	t.Run("skipped without norm label", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		opts := baseOptions()
		opts.P0 = []float64{3e-9, 2}
		opts.Labels = []string{"amplitude", "index"}
		opts.Guess = true
		opts.Logger = zap.New(core)
		s, _, err := Prepare(context.Background(), opts)
		require.NoError(t, err)
		assert.Equal(t, 3e-9, s.InitialVector()[0])
		assert.Equal(t, 1, logs.FilterMessageSnippet("normalization guess skipped").Len())
	})

	t.Run("skipped for non-positive model", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		opts := baseOptions()
		opts.P0 = []float64{0, 2}
		opts.Prior = nil
		opts.Guess = true
		opts.Logger = zap.New(core)
		s, _, err := Prepare(context.Background(), opts)
		require.NoError(t, err)
		assert.Equal(t, 0.0, s.InitialVector()[0])
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("model error", func(t *testing.T) {
		boom := errors.New("boom")
		opts := baseOptions()
		opts.Guess = true
		opts.Model = func([]float64, *dataset.Dataset) (ModelOutput, error) { return ModelOutput{}, boom }
		_, _, err := Prepare(context.Background(), opts)
		assert.ErrorIs(t, err, boom)
	})
}

func TestSynthesizeLabels(t *testing.T) {
	got, err := synthesizeLabels(nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"norm", "par1", "par2"}, got)

	got, err = synthesizeLabels([]string{"norm"}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"norm", "par1", "par2"}, got)

	got, err = synthesizeLabels([]string{"a", "b", "c"}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	_, err = synthesizeLabels([]string{"a", "b"}, 1)
	assert.True(t, ferrors.IsCode(err, ferrors.ErrConfigInvalidLabels))
}
