package sampler

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"

	"golang.org/x/sync/errgroup"

	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
)

// DefaultStretchScale is the scale parameter a of the stretch move.
const DefaultStretchScale = 2.0

// lnProbFunc evaluates one walker position.
type lnProbFunc func(params []float64) (float64, Blob, error)

// EnsembleState is the population after one step.
type EnsembleState struct {
	Positions [][]float64
	LogProbs  []float64
	Blobs     []Blob
	Accepted  []bool
}

// Ensemble implements the Goodman & Weare affine-invariant stretch move.
// Walkers are updated in two halves; each half moves against the current
// positions of the other. Evaluations within a half run concurrently on at
// most threads goroutines. All random numbers for a half are drawn before
// its evaluations are dispatched, so a seeded run does not depend on the
// thread count.
type Ensemble struct {
	lnprob  lnProbFunc
	scale   float64
	threads int
	rng     *rand.Rand
}

func newEnsemble(fn lnProbFunc, scale float64, threads int, rng *rand.Rand) *Ensemble {
	if scale <= 1 {
		scale = DefaultStretchScale
	}
	if threads < 1 {
		threads = 1
	}
	return &Ensemble{lnprob: fn, scale: scale, threads: threads, rng: rng}
}

// Init evaluates the starting positions.
func (e *Ensemble) Init(ctx context.Context, positions [][]float64) (EnsembleState, error) {
	pos := copyPositions(positions)
	lp, blobs, err := e.evaluate(ctx, pos, nil)
	if err != nil {
		return EnsembleState{}, err
	}
	return EnsembleState{
		Positions: pos,
		LogProbs:  lp,
		Blobs:     blobs,
		Accepted:  make([]bool, len(pos)),
	}, nil
}

// Step advances every walker once. The input state is not modified.
func (e *Ensemble) Step(ctx context.Context, st EnsembleState) (EnsembleState, error) {
	n := len(st.Positions)
	next := EnsembleState{
		Positions: copyPositions(st.Positions),
		LogProbs:  append([]float64(nil), st.LogProbs...),
		Blobs:     append([]Blob(nil), st.Blobs...),
		Accepted:  make([]bool, n),
	}

	half := n / 2
	for _, s := range [][2]int{{0, half}, {half, n}} {
		if err := e.moveHalf(ctx, &next, s[0], s[1]); err != nil {
			return EnsembleState{}, err
		}
	}
	return next, nil
}

// moveHalf proposes new positions for walkers [lo, hi) using the walkers
// outside that range as the complementary set.
func (e *Ensemble) moveHalf(ctx context.Context, st *EnsembleState, lo, hi int) error {
	n := len(st.Positions)
	ndim := len(st.Positions[0])
	size := hi - lo
	compl := n - size

	proposals := make([][]float64, size)
	zs := make([]float64, size)
	us := make([]float64, size)
	for i := 0; i < size; i++ {
		k := lo + i
		j := e.rng.IntN(compl)
		if j >= lo {
			j += size
		}
		u := e.rng.Float64()
		z := (e.scale - 1) * u
		z = (z + 1) * (z + 1) / e.scale

		x, c := st.Positions[k], st.Positions[j]
		y := make([]float64, ndim)
		for d := range y {
			y[d] = c[d] + z*(x[d]-c[d])
		}
		proposals[i] = y
		zs[i] = z
		us[i] = e.rng.Float64()
	}

	lp, blobs, err := e.evaluate(ctx, proposals, func(i int) int { return lo + i })
	if err != nil {
		return err
	}

	for i := 0; i < size; i++ {
		k := lo + i
		q := float64(ndim-1)*math.Log(zs[i]) + lp[i] - st.LogProbs[k]
		if math.Log(us[i]) < q {
			st.Positions[k] = proposals[i]
			st.LogProbs[k] = lp[i]
			st.Blobs[k] = blobs[i]
			st.Accepted[k] = true
		}
	}
	return nil
}

// evaluate runs lnprob over points on the worker group. walker maps a point
// index to the walker it belongs to, for error context.
func (e *Ensemble) evaluate(ctx context.Context, points [][]float64, walker func(int) int) ([]float64, []Blob, error) {
	lp := make([]float64, len(points))
	blobs := make([]Blob, len(points))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.threads)
	for i, p := range points {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, b, err := e.lnprob(append([]float64(nil), p...))
			if err != nil {
				w := i
				if walker != nil {
					w = walker(i)
				}
				return wrapEvalError(err, w)
			}
			lp[i], blobs[i] = v, b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return lp, blobs, nil
}

func wrapEvalError(err error, walker int) error {
	if fe, ok := ferrors.AsFitError(err); ok {
		return fe.WithContext("walker", strconv.Itoa(walker))
	}
	return ferrors.WrapModel(err, ferrors.ErrModelEvaluationFailed, "model evaluation failed").
		WithContext("walker", strconv.Itoa(walker))
}

func copyPositions(positions [][]float64) [][]float64 {
	out := make([][]float64, len(positions))
	for i, p := range positions {
		out[i] = append([]float64(nil), p...)
	}
	return out
}
