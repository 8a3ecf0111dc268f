package sampler

// Chain is the append-only history of an ensemble run: for every step and
// walker, the position, its log-probability and its blob. Accessors return
// copies.
type Chain struct {
	walkers   int
	positions [][][]float64 // step, walker, parameter
	logProbs  [][]float64   // step, walker
	blobs     [][]Blob      // step, walker
	accepted  []int         // per walker, since the last reset
}

func newChain(walkers int) *Chain {
	return &Chain{walkers: walkers, accepted: make([]int, walkers)}
}

func (c *Chain) append(st EnsembleState) {
	c.positions = append(c.positions, copyPositions(st.Positions))
	c.logProbs = append(c.logProbs, append([]float64(nil), st.LogProbs...))
	c.blobs = append(c.blobs, append([]Blob(nil), st.Blobs...))
	for k, ok := range st.Accepted {
		if ok {
			c.accepted[k]++
		}
	}
}

func (c *Chain) reset() {
	c.positions = nil
	c.logProbs = nil
	c.blobs = nil
	c.accepted = make([]int, c.walkers)
}

// Len returns the number of recorded steps.
func (c *Chain) Len() int {
	return len(c.positions)
}

// Walkers returns the ensemble size.
func (c *Chain) Walkers() int {
	return c.walkers
}

// Positions returns the positions indexed by step, walker and parameter.
func (c *Chain) Positions() [][][]float64 {
	out := make([][][]float64, len(c.positions))
	for s, step := range c.positions {
		out[s] = copyPositions(step)
	}
	return out
}

// LogProbs returns the log-probabilities indexed by step and walker.
func (c *Chain) LogProbs() [][]float64 {
	out := make([][]float64, len(c.logProbs))
	for s, step := range c.logProbs {
		out[s] = append([]float64(nil), step...)
	}
	return out
}

// Blobs returns the blobs indexed by step and walker. Walkers whose prior
// rejected every visited position have nil blobs.
func (c *Chain) Blobs() [][]Blob {
	out := make([][]Blob, len(c.blobs))
	for s, step := range c.blobs {
		out[s] = append([]Blob(nil), step...)
	}
	return out
}

// Flat returns all recorded positions ordered by walker, then step.
func (c *Chain) Flat() [][]float64 {
	out := make([][]float64, 0, c.walkers*c.Len())
	for k := 0; k < c.walkers; k++ {
		for _, step := range c.positions {
			out = append(out, append([]float64(nil), step[k]...))
		}
	}
	return out
}

// FlatLogProbs returns the log-probabilities in the order of Flat.
func (c *Chain) FlatLogProbs() []float64 {
	out := make([]float64, 0, c.walkers*c.Len())
	for k := 0; k < c.walkers; k++ {
		for _, step := range c.logProbs {
			out = append(out, step[k])
		}
	}
	return out
}

// AcceptanceFraction returns, per walker, the fraction of accepted proposals
// since the chain was last reset.
func (c *Chain) AcceptanceFraction() []float64 {
	out := make([]float64, c.walkers)
	n := c.Len()
	if n == 0 {
		return out
	}
	for k, a := range c.accepted {
		out[k] = float64(a) / float64(n)
	}
	return out
}
