package kolam

import "math/rand"

// DefaultMargin keeps anchors one dot in from the outer edge of the quadrant.
const DefaultMargin = 1

// Lotus petal width bounds, as a fraction of the base->tip length.
const (
	MinPetalWidth = 0.3
	MaxPetalWidth = 0.6
)

// Options configures a generation run.
type Options struct {
	Seed      Seed // Empty means DefaultSeed
	NumMotifs int  // Upper bound on placement attempts; negative is treated as 0
	Margin    int  // Safe-zone margin; 0 means DefaultMargin
}

// DefaultOptions returns options for the given seed and motif count.
func DefaultOptions(seed string, numMotifs int) *Options {
	return &Options{
		Seed:      Seed(seed),
		NumMotifs: numMotifs,
		Margin:    DefaultMargin,
	}
}

// Placement records one motif the engine emitted.
type Placement struct {
	Kind         MotifKind `json:"kind" msgpack:"kind"`
	Anchor       Point     `json:"anchor" msgpack:"anchor"`
	Radius       int       `json:"radius,omitempty" msgpack:"radius,omitempty"`
	Tip          *Point    `json:"tip,omitempty" msgpack:"tip,omitempty"`
	Width        float64   `json:"width,omitempty" msgpack:"width,omitempty"`
	Instructions int       `json:"instructions" msgpack:"instructions"`
}

// Run is a single generation: one grid, one anchor pool, one random stream
// and the raw instruction list it produces. A Run is not safe for
// concurrent use and is meant to be discarded after Generate.
type Run struct {
	grid       Grid
	opts       Options
	rng        *rand.Rand
	pool       []Point
	raw        []Instruction
	placements []Placement
	skipped    int
	done       bool
}

// NewRun prepares a run over grid. The anchor pool is built immediately.
func NewRun(grid Grid, opts *Options) *Run {
	if opts == nil {
		opts = DefaultOptions(DefaultSeed, 0)
	}
	o := *opts
	o.Seed = o.Seed.OrDefault()
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
	if o.NumMotifs < 0 {
		o.NumMotifs = 0
	}

	return &Run{
		grid: grid,
		opts: o,
		rng:  newRand(o.Seed),
		pool: safeZone(grid, o.Margin),
	}
}

// safeZone returns the anchors in [margin, centerX] x [margin, centerY],
// column by column.
func safeZone(g Grid, margin int) []Point {
	var pool []Point
	for x := margin; x <= g.CenterX(); x++ {
		for y := margin; y <= g.CenterY(); y++ {
			pool = append(pool, g.DotAt(x, y))
		}
	}
	return pool
}

// Generate runs the placement loop and returns the raw, pre-symmetry
// instruction list. Calling it again returns the same result.
func (r *Run) Generate() []Instruction {
	if r.done {
		return r.raw
	}
	r.done = true

	for i := 0; i < r.opts.NumMotifs && len(r.pool) > 0; i++ {
		anchor := r.takeAnchor()
		kind := MotifKinds[r.rng.Intn(len(MotifKinds))]

		p, out, ok := motifPlacers[kind](r, anchor)
		if !ok {
			r.skipped++
			continue
		}
		p.Kind = kind
		p.Anchor = anchor
		p.Instructions = len(out)
		r.placements = append(r.placements, p)
		r.raw = append(r.raw, out...)
	}
	return r.raw
}

// takeAnchor draws an anchor uniformly and removes it from the pool.
func (r *Run) takeAnchor() Point {
	i := r.rng.Intn(len(r.pool))
	a := r.pool[i]
	r.pool = append(r.pool[:i], r.pool[i+1:]...)
	return a
}

// Grid returns the grid the run was built for.
func (r *Run) Grid() Grid { return r.grid }

// Seed returns the effective seed.
func (r *Run) Seed() Seed { return r.opts.Seed }

// Placements returns the motifs emitted so far, in placement order.
func (r *Run) Placements() []Placement { return r.placements }

// Skipped returns how many attempts were dropped as infeasible.
func (r *Run) Skipped() int { return r.skipped }

// PoolSize returns the number of anchors still available.
func (r *Run) PoolSize() int { return len(r.pool) }

// motifPlacer computes the parameters for one motif at anchor and emits it.
// ok is false when the placement is infeasible and must be skipped.
type motifPlacer func(r *Run, anchor Point) (p Placement, out []Instruction, ok bool)

var motifPlacers = [motifKindCount]motifPlacer{
	MotifClover:        placeBlock(Clover),
	MotifDiamond:       placeDiamond(Diamond),
	MotifCurvedDiamond: placeDiamond(CurvedDiamond),
	MotifWeaving:       placeBlock(Weaving),
	MotifLotusPetal:    placeLotus,
}

// placeBlock wraps a fixed 2x2 motif; the block must fit inside the grid.
func placeBlock(motif func(x, y int) []Instruction) motifPlacer {
	return func(r *Run, anchor Point) (Placement, []Instruction, bool) {
		x, y := int(anchor.X), int(anchor.Y)
		if !r.grid.IsInBounds(x+1, y+1) {
			return Placement{}, nil, false
		}
		return Placement{}, motif(x, y), true
	}
}

// placeDiamond bounds the radius by the distance to the two grid edges
// nearest the origin corner of the quadrant.
func placeDiamond(motif func(cx, cy, radius int) []Instruction) motifPlacer {
	return func(r *Run, anchor Point) (Placement, []Instruction, bool) {
		cx, cy := int(anchor.X), int(anchor.Y)
		radius := 1
		if maxSafe := min(cx, cy); maxSafe > 1 {
			radius = 1 + r.rng.Intn(maxSafe)
		}
		for _, c := range diamondCorners(cx, cy, radius) {
			if !r.grid.IsInBounds(int(c.X), int(c.Y)) {
				return Placement{}, nil, false
			}
		}
		return Placement{Radius: radius}, motif(cx, cy, radius), true
	}
}

// placeLotus picks a tip from the pool without removing it, so a tip may
// later serve as a base or be drawn again.
func placeLotus(r *Run, anchor Point) (Placement, []Instruction, bool) {
	if len(r.pool) == 0 {
		return Placement{}, nil, false
	}
	tip := r.pool[r.rng.Intn(len(r.pool))]
	width := MinPetalWidth + (MaxPetalWidth-MinPetalWidth)*r.rng.Float64()
	return Placement{Tip: &tip, Width: width}, LotusPetal(anchor, tip, width), true
}

// Generate is the one-shot form of NewRun + Run.Generate.
func Generate(seed string, grid Grid, numMotifs int) []Instruction {
	return NewRun(grid, DefaultOptions(seed, numMotifs)).Generate()
}
