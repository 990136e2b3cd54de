package kolam

// Pattern is the complete geometry handed to a renderer: every grid dot and
// the symmetric instruction list.
type Pattern struct {
	Grid         Grid
	Seed         Seed
	Dots         []Point
	Raw          []Instruction
	Instructions []Instruction
	Placements   []Placement
	Skipped      int
}

// Compose generates a run over grid and expands it under 4-fold symmetry.
func Compose(grid Grid, opts *Options) Pattern {
	run := NewRun(grid, opts)
	raw := run.Generate()
	return Pattern{
		Grid:         grid,
		Seed:         run.Seed(),
		Dots:         grid.Dots(),
		Raw:          raw,
		Instructions: ExpandSymmetry(raw, grid),
		Placements:   run.Placements(),
		Skipped:      run.Skipped(),
	}
}
