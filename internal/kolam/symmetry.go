package kolam

// Rotations is the order of the symmetry group used to fill the grid.
const Rotations = 4

// RotatePoint rotates p 90° clockwise about center. Only additions and
// subtractions are involved, so half-integral inputs rotate exactly.
func RotatePoint(p, center Point) Point {
	return Point{
		X: center.X + (p.Y - center.Y),
		Y: center.Y - (p.X - center.X),
	}
}

// RotateInstruction rotates every point of in by times quarter turns.
func RotateInstruction(in Instruction, center Point, times int) Instruction {
	times = ((times % Rotations) + Rotations) % Rotations
	return in.mapPoints(func(p Point) Point {
		for i := 0; i < times; i++ {
			p = RotatePoint(p, center)
		}
		return p
	})
}

// ExpandSymmetry replays raw through 0, 1, 2 and 3 rotations about the grid
// center. The output holds all of rotation 0 first, then rotation 1, and so
// on; its length is always 4*len(raw).
func ExpandSymmetry(raw []Instruction, grid Grid) []Instruction {
	center := grid.Center()
	out := make([]Instruction, 0, Rotations*len(raw))
	for rotation := 0; rotation < Rotations; rotation++ {
		for _, in := range raw {
			out = append(out, RotateInstruction(in, center, rotation))
		}
	}
	return out
}
