package kolam

import "fmt"

// MotifKind identifies one of the parametric shapes the placement engine can
// choose from.
type MotifKind int

const (
	MotifClover MotifKind = iota
	MotifDiamond
	MotifCurvedDiamond
	MotifWeaving
	MotifLotusPetal

	motifKindCount
)

// MotifKinds lists every motif in dispatch order.
var MotifKinds = [motifKindCount]MotifKind{
	MotifClover,
	MotifDiamond,
	MotifCurvedDiamond,
	MotifWeaving,
	MotifLotusPetal,
}

var motifNames = [motifKindCount]string{
	MotifClover:        "clover",
	MotifDiamond:       "diamond",
	MotifCurvedDiamond: "curved_diamond",
	MotifWeaving:       "weaving",
	MotifLotusPetal:    "lotus_petal",
}

func (k MotifKind) String() string {
	if k < 0 || k >= motifKindCount {
		return fmt.Sprintf("motif(%d)", int(k))
	}
	return motifNames[k]
}

// MarshalText encodes the motif by name.
func (k MotifKind) MarshalText() ([]byte, error) {
	if k < 0 || k >= motifKindCount {
		return nil, fmt.Errorf("unknown motif kind %d", int(k))
	}
	return []byte(motifNames[k]), nil
}

// UnmarshalText is the inverse of MarshalText.
func (k *MotifKind) UnmarshalText(b []byte) error {
	for i, name := range motifNames {
		if name == string(b) {
			*k = MotifKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown motif kind %q", b)
}

// Clover returns the clover loop whose 2x2 block has its top-left dot at
// (x, y). Each side of the block becomes a curve bulging half a unit away
// from the block center.
func Clover(x, y int) []Instruction {
	fx, fy := float64(x), float64(y)
	p0 := Pt(fx, fy)
	p1 := Pt(fx+1, fy)
	p2 := Pt(fx+1, fy+1)
	p3 := Pt(fx, fy+1)
	return []Instruction{
		Curve(p0, p1, Pt(fx+0.5, fy-0.5)),
		Curve(p1, p2, Pt(fx+1.5, fy+0.5)),
		Curve(p2, p3, Pt(fx+0.5, fy+1.5)),
		Curve(p3, p0, Pt(fx-0.5, fy+0.5)),
	}
}

// diamondCorners returns the top, right, bottom and left corners radius
// steps away from (cx, cy).
func diamondCorners(cx, cy, radius int) [4]Point {
	fx, fy, r := float64(cx), float64(cy), float64(radius)
	return [4]Point{
		Pt(fx, fy-r),
		Pt(fx+r, fy),
		Pt(fx, fy+r),
		Pt(fx-r, fy),
	}
}

// Diamond returns a straight-edged rotated square centered on (cx, cy).
func Diamond(cx, cy, radius int) []Instruction {
	c := diamondCorners(cx, cy, radius)
	out := make([]Instruction, 0, 4)
	for i := range c {
		out = append(out, Line(c[i], c[(i+1)%4]))
	}
	return out
}

// CurvedDiamond uses the Diamond corners but pulls every edge toward the
// center dot, giving a four-petal pinwheel.
func CurvedDiamond(cx, cy, radius int) []Instruction {
	c := diamondCorners(cx, cy, radius)
	center := Pt(float64(cx), float64(cy))
	out := make([]Instruction, 0, 4)
	for i := range c {
		out = append(out, Curve(c[i], c[(i+1)%4], center))
	}
	return out
}

// Weaving returns two interleaved S shapes across the 2x2 block at (x, y).
// Both pass through the block midpoint with opposite bulge order, so they
// cross there instead of overlapping.
func Weaving(x, y int) []Instruction {
	fx, fy := float64(x), float64(y)
	m := Pt(fx+0.5, fy+0.5)
	up := m.Sub(Pt(0, 0.5))
	down := m.Add(Pt(0, 0.5))
	return []Instruction{
		Curve(Pt(fx, fy), m, up),
		Curve(m, Pt(fx+1, fy+1), down),
		Curve(Pt(fx+1, fy), m, down),
		Curve(m, Pt(fx, fy+1), up),
	}
}

// LotusPetal returns an almond shape between base and tip. The two control
// points sit at base ± width·(-vy, vx) where v = tip - base.
func LotusPetal(base, tip Point, width float64) []Instruction {
	v := tip.Sub(base)
	n := Pt(-v.Y, v.X).Scale(width)
	return []Instruction{
		Curve(base, tip, base.Add(n)),
		Curve(base, tip, base.Sub(n)),
	}
}
