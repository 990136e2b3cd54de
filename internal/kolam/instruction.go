package kolam

import "fmt"

// Point is a position in grid units. Dots sit on integral points; curve
// control points may fall between them.
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns p*k.
func (p Point) Scale(k float64) Point { return Point{X: p.X * k, Y: p.Y * k} }

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// InstructionKind tags an Instruction as a line or a curve.
type InstructionKind uint8

const (
	// KindLine is a straight segment From -> To.
	KindLine InstructionKind = iota
	// KindCurve is a quadratic Bézier From -> To pulled toward Control.
	KindCurve
)

func (k InstructionKind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindCurve:
		return "curve"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name so JSON output reads "line"/"curve".
func (k InstructionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (k *InstructionKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "line":
		*k = KindLine
	case "curve":
		*k = KindCurve
	default:
		return fmt.Errorf("unknown instruction kind %q", b)
	}
	return nil
}

// Instruction is an abstract drawing primitive. Control is only meaningful
// for curves and is the zero Point for lines. Instructions are plain values:
// rotating or copying one never affects another.
type Instruction struct {
	Kind    InstructionKind `json:"kind" msgpack:"kind"`
	From    Point           `json:"from" msgpack:"from"`
	To      Point           `json:"to" msgpack:"to"`
	Control Point           `json:"control" msgpack:"control"`
}

// Line builds a straight-line instruction.
func Line(from, to Point) Instruction {
	return Instruction{Kind: KindLine, From: from, To: to}
}

// Curve builds a quadratic Bézier instruction.
func Curve(from, to, control Point) Instruction {
	return Instruction{Kind: KindCurve, From: from, To: to, Control: control}
}

// IsCurve reports whether the instruction is a curve.
func (in Instruction) IsCurve() bool {
	return in.Kind == KindCurve
}

// Points returns the points carried by the instruction: endpoints, then the
// control point for curves.
func (in Instruction) Points() []Point {
	if in.IsCurve() {
		return []Point{in.From, in.To, in.Control}
	}
	return []Point{in.From, in.To}
}

// mapPoints returns a copy of the instruction with fn applied to every point
// it carries. The tag is preserved.
func (in Instruction) mapPoints(fn func(Point) Point) Instruction {
	out := Instruction{Kind: in.Kind, From: fn(in.From), To: fn(in.To)}
	if in.IsCurve() {
		out.Control = fn(in.Control)
	}
	return out
}

func (in Instruction) String() string {
	if in.IsCurve() {
		return fmt.Sprintf("curve %s-%s ctl %s", in.From, in.To, in.Control)
	}
	return fmt.Sprintf("line %s-%s", in.From, in.To)
}
