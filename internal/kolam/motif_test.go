package kolam

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClover(t *testing.T) {
	got := Clover(2, 3)
	want := []Instruction{
		Curve(Pt(2, 3), Pt(3, 3), Pt(2.5, 2.5)),
		Curve(Pt(3, 3), Pt(3, 4), Pt(3.5, 3.5)),
		Curve(Pt(3, 4), Pt(2, 4), Pt(2.5, 4.5)),
		Curve(Pt(2, 4), Pt(2, 3), Pt(1.5, 3.5)),
	}
	assert.Equal(t, want, got)

	// Every control sits half a unit further from the block center than its chord.
	center := Pt(2.5, 3.5)
	for _, in := range got {
		mid := in.From.Add(in.To).Scale(0.5)
		assert.Greater(t, dist2(in.Control, center), dist2(mid, center), "%s bulges inward", in)
	}
}

func TestDiamond(t *testing.T) {
	got := Diamond(4, 4, 2)
	want := []Instruction{
		Line(Pt(4, 2), Pt(6, 4)),
		Line(Pt(6, 4), Pt(4, 6)),
		Line(Pt(4, 6), Pt(2, 4)),
		Line(Pt(2, 4), Pt(4, 2)),
	}
	assert.Equal(t, want, got)
}

func TestCurvedDiamond(t *testing.T) {
	got := CurvedDiamond(3, 3, 1)
	require.Len(t, got, 4)

	lines := Diamond(3, 3, 1)
	for i, in := range got {
		assert.Equal(t, KindCurve, in.Kind)
		assert.Equal(t, lines[i].From, in.From)
		assert.Equal(t, lines[i].To, in.To)
		assert.Equal(t, Pt(3, 3), in.Control)
	}
}

func TestWeaving(t *testing.T) {
	got := Weaving(1, 1)
	m := Pt(1.5, 1.5)
	want := []Instruction{
		Curve(Pt(1, 1), m, Pt(1.5, 1)),
		Curve(m, Pt(2, 2), Pt(1.5, 2)),
		Curve(Pt(2, 1), m, Pt(1.5, 2)),
		Curve(m, Pt(1, 2), Pt(1.5, 1)),
	}
	assert.Equal(t, want, got)

	// The two S shapes share the midpoint but never a whole curve.
	for i := 0; i < 2; i++ {
		for j := 2; j < 4; j++ {
			assert.NotEqual(t, got[i], got[j])
		}
	}
	for _, in := range got {
		off := in.Control.Sub(m)
		assert.Equal(t, 0.0, off.X)
		assert.Equal(t, 0.5, abs(off.Y))
	}
}

func TestLotusPetal(t *testing.T) {
	got := LotusPetal(Pt(0, 0), Pt(2, 0), 0.5)
	require.Len(t, got, 2)

	assert.Equal(t, Pt(0, 1), got[0].Control)
	assert.Equal(t, Pt(0, -1), got[1].Control)
	for _, in := range got {
		assert.Equal(t, KindCurve, in.Kind)
		assert.Equal(t, Pt(0, 0), in.From)
		assert.Equal(t, Pt(2, 0), in.To)
	}
}

func TestLotusPetal_Diagonal(t *testing.T) {
	got := LotusPetal(Pt(1, 1), Pt(3, 2), 0.5)
	// v = (2,1); n = (-1,2) * 0.5
	assert.Equal(t, Pt(0.5, 2), got[0].Control)
	assert.Equal(t, Pt(1.5, 0), got[1].Control)
}

func TestMotifKind_Text(t *testing.T) {
	for _, k := range MotifKinds {
		b, err := k.MarshalText()
		require.NoError(t, err)

		var back MotifKind
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, k, back)
	}

	var k MotifKind
	assert.Error(t, k.UnmarshalText([]byte("spiral")))
	assert.Equal(t, "motif(9)", MotifKind(9).String())
}

func TestInstruction_JSON(t *testing.T) {
	b, err := json.Marshal(Line(Pt(0, 1), Pt(2, 3)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"line","from":{"x":0,"y":1},"to":{"x":2,"y":3},"control":{"x":0,"y":0}}`, string(b))
}

func TestInstruction_Points(t *testing.T) {
	assert.Equal(t, []Point{Pt(0, 1), Pt(2, 3)}, Line(Pt(0, 1), Pt(2, 3)).Points())
	assert.Equal(t, []Point{Pt(0, 0), Pt(1, 0), Pt(.5, -.5)}, Curve(Pt(0, 0), Pt(1, 0), Pt(.5, -.5)).Points())
}

// Only lotus petals carry off-lattice control points.
func TestLatticeMotifs_StayOnHalfUnits(t *testing.T) {
	g := mustGrid(t, 9, 9)
	var all []Instruction
	all = append(all, Clover(2, 3)...)
	all = append(all, Weaving(1, 4)...)
	all = append(all, Diamond(3, 3, 2)...)
	all = append(all, CurvedDiamond(4, 2, 1)...)

	for _, in := range ExpandSymmetry(all, g) {
		for _, pt := range in.Points() {
			assert.Equal(t, float64(int(pt.X*2)), pt.X*2, "%s", in)
			assert.Equal(t, float64(int(pt.Y*2)), pt.Y*2, "%s", in)
		}
	}
}

func dist2(a, b Point) float64 {
	d := a.Sub(b)
	return d.X*d.X + d.Y*d.Y
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
