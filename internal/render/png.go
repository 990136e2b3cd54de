package render

import (
	"image"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/kolam-koders/backend/internal/kolam"
)

const (
	circleSegments = 24
	maxCurveSteps  = 64
)

// PNGExporter rasterizes scenes. Shapes are drawn at Supersample times the
// target size and scaled down for smooth edges. Large grids get a lower
// factor so the working canvas stays within MaxRasterPixels.
type PNGExporter struct {
	style Style
}

func NewPNGExporter(style Style) *PNGExporter {
	return &PNGExporter{style: style}
}

func (e *PNGExporter) Name() string        { return "png" }
func (e *PNGExporter) ContentType() string { return "image/png" }
func (e *PNGExporter) Extension() string   { return ".png" }

func (e *PNGExporter) Export(w io.Writer, sc Scene) error {
	img, err := e.Rasterize(sc)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Rasterize draws the scene into an in-memory image at the final size.
func (e *PNGExporter) Rasterize(sc Scene) (*image.RGBA, error) {
	if sc.Columns < 1 || sc.Rows < 1 {
		return nil, ErrEmptyScene
	}
	bg, err := ParseColor(e.style.Background)
	if err != nil {
		return nil, err
	}
	dotColor, err := ParseColor(e.style.DotColor)
	if err != nil {
		return nil, err
	}
	lineColor, err := ParseColor(e.style.LineColor)
	if err != nil {
		return nil, err
	}

	ss, err := e.style.rasterScale(sc.Columns, sc.Rows)
	if err != nil {
		return nil, err
	}
	st := e.style.scaled(float64(ss))
	width, height := st.canvasSize(sc)

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	z := vector.NewRasterizer(width, height)
	for _, d := range sc.Dots {
		x, y := st.toCanvas(d)
		addDisc(z, x, y, st.DotRadius)
	}
	z.Draw(canvas, canvas.Bounds(), image.NewUniform(dotColor), image.Point{})

	z.Reset(width, height)
	for _, in := range sc.Instructions {
		strokePolyline(z, flatten(st, in), st.StrokeWidth/2)
	}
	z.Draw(canvas, canvas.Bounds(), image.NewUniform(lineColor), image.Point{})

	if ss == 1 {
		return canvas, nil
	}
	fw, fh := e.style.canvasSize(sc)
	out := image.NewRGBA(image.Rect(0, 0, fw, fh))
	draw.CatmullRom.Scale(out, out.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)
	return out, nil
}

type vec struct{ x, y float64 }

// flatten converts an instruction to a pixel-space polyline. Curves are
// sampled finely enough that each step is a few pixels long.
func flatten(st Style, in kolam.Instruction) []vec {
	x1, y1 := st.toCanvas(in.From)
	x2, y2 := st.toCanvas(in.To)
	if !in.IsCurve() {
		return []vec{{x1, y1}, {x2, y2}}
	}
	cx, cy := st.toCanvas(in.Control)

	approx := math.Hypot(cx-x1, cy-y1) + math.Hypot(x2-cx, y2-cy)
	steps := min(max(int(approx/4), 4), maxCurveSteps)

	pts := make([]vec, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		u := 1 - t
		pts = append(pts, vec{
			x: u*u*x1 + 2*u*t*cx + t*t*x2,
			y: u*u*y1 + 2*u*t*cy + t*t*y2,
		})
	}
	return pts
}

// strokePolyline adds one quad per segment plus round joins. All shapes are
// emitted with the same winding so overlaps accumulate instead of cancelling.
func strokePolyline(z *vector.Rasterizer, pts []vec, hw float64) {
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		dx, dy := b.x-a.x, b.y-a.y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*hw, dx/l*hw
		addPolygon(z, []vec{
			{a.x + nx, a.y + ny},
			{b.x + nx, b.y + ny},
			{b.x - nx, b.y - ny},
			{a.x - nx, a.y - ny},
		})
	}
	for _, p := range pts {
		addDisc(z, p.x, p.y, hw)
	}
}

func addDisc(z *vector.Rasterizer, cx, cy, r float64) {
	if r <= 0 {
		return
	}
	pts := make([]vec, circleSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = vec{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	addPolygon(z, pts)
}

// addPolygon closes pts as a path, normalising it to negative signed area.
func addPolygon(z *vector.Rasterizer, pts []vec) {
	if len(pts) < 3 {
		return
	}
	if signedArea(pts) > 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	z.MoveTo(float32(pts[0].x), float32(pts[0].y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.x), float32(p.y))
	}
	z.ClosePath()
}

func signedArea(pts []vec) float64 {
	var s float64
	for i := range pts {
		j := (i + 1) % len(pts)
		s += pts[i].x*pts[j].y - pts[j].x*pts[i].y
	}
	return s / 2
}
