package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
)

// SVGExporter writes scenes as SVG documents. Coordinates are rounded to
// whole pixels.
type SVGExporter struct {
	style Style
}

func NewSVGExporter(style Style) *SVGExporter {
	return &SVGExporter{style: style}
}

func (e *SVGExporter) Name() string        { return "svg" }
func (e *SVGExporter) ContentType() string { return "image/svg+xml" }
func (e *SVGExporter) Extension() string   { return ".svg" }

func (e *SVGExporter) Export(w io.Writer, sc Scene) error {
	if sc.Columns < 1 || sc.Rows < 1 {
		return ErrEmptyScene
	}
	st := e.style
	width, height := st.canvasSize(sc)

	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(width, height)
	canvas.Title("Kolam")
	canvas.Rect(0, 0, width, height, "fill:"+st.Background)

	canvas.Gstyle("fill:" + st.DotColor)
	r := px(st.DotRadius)
	for _, d := range sc.Dots {
		x, y := st.toCanvas(d)
		canvas.Circle(px(x), px(y), r)
	}
	canvas.Gend()

	canvas.Gstyle(fmt.Sprintf("fill:none;stroke:%s;stroke-width:%g;stroke-linecap:round;stroke-linejoin:round",
		st.LineColor, st.StrokeWidth))
	for _, in := range sc.Instructions {
		x1, y1 := st.toCanvas(in.From)
		x2, y2 := st.toCanvas(in.To)
		if in.IsCurve() {
			cx, cy := st.toCanvas(in.Control)
			canvas.Qbez(px(x1), px(y1), px(cx), px(cy), px(x2), px(y2))
			continue
		}
		canvas.Line(px(x1), px(y1), px(x2), px(y2))
	}
	canvas.Gend()
	canvas.End()

	return ew.err
}

// px rounds to whole pixels. Rotated copies only line up exactly when the
// style is PixelAligned.
func px(v float64) int {
	return int(math.Round(v))
}
