// Package render turns kolam geometry into image artifacts. Exporters only
// see a Scene of grid-unit points; pixel layout and colors come from Style.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/kolam-koders/backend/internal/kolam"
)

var (
	ErrUnknownFormat  = errors.New("unknown render format")
	ErrInvalidColor   = errors.New("invalid color")
	ErrEmptyScene     = errors.New("scene has no grid")
	ErrCanvasTooLarge = errors.New("canvas too large")
)

// MaxRasterPixels caps the working canvas of the PNG exporter, supersampling
// included. Each working pixel costs about 8 bytes (RGBA plus coverage).
const MaxRasterPixels = 32 << 20

// Scene is everything an exporter draws: the dot lattice as background
// markers and the symmetric instruction list on top.
type Scene struct {
	Columns      int
	Rows         int
	Dots         []kolam.Point
	Instructions []kolam.Instruction
}

// NewScene builds a Scene from a composed pattern.
func NewScene(p kolam.Pattern) Scene {
	return Scene{
		Columns:      p.Grid.Width(),
		Rows:         p.Grid.Height(),
		Dots:         p.Dots,
		Instructions: p.Instructions,
	}
}

// Style controls pixel geometry and colors. Lengths are in output pixels.
type Style struct {
	CellSize    float64
	Padding     float64
	DotRadius   float64
	StrokeWidth float64
	Background  string
	DotColor    string
	LineColor   string
	// Supersample renders PNGs at this multiple and scales down. 1 disables it.
	Supersample int
}

// DefaultStyle mirrors the classic look: white dots and strokes on black.
func DefaultStyle() Style {
	return Style{
		CellSize:    40,
		Padding:     40,
		DotRadius:   4,
		StrokeWidth: 3,
		Background:  "#000000",
		DotColor:    "#ffffff",
		LineColor:   "#ffffff",
		Supersample: 4,
	}
}

// Validate checks that the style can produce a non-empty image.
func (s Style) Validate() error {
	if s.CellSize <= 0 {
		return fmt.Errorf("cell size must be positive, got %g", s.CellSize)
	}
	if s.Padding < 0 || s.DotRadius < 0 || s.StrokeWidth <= 0 {
		return fmt.Errorf("padding, dot radius and stroke width must not be negative")
	}
	for _, c := range []string{s.Background, s.DotColor, s.LineColor} {
		if _, err := ParseColor(c); err != nil {
			return err
		}
	}
	return nil
}

// canvasSize returns the pixel dimensions for a scene.
func (s Style) canvasSize(sc Scene) (int, int) {
	w := 2*s.Padding + float64(sc.Columns-1)*s.CellSize
	h := 2*s.Padding + float64(sc.Rows-1)*s.CellSize
	return int(w + 0.5), int(h + 0.5)
}

// rasterScale returns the largest supersample factor, at most
// s.Supersample, whose working canvas for a columns x rows grid fits in
// MaxRasterPixels.
func (s Style) rasterScale(columns, rows int) (int, error) {
	sc := Scene{Columns: columns, Rows: rows}
	for ss := max(s.Supersample, 1); ss >= 1; ss-- {
		w, h := s.scaled(float64(ss)).canvasSize(sc)
		if int64(w)*int64(h) <= MaxRasterPixels {
			return ss, nil
		}
	}
	w, h := s.canvasSize(sc)
	return 0, fmt.Errorf("%w: %dx%d px exceeds %d px", ErrCanvasTooLarge, w, h, MaxRasterPixels)
}

// CheckCanvas reports ErrCanvasTooLarge when a columns x rows grid cannot be
// rasterized within MaxRasterPixels even without supersampling.
func (s Style) CheckCanvas(columns, rows int) error {
	_, err := s.rasterScale(columns, rows)
	return err
}

// PixelAligned reports whether every half-unit grid point lands on a whole
// pixel: CellSize must be an even integer and Padding an integer. The SVG
// exporter rounds to whole pixels, so unaligned styles let rotated copies
// drift apart by a pixel.
func (s Style) PixelAligned() bool {
	return math.Mod(s.CellSize, 2) == 0 && s.Padding == math.Trunc(s.Padding)
}

// toCanvas maps a grid point to pixel space. The y axis points down, so row
// 0 is drawn at the top.
func (s Style) toCanvas(p kolam.Point) (float64, float64) {
	return s.Padding + p.X*s.CellSize, s.Padding + p.Y*s.CellSize
}

// scaled returns the style with every length multiplied by k.
func (s Style) scaled(k float64) Style {
	out := s
	out.CellSize *= k
	out.Padding *= k
	out.DotRadius *= k
	out.StrokeWidth *= k
	return out
}

// Exporter writes a Scene to a sink in one file format.
type Exporter interface {
	Name() string
	ContentType() string
	Extension() string
	Export(w io.Writer, sc Scene) error
}

// Registry holds the available exporters, looked up by format name.
type Registry struct {
	exporters []Exporter
}

// NewRegistry returns a registry with the PNG and SVG exporters for style.
func NewRegistry(style Style) *Registry {
	return &Registry{
		exporters: []Exporter{
			NewPNGExporter(style),
			NewSVGExporter(style),
		},
	}
}

// Register adds an exporter. Later registrations win for the same name.
func (r *Registry) Register(e Exporter) {
	r.exporters = append([]Exporter{e}, r.exporters...)
}

// Get returns the exporter for a format name such as "png" or ".svg".
func (r *Registry) Get(format string) (Exporter, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	for _, e := range r.exporters {
		if e.Name() == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Formats lists the registered format names.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.exporters))
	seen := make(map[string]bool)
	for _, e := range r.exporters {
		if !seen[e.Name()] {
			seen[e.Name()] = true
			names = append(names, e.Name())
		}
	}
	return names
}

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// errWriter remembers the first write error so exporters built on
// fire-and-forget writers can still report I/O failures.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	if err != nil {
		ew.err = err
	}
	return n, err
}
