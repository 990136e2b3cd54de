package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kolam-koders/backend/internal/kolam"
)

// GenerateRequest is the body of the /api generation endpoints. GridSize
// makes a square grid; Width and Height override it per axis. Nil fields
// fall back to configured defaults.
type GenerateRequest struct {
	Seed      kolam.Seed `json:"seed" msgpack:"seed"`
	GridSize  *int       `json:"gridSize,omitempty" msgpack:"gridSize,omitempty"`
	Width     *int       `json:"width,omitempty" msgpack:"width,omitempty"`
	Height    *int       `json:"height,omitempty" msgpack:"height,omitempty"`
	NumMotifs *int       `json:"numMotifs,omitempty" msgpack:"numMotifs,omitempty"`
	Format    string     `json:"format,omitempty" msgpack:"format,omitempty"`
}

// LegacyGenerateRequest is the snake_case body accepted by POST /generate.
type LegacyGenerateRequest struct {
	Seed      kolam.Seed `json:"seed"`
	GridSize  *LooseInt  `json:"grid_size"`
	NumMotifs *LooseInt  `json:"num_motifs"`
}

// LooseInt is an integer that also accepts its decimal text, so both
// "grid_size": 13 and "grid_size": "13" decode.
type LooseInt int

func (n *LooseInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(str))
	}
	v, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("expected an integer, got %s", b)
	}
	*n = LooseInt(v)
	return nil
}

// IntPtr returns n as *int; nil stays nil.
func (n *LooseInt) IntPtr() *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

// LegacyGenerateResponse is returned by POST /generate.
type LegacyGenerateResponse struct {
	ImageURL string `json:"image_url"`
}

// PatternResponse is the geometry of one generation, nothing rendered.
type PatternResponse struct {
	Seed         string              `json:"seed" msgpack:"seed"`
	Width        int                 `json:"width" msgpack:"width"`
	Height       int                 `json:"height" msgpack:"height"`
	Center       kolam.Point         `json:"center" msgpack:"center"`
	Dots         []kolam.Point       `json:"dots" msgpack:"dots"`
	RawCount     int                 `json:"rawCount" msgpack:"rawCount"`
	Skipped      int                 `json:"skipped" msgpack:"skipped"`
	Instructions []kolam.Instruction `json:"instructions" msgpack:"instructions"`
	Placements   []kolam.Placement   `json:"placements" msgpack:"placements"`
}

// NewPatternResponse flattens a composed pattern for the wire.
func NewPatternResponse(p kolam.Pattern) *PatternResponse {
	instructions := p.Instructions
	if instructions == nil {
		instructions = []kolam.Instruction{}
	}
	placements := p.Placements
	if placements == nil {
		placements = []kolam.Placement{}
	}
	return &PatternResponse{
		Seed:         string(p.Seed),
		Width:        p.Grid.Width(),
		Height:       p.Grid.Height(),
		Center:       p.Grid.Center(),
		Dots:         p.Dots,
		RawCount:     len(p.Raw),
		Skipped:      p.Skipped,
		Instructions: instructions,
		Placements:   placements,
	}
}

// GenerateResponse is returned after an image has been rendered and stored.
type GenerateResponse struct {
	*ArtifactInfo
	ImageURL   string            `json:"imageUrl"`
	RawCount   int               `json:"rawCount"`
	Skipped    int               `json:"skipped"`
	Placements []kolam.Placement `json:"placements"`
}
