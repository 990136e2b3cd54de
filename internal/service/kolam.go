// Package service orchestrates generation: request defaults and limits,
// pattern composition, rendering and artifact storage.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kolam-koders/backend/internal/kolam"
	"github.com/kolam-koders/backend/internal/models"
	"github.com/kolam-koders/backend/internal/render"
	"github.com/kolam-koders/backend/internal/storage"
)

// ErrInvalidRequest marks errors caused by the caller's parameters.
var ErrInvalidRequest = errors.New("invalid request")

// Defaults fill in request fields the caller left out.
type Defaults struct {
	Seed      string
	GridSize  int
	NumMotifs int
	Format    string
}

// Limits cap request sizes.
type Limits struct {
	MaxGridSize int
	MaxMotifs   int
}

// Params is a fully resolved generation request.
type Params struct {
	Seed      kolam.Seed
	Width     int
	Height    int
	NumMotifs int
	Format    string
}

// Result is the outcome of a stored generation.
type Result struct {
	Artifact *models.ArtifactInfo
	Pattern  kolam.Pattern
}

// KolamService composes, renders and stores kolams.
type KolamService struct {
	store     storage.Store
	exporters *render.Registry
	defaults  Defaults
	limits    Limits
	log       *logrus.Entry
}

func NewKolamService(store storage.Store, exporters *render.Registry, defaults Defaults, limits Limits) *KolamService {
	return &KolamService{
		store:     store,
		exporters: exporters,
		defaults:  defaults,
		limits:    limits,
		log:       logrus.WithField("component", "kolam-service"),
	}
}

// Store returns the artifact store backing the service.
func (s *KolamService) Store() storage.Store {
	return s.store
}

// Exporters returns the render registry.
func (s *KolamService) Exporters() *render.Registry {
	return s.exporters
}

// Resolve applies defaults and checks limits. Width and Height each fall back
// to GridSize, then to the default size.
func (s *KolamService) Resolve(req models.GenerateRequest) (Params, error) {
	p := Params{
		Seed:      req.Seed,
		Width:     firstSet(s.defaults.GridSize, req.Width, req.GridSize),
		Height:    firstSet(s.defaults.GridSize, req.Height, req.GridSize),
		NumMotifs: firstSet(s.defaults.NumMotifs, req.NumMotifs),
		Format:    req.Format,
	}
	if p.Seed == "" {
		p.Seed = kolam.Seed(s.defaults.Seed)
	}
	p.Seed = p.Seed.OrDefault()
	if p.Format == "" {
		p.Format = s.defaults.Format
	}

	if p.NumMotifs < 0 {
		return Params{}, fmt.Errorf("%w: numMotifs must not be negative", ErrInvalidRequest)
	}
	if s.limits.MaxMotifs > 0 && p.NumMotifs > s.limits.MaxMotifs {
		return Params{}, fmt.Errorf("%w: numMotifs %d exceeds limit %d", ErrInvalidRequest, p.NumMotifs, s.limits.MaxMotifs)
	}
	if s.limits.MaxGridSize > 0 && (p.Width > s.limits.MaxGridSize || p.Height > s.limits.MaxGridSize) {
		return Params{}, fmt.Errorf("%w: grid %dx%d exceeds limit %d", ErrInvalidRequest, p.Width, p.Height, s.limits.MaxGridSize)
	}
	return p, nil
}

// Compose resolves req and generates its pattern without rendering.
func (s *KolamService) Compose(req models.GenerateRequest) (kolam.Pattern, Params, error) {
	p, err := s.Resolve(req)
	if err != nil {
		return kolam.Pattern{}, Params{}, err
	}
	grid, err := kolam.NewGrid(p.Width, p.Height)
	if err != nil {
		return kolam.Pattern{}, Params{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	start := time.Now()
	pattern := kolam.Compose(grid, &kolam.Options{Seed: p.Seed, NumMotifs: p.NumMotifs})

	if s.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		for _, pl := range pattern.Placements {
			s.log.WithFields(logrus.Fields{
				"kind":   pl.Kind.String(),
				"anchor": pl.Anchor.String(),
				"radius": pl.Radius,
			}).Debug("motif placed")
		}
	}
	s.log.WithFields(logrus.Fields{
		"seed":         string(p.Seed),
		"grid":         grid.String(),
		"motifs":       p.NumMotifs,
		"placements":   len(pattern.Placements),
		"skipped":      pattern.Skipped,
		"instructions": len(pattern.Instructions),
		"elapsed":      time.Since(start).String(),
	}).Debug("pattern composed")

	return pattern, p, nil
}

// Generate composes, renders and stores an artifact.
func (s *KolamService) Generate(ctx context.Context, req models.GenerateRequest) (*Result, error) {
	pattern, p, err := s.Compose(req)
	if err != nil {
		return nil, err
	}
	exporter, err := s.exporters.Get(p.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := exporter.Export(&buf, render.NewScene(pattern)); err != nil {
		return nil, fmt.Errorf("render %s: %w", exporter.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := s.store.Save(&models.ArtifactInfo{
		Format:           exporter.Name(),
		ContentType:      exporter.ContentType(),
		Seed:             string(p.Seed),
		Width:            p.Width,
		Height:           p.Height,
		NumMotifs:        p.NumMotifs,
		InstructionCount: len(pattern.Instructions),
	}, &buf)
	if err != nil {
		return nil, fmt.Errorf("store artifact: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"id":     info.ID,
		"file":   info.FileName,
		"format": info.Format,
		"bytes":  info.Size,
	}).Info("kolam generated")

	return &Result{Artifact: info, Pattern: pattern}, nil
}

// firstSet returns the first non-nil value, or def.
func firstSet(def int, vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return def
}
