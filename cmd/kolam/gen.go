package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kolam-koders/backend/internal/kolam"
	"github.com/kolam-koders/backend/internal/models"
	"github.com/kolam-koders/backend/internal/render"
)

type genOptions struct {
	seed   string
	size   int
	width  int
	height int
	motifs int
	format string
	output string
}

func newGenCmd(root *rootOptions) *cobra.Command {
	opts := &genOptions{}
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a kolam",
		Long: `Generate one kolam. With --output the pattern is rendered to a file,
otherwise its geometry is written to stdout as JSON.

The format is taken from --format, then from the output extension.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGen(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.seed, "seed", "s", "", "Seed text or number (configured default when empty)")
	f.IntVarP(&opts.size, "size", "n", 0, "Grid size for a square grid, odd and at least 3")
	f.IntVar(&opts.width, "width", 0, "Grid columns, overrides --size")
	f.IntVar(&opts.height, "height", 0, "Grid rows, overrides --size")
	f.IntVarP(&opts.motifs, "motifs", "m", 0, "Number of motifs to place")
	f.StringVarP(&opts.format, "format", "f", "", "Export format: png or svg")
	f.StringVarP(&opts.output, "output", "o", "", "Output file (geometry JSON to stdout when empty)")
	return cmd
}

// request maps the flags that were actually given onto a generation request.
func (o *genOptions) request(cmd *cobra.Command) models.GenerateRequest {
	req := models.GenerateRequest{Seed: kolam.Seed(o.seed), Format: o.format}
	changed := cmd.Flags().Changed
	if changed("size") {
		req.GridSize = &o.size
	}
	if changed("width") {
		req.Width = &o.width
	}
	if changed("height") {
		req.Height = &o.height
	}
	if changed("motifs") {
		req.NumMotifs = &o.motifs
	}
	if req.Format == "" && o.output != "" {
		req.Format = strings.TrimPrefix(filepath.Ext(o.output), ".")
	}
	return req
}

func runGen(cmd *cobra.Command, root *rootOptions, opts *genOptions) error {
	svc := root.service()
	req := opts.request(cmd)

	pattern, params, err := svc.Compose(req)
	if err != nil {
		return err
	}

	if opts.output == "" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(models.NewPatternResponse(pattern))
	}

	exporter, err := svc.Exporters().Get(params.Format)
	if err != nil {
		return err
	}
	file, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := exporter.Export(file, render.NewScene(pattern)); err != nil {
		file.Close()
		return fmt.Errorf("failed to export %s: %w", exporter.Name(), err)
	}
	if err := file.Close(); err != nil {
		return err
	}

	cmd.Printf("Wrote %s (%dx%d, seed %q, %d strokes)\n",
		opts.output, params.Width, params.Height, params.Seed, len(pattern.Instructions))
	return nil
}
