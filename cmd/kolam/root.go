package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kolam-koders/backend/internal/config"
	"github.com/kolam-koders/backend/internal/render"
	"github.com/kolam-koders/backend/internal/service"
)

// Version info (set during build)
var Version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string

	cfg *config.AppConfig
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "kolam",
		Short: "Generate kolam dot-grid patterns",
		Long: `Generate symmetric kolam patterns on a square dot grid and export
them as PNG, SVG or raw geometry.

Examples:
  kolam gen --seed festival --size 13 --motifs 7 -o festival.png
  kolam gen --seed 42 --format svg -o out.svg
  kolam gen --seed 42 > geometry.json`,
		SilenceUsage:      true,
		PersistentPreRunE: opts.load,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (defaults are used when empty)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(newGenCmd(opts))
	root.AddCommand(newFormatsCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

func (o *rootOptions) load(cmd *cobra.Command, _ []string) error {
	cfg := config.DefaultConfig()
	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if o.logLevel != "" {
		cfg.Advanced.LogLevel = o.logLevel
	}

	logrus.SetOutput(cmd.ErrOrStderr())
	if err := cfg.ConfigureLogger(logrus.StandardLogger()); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

// service builds a generation service without artifact storage.
func (o *rootOptions) service() *service.KolamService {
	return service.NewKolamService(nil, render.NewRegistry(o.cfg.RenderStyle()), o.cfg.ServiceDefaults(), o.cfg.ServiceLimits())
}

func newFormatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List export formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, f := range opts.service().Exporters().Formats() {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
