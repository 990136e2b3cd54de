// Package config provides YAML-based configuration for the kolam server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/kolam-koders/backend/internal/render"
	"github.com/kolam-koders/backend/internal/service"
)

const DefaultFileName = "kolam.yaml"

// Index backends
const (
	IndexMemory = "memory"
	IndexDuckDB = "duckdb"
)

var ErrInvalidConfig = errors.New("invalid config")

// AppConfig is the root configuration document
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Generation GenerationConfig `yaml:"generation"`
	Render     RenderConfig     `yaml:"render"`
	Security   SecurityConfig   `yaml:"security"`
	Advanced   AdvancedConfig   `yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bindAddress"`
	EnableCORS   bool   `yaml:"enableCors"`
	AllowOrigins string `yaml:"allowOrigins"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
	BodyLimit    string `yaml:"bodyLimit"`
}

// StorageConfig contains artifact storage settings
type StorageConfig struct {
	DataDirectory          string `yaml:"dataDirectory"`
	ArtifactsDirectory     string `yaml:"artifactsDirectory"`
	IndexBackend           string `yaml:"indexBackend"`
	IndexPath              string `yaml:"indexPath"`
	RetentionMinutes       int    `yaml:"retentionMinutes"`
	CleanupIntervalMinutes int    `yaml:"cleanupIntervalMinutes"`
}

// GenerationConfig holds request defaults and limits
type GenerationConfig struct {
	DefaultSeed      string `yaml:"defaultSeed"`
	DefaultGridSize  int    `yaml:"defaultGridSize"`
	DefaultNumMotifs int    `yaml:"defaultNumMotifs"`
	DefaultFormat    string `yaml:"defaultFormat"`
	MaxGridSize      int    `yaml:"maxGridSize"`
	MaxMotifs        int    `yaml:"maxMotifs"`
}

// RenderConfig holds the image style
type RenderConfig struct {
	CellSize    float64 `yaml:"cellSize"`
	Padding     float64 `yaml:"padding"`
	DotRadius   float64 `yaml:"dotRadius"`
	StrokeWidth float64 `yaml:"strokeWidth"`
	Background  string  `yaml:"background"`
	DotColor    string  `yaml:"dotColor"`
	LineColor   string  `yaml:"lineColor"`
	Supersample int     `yaml:"supersample"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowDeletion bool `yaml:"allowDeletion"`
}

// AdvancedConfig contains logging and tuning options
type AdvancedConfig struct {
	LogLevel                string `yaml:"logLevel"`
	LogFormat               string `yaml:"logFormat"`
	EnableRequestLogging    bool   `yaml:"enableRequestLogging"`
	DuckDBThreads           int    `yaml:"duckdbThreads"`
	WebSocketMaxMessageSize int    `yaml:"webSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         5000,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
			BodyLimit:    "1M",
		},
		Storage: StorageConfig{
			DataDirectory:          "./data",
			ArtifactsDirectory:     "./data/static/kolams",
			IndexBackend:           IndexMemory,
			IndexPath:              "./data/kolams.duckdb",
			RetentionMinutes:       24 * 60,
			CleanupIntervalMinutes: 10,
		},
		Generation: GenerationConfig{
			DefaultSeed:      "default_seed",
			DefaultGridSize:  13,
			DefaultNumMotifs: 7,
			DefaultFormat:    "png",
			MaxGridSize:      101,
			MaxMotifs:        500,
		},
		Render: RenderConfig{
			CellSize:    40,
			Padding:     40,
			DotRadius:   4,
			StrokeWidth: 3,
			Background:  "#000000",
			DotColor:    "#ffffff",
			LineColor:   "#ffffff",
			Supersample: 4,
		},
		Security: SecurityConfig{
			AllowDeletion: true,
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			LogFormat:               "text",
			EnableRequestLogging:    true,
			DuckDBThreads:           2,
			WebSocketMaxMessageSize: 64,
		},
	}
}

// LoadDotEnv loads a .env file from dir if one exists.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// LoadConfig loads configuration from a YAML file, writing the defaults
// first if the file does not exist.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Unmarshal over the defaults so omitted keys keep their values.
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration as YAML
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Kolam generator configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.ArtifactsDirectory = filepath.Join(dataDir, "static", "kolams")
		c.Storage.IndexPath = filepath.Join(dataDir, "kolams.duckdb")
	}

	if level := os.Getenv("KOLAM_LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}

	if backend := os.Getenv("KOLAM_INDEX_BACKEND"); backend != "" {
		c.Storage.IndexBackend = strings.ToLower(backend)
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.ArtifactsDirectory,
		&c.Storage.IndexPath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// Validate checks ranges and enumerations.
func (c *AppConfig) Validate() error {
	g := c.Generation
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	case g.MaxGridSize < 3:
		return fmt.Errorf("%w: generation.maxGridSize must be at least 3", ErrInvalidConfig)
	case g.DefaultGridSize < 3 || g.DefaultGridSize%2 == 0:
		return fmt.Errorf("%w: generation.defaultGridSize must be odd and at least 3", ErrInvalidConfig)
	case g.DefaultGridSize > g.MaxGridSize:
		return fmt.Errorf("%w: generation.defaultGridSize exceeds maxGridSize", ErrInvalidConfig)
	case g.MaxMotifs < 0 || g.DefaultNumMotifs < 0 || g.DefaultNumMotifs > g.MaxMotifs:
		return fmt.Errorf("%w: generation motif limits", ErrInvalidConfig)
	case g.DefaultFormat != "png" && g.DefaultFormat != "svg":
		return fmt.Errorf("%w: generation.defaultFormat %q", ErrInvalidConfig, g.DefaultFormat)
	case c.Storage.IndexBackend != IndexMemory && c.Storage.IndexBackend != IndexDuckDB:
		return fmt.Errorf("%w: storage.indexBackend %q", ErrInvalidConfig, c.Storage.IndexBackend)
	case c.Storage.RetentionMinutes < 0 || c.Storage.CleanupIntervalMinutes < 0:
		return fmt.Errorf("%w: storage retention values must not be negative", ErrInvalidConfig)
	case c.Advanced.LogFormat != "" && c.Advanced.LogFormat != "text" && c.Advanced.LogFormat != "json":
		return fmt.Errorf("%w: advanced.logFormat %q", ErrInvalidConfig, c.Advanced.LogFormat)
	}
	if _, err := logrus.ParseLevel(c.Advanced.LogLevel); err != nil {
		return fmt.Errorf("%w: advanced.logLevel: %w", ErrInvalidConfig, err)
	}
	style := c.RenderStyle()
	if err := style.Validate(); err != nil {
		return fmt.Errorf("%w: render: %w", ErrInvalidConfig, err)
	}
	if !style.PixelAligned() {
		return fmt.Errorf("%w: render.cellSize must be an even whole number and render.padding a whole number", ErrInvalidConfig)
	}
	if err := style.CheckCanvas(g.MaxGridSize, g.MaxGridSize); err != nil {
		return fmt.Errorf("%w: render at generation.maxGridSize: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ConfigureLogger applies the level and format from the advanced section.
func (c *AppConfig) ConfigureLogger(l *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.Advanced.LogLevel)
	if err != nil {
		return err
	}
	l.SetLevel(level)
	if c.Advanced.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// RenderStyle converts the render section to an exporter style.
func (c *AppConfig) RenderStyle() render.Style {
	r := c.Render
	return render.Style{
		CellSize:    r.CellSize,
		Padding:     r.Padding,
		DotRadius:   r.DotRadius,
		StrokeWidth: r.StrokeWidth,
		Background:  r.Background,
		DotColor:    r.DotColor,
		LineColor:   r.LineColor,
		Supersample: r.Supersample,
	}
}

// ServiceDefaults returns the request defaults for the generation service.
func (c *AppConfig) ServiceDefaults() service.Defaults {
	g := c.Generation
	return service.Defaults{
		Seed:      g.DefaultSeed,
		GridSize:  g.DefaultGridSize,
		NumMotifs: g.DefaultNumMotifs,
		Format:    g.DefaultFormat,
	}
}

// ServiceLimits returns the request limits for the generation service.
func (c *AppConfig) ServiceLimits() service.Limits {
	return service.Limits{
		MaxGridSize: c.Generation.MaxGridSize,
		MaxMotifs:   c.Generation.MaxMotifs,
	}
}

// RetentionPolicy returns how old artifacts may get and how often to sweep.
// Zero values mean cleanup is disabled.
func (c *AppConfig) RetentionPolicy() (maxAge, interval time.Duration) {
	if c.Storage.RetentionMinutes <= 0 || c.Storage.CleanupIntervalMinutes <= 0 {
		return 0, 0
	}
	return time.Duration(c.Storage.RetentionMinutes) * time.Minute,
		time.Duration(c.Storage.CleanupIntervalMinutes) * time.Minute
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.ArtifactsDirectory,
	}
	if c.Storage.IndexBackend == IndexDuckDB {
		dirs = append(dirs, filepath.Dir(c.Storage.IndexPath))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
