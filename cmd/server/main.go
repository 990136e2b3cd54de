package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/kolam-koders/backend/internal/api"
	"github.com/kolam-koders/backend/internal/config"
	"github.com/kolam-koders/backend/internal/render"
	"github.com/kolam-koders/backend/internal/service"
	"github.com/kolam-koders/backend/internal/storage"
	"github.com/kolam-koders/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const artifactURLPrefix = "/static/kolams"

func main() {
	log := logrus.StandardLogger()

	configPath, err := resolveConfigPath()
	if err != nil {
		log.WithError(err).Fatal("failed to resolve config path")
	}
	if err := config.LoadDotEnv(filepath.Dir(configPath)); err != nil {
		log.WithError(err).Warn("failed to load .env")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if err := cfg.ConfigureLogger(log); err != nil {
		log.WithError(err).Fatal("invalid logging configuration")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.WithError(err).Fatal("failed to create directories")
	}

	index, err := openIndex(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open artifact index")
	}
	store, err := storage.NewLocalStore(cfg.Storage.ArtifactsDirectory, artifactURLPrefix, index)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize storage")
	}
	defer store.Close()

	exporters := render.NewRegistry(cfg.RenderStyle())
	svc := service.NewKolamService(store, exporters, cfg.ServiceDefaults(), cfg.ServiceLimits())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if maxAge, interval := cfg.RetentionPolicy(); interval > 0 {
		go runCleanup(ctx, store, maxAge, interval)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e)

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))
	e.Use(api.LoggingMiddleware(log, func(c echo.Context) bool {
		return !cfg.Advanced.EnableRequestLogging || api.HealthSkipper(c)
	}))
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout:      time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper:      websocketSkipper,
		ErrorMessage: "Request timeout - rendering took too long",
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			// PNG bodies are already compressed.
			return websocketSkipper(c) || strings.HasPrefix(c.Request().URL.Path, artifactURLPrefix)
		},
	}))
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: splitOrigins(cfg.Server.AllowOrigins),
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	handlers := api.NewHandlers(&api.Dependencies{
		Service:          svc,
		Version:          Version,
		AllowDeletion:    cfg.Security.AllowDeletion,
		WSMaxMessageSize: int64(cfg.Advanced.WebSocketMaxMessageSize) * 1024,
	})
	api.RegisterRoutes(e, handlers)
	api.RegisterArtifactStatic(e, artifactURLPrefix, cfg.Storage.ArtifactsDirectory)

	embeddedMode := web.HasEmbeddedFiles()
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			log.WithError(err).Warn("failed to register UI routes")
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, configPath, exporters.Formats(), embeddedMode)

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// resolveConfigPath prefers KOLAM_CONFIG, then kolam.yaml next to the binary.
func resolveConfigPath() (string, error) {
	if p := os.Getenv("KOLAM_CONFIG"); p != "" {
		return filepath.Abs(p)
	}
	exePath, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(exePath), config.DefaultFileName), nil
}

func openIndex(cfg *config.AppConfig) (storage.Index, error) {
	if cfg.Storage.IndexBackend == config.IndexDuckDB {
		return storage.NewDuckIndex(cfg.Storage.IndexPath, cfg.Advanced.DuckDBThreads)
	}
	return storage.NewMemoryIndex(), nil
}

func runCleanup(ctx context.Context, store storage.Store, maxAge, interval time.Duration) {
	log := logrus.WithField("component", "cleanup")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.CleanupOlderThan(maxAge)
			if err != nil {
				log.WithError(err).Warn("artifact cleanup failed")
				continue
			}
			if n > 0 {
				log.WithField("removed", n).Info("expired artifacts removed")
			}
		}
	}
}

func websocketSkipper(c echo.Context) bool {
	return c.Request().URL.Path == "/api/ws" ||
		strings.EqualFold(c.Request().Header.Get(echo.HeaderUpgrade), "websocket")
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func printBanner(cfg *config.AppConfig, configPath string, formats []string, embedded bool) {
	ui := "disabled"
	if embedded {
		ui = "embedded"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Kolam Generator Server                          ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  UI:         %-45s║\n", ui)
	fmt.Printf("║  Formats:    %-45s║\n", strings.Join(formats, ", "))
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-39s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Index:     %-46s║\n", cfg.Storage.IndexBackend)
	fmt.Printf("║  Artifacts: %-46s║\n", cfg.Storage.ArtifactsDirectory)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}
