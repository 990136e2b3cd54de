// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/kolam-koders/backend/internal/service"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Service          *service.KolamService
	Version          string
	AllowDeletion    bool
	WSMaxMessageSize int64 // bytes; 0 means unlimited
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	API       *Handler
	WebSocket *WebSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.Service.Exporters().Formats()),
		API:       NewHandler(deps.Service, deps.AllowDeletion),
		WebSocket: NewWebSocketHandler(deps.Service, deps.WSMaxMessageSize),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	g := e.Group("/api")
	g.GET("/health", handlers.Health.HandleHealth)

	g.POST("/generate", handlers.API.HandleGenerate)
	g.POST("/geometry", handlers.API.HandleGeometry)
	g.POST("/geometry/msgpack", handlers.API.HandleGeometryMsgpack)

	kolams := g.Group("/kolams")
	kolams.GET("/recent", handlers.API.HandleGetRecentKolams)
	kolams.GET("/:id", handlers.API.HandleGetKolam)
	kolams.GET("/:id/image", handlers.API.HandleGetKolamImage)
	kolams.DELETE("/:id", handlers.API.HandleDeleteKolam)

	g.GET("/ws", handlers.WebSocket.HandleWebSocket)

	// Form-style route used by the embedded UI.
	e.POST("/generate", handlers.API.HandleLegacyGenerate)
}

// RegisterArtifactStatic serves stored image files under urlPrefix.
func RegisterArtifactStatic(e *echo.Echo, urlPrefix, dir string) {
	e.Static(urlPrefix, dir)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
	e.Use(RequestIDMiddleware())
}
