// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import "github.com/labstack/echo/v4"

// GenerateHandler handles pattern generation
type GenerateHandler interface {
	HandleGenerate(c echo.Context) error
	HandleGeometry(c echo.Context) error
	HandleGeometryMsgpack(c echo.Context) error
	HandleLegacyGenerate(c echo.Context) error
}

// KolamHandler handles stored artifacts
type KolamHandler interface {
	HandleGetRecentKolams(c echo.Context) error
	HandleGetKolam(c echo.Context) error
	HandleGetKolamImage(c echo.Context) error
	HandleDeleteKolam(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

var (
	_ GenerateHandler = (*Handler)(nil)
	_ KolamHandler    = (*Handler)(nil)
)
