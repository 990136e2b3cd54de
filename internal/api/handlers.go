package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/kolam-koders/backend/internal/models"
	"github.com/kolam-koders/backend/internal/service"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// Handler handles API requests.
type Handler struct {
	svc           *service.KolamService
	allowDeletion bool
}

// NewHandler creates a new API handler.
func NewHandler(svc *service.KolamService, allowDeletion bool) *Handler {
	return &Handler{
		svc:           svc,
		allowDeletion: allowDeletion,
	}
}

// HandleGenerate renders and stores a kolam, returning its artifact info.
func (h *Handler) HandleGenerate(c echo.Context) error {
	var req models.GenerateRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	res, err := h.svc.Generate(c.Request().Context(), req)
	if err != nil {
		return toAPIError(err, "kolam", "")
	}
	return c.JSON(http.StatusCreated, newGenerateResponse(res))
}

// HandleGeometry returns the pattern geometry as JSON without rendering.
func (h *Handler) HandleGeometry(c echo.Context) error {
	resp, err := h.geometry(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleGeometryMsgpack returns the pattern geometry as MessagePack.
func (h *Handler) HandleGeometryMsgpack(c echo.Context) error {
	resp, err := h.geometry(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(resp)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

func (h *Handler) geometry(c echo.Context) (*models.PatternResponse, error) {
	var req models.GenerateRequest
	if err := c.Bind(&req); err != nil {
		return nil, NewBadRequestError("invalid request body", err)
	}

	pattern, _, err := h.svc.Compose(req)
	if err != nil {
		return nil, toAPIError(err, "pattern", "")
	}
	return models.NewPatternResponse(pattern), nil
}

// HandleLegacyGenerate serves POST /generate: snake_case parameters, PNG
// output and an {"image_url": ...} response.
func (h *Handler) HandleLegacyGenerate(c echo.Context) error {
	var legacy models.LegacyGenerateRequest
	if err := c.Bind(&legacy); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	res, err := h.svc.Generate(c.Request().Context(), models.GenerateRequest{
		Seed:      legacy.Seed,
		GridSize:  legacy.GridSize.IntPtr(),
		NumMotifs: legacy.NumMotifs.IntPtr(),
		Format:    "png",
	})
	if err != nil {
		return toAPIError(err, "kolam", "")
	}
	return c.JSON(http.StatusOK, models.LegacyGenerateResponse{ImageURL: res.Artifact.URL})
}

// HandleGetRecentKolams returns the most recently generated artifacts.
func (h *Handler) HandleGetRecentKolams(c echo.Context) error {
	limit := defaultRecentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return NewValidationError("limit")
		}
		limit = min(n, maxRecentLimit)
	}

	list, err := h.svc.Store().List(limit)
	if err != nil {
		return NewInternalError("failed to list kolams", err)
	}
	return c.JSON(http.StatusOK, list)
}

// HandleGetKolam returns metadata for one artifact.
func (h *Handler) HandleGetKolam(c echo.Context) error {
	id := c.Param("id")
	info, err := h.svc.Store().Get(id)
	if err != nil {
		return toAPIError(err, "kolam", id)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleGetKolamImage streams the artifact file.
func (h *Handler) HandleGetKolamImage(c echo.Context) error {
	id := c.Param("id")
	info, err := h.svc.Store().Get(id)
	if err != nil {
		return toAPIError(err, "kolam", id)
	}
	path, err := h.svc.Store().GetFilePath(id)
	if err != nil {
		return toAPIError(err, "kolam", id)
	}

	c.Response().Header().Set(echo.HeaderContentType, info.ContentType)
	return c.File(path)
}

// HandleDeleteKolam removes an artifact when deletion is enabled.
func (h *Handler) HandleDeleteKolam(c echo.Context) error {
	if !h.allowDeletion {
		return NewForbiddenError("kolam deletion is disabled")
	}

	id := c.Param("id")
	if err := h.svc.Store().Delete(id); err != nil {
		return toAPIError(err, "kolam", id)
	}
	return c.NoContent(http.StatusNoContent)
}

func newGenerateResponse(res *service.Result) *models.GenerateResponse {
	resp := models.NewPatternResponse(res.Pattern)
	return &models.GenerateResponse{
		ArtifactInfo: res.Artifact,
		ImageURL:     res.Artifact.URL,
		RawCount:     resp.RawCount,
		Skipped:      resp.Skipped,
		Placements:   resp.Placements,
	}
}
