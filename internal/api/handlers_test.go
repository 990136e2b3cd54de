package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/kolam-koders/backend/internal/kolam"
	"github.com/kolam-koders/backend/internal/models"
	"github.com/kolam-koders/backend/internal/render"
	"github.com/kolam-koders/backend/internal/service"
	"github.com/kolam-koders/backend/internal/testutil"
)

type testServer struct {
	e     *echo.Echo
	h     *Handlers
	store *testutil.MockStorage
}

func newTestServer(t *testing.T, allowDeletion bool) *testServer {
	t.Helper()
	dir := t.TempDir()
	store := testutil.NewMockStorage(dir)

	style := render.DefaultStyle()
	style.Supersample = 1
	svc := service.NewKolamService(store, render.NewRegistry(style),
		service.Defaults{Seed: kolam.DefaultSeed, GridSize: 13, NumMotifs: 7, Format: "png"},
		service.Limits{MaxGridSize: 31, MaxMotifs: 50},
	)

	e := echo.New()
	SetupMiddleware(e)
	h := NewHandlers(&Dependencies{Service: svc, Version: "test", AllowDeletion: allowDeletion})
	RegisterRoutes(e, h)
	RegisterArtifactStatic(e, "/static/kolams", dir)

	return &testServer{e: e, h: h, store: store}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	if assert.NoError(t, s.h.Health.HandleHealth(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","version":"test","formats":["png","svg"]}`, rec.Body.String())
	}
}

func TestHandleGenerate(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodPost, "/api/generate", `{"seed":"abc","gridSize":9,"numMotifs":5,"format":"svg"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp models.GenerateResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "svg", resp.Format)
	assert.Equal(t, "abc", resp.Seed)
	assert.Equal(t, 9, resp.Width)
	assert.Equal(t, 9, resp.Height)
	assert.Equal(t, 5, resp.NumMotifs)
	assert.True(t, strings.HasPrefix(resp.ImageURL, "/static/kolams/kolam_seed_abc_"), resp.ImageURL)
	assert.Equal(t, resp.URL, resp.ImageURL)
	assert.Equal(t, 4*resp.RawCount, resp.InstructionCount)
	assert.NotNil(t, resp.Placements)

	// The stored file is reachable at the returned URL.
	img := s.do(http.MethodGet, resp.ImageURL, "")
	assert.Equal(t, http.StatusOK, img.Code)
	assert.Contains(t, img.Body.String(), "<svg")
}

func TestHandleGenerate_Defaults(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodPost, "/api/generate", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp models.GenerateResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, kolam.DefaultSeed, resp.Seed)
	assert.Equal(t, 13, resp.Width)
	assert.Equal(t, 7, resp.NumMotifs)
	assert.Equal(t, "png", resp.Format)
	assert.Equal(t, "image/png", resp.ContentType)
}

func TestHandleGenerate_Invalid(t *testing.T) {
	s := newTestServer(t, true)

	cases := map[string]string{
		"even grid":       `{"gridSize":10}`,
		"grid too small":  `{"gridSize":1}`,
		"over size limit": `{"gridSize":33}`,
		"too many motifs": `{"numMotifs":51}`,
		"unknown format":  `{"format":"gif"}`,
		"malformed json":  `{"seed":`,
		"bad seed type":   `{"seed":[1,2]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/generate", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var apiErr APIError
			decodeJSON(t, rec, &apiErr)
			assert.Equal(t, "BAD_REQUEST", apiErr.Code)
		})
	}
	assert.Equal(t, 0, s.store.GetFileCount())
}

func TestHandleGenerate_StoreFailure(t *testing.T) {
	s := newTestServer(t, true)
	s.store.SaveErr = assert.AnError

	rec := s.do(http.MethodPost, "/api/generate", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestHandleGeometry(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodPost, "/api/geometry", `{"seed":42,"gridSize":9,"numMotifs":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.PatternResponse
	decodeJSON(t, rec, &resp)

	g, err := kolam.NewGrid(9, 9)
	require.NoError(t, err)
	want := kolam.Compose(g, kolam.DefaultOptions("42", 5))

	assert.Equal(t, "42", resp.Seed)
	assert.Equal(t, kolam.Pt(4, 4), resp.Center)
	assert.Len(t, resp.Dots, 81)
	assert.Equal(t, len(want.Raw), resp.RawCount)
	assert.Equal(t, want.Instructions, resp.Instructions)
	assert.Equal(t, want.Placements, resp.Placements)

	// String and numeric seeds are the same seed.
	again := s.do(http.MethodPost, "/api/geometry", `{"seed":"42","gridSize":9,"numMotifs":5}`)
	assert.Equal(t, rec.Body.String(), again.Body.String())

	assert.Equal(t, 0, s.store.GetFileCount())
}

func TestHandleGeometry_EmptyPattern(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodPost, "/api/geometry", `{"gridSize":9,"numMotifs":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"instructions":[]`)
	assert.Contains(t, rec.Body.String(), `"placements":[]`)
}

func TestHandleGeometryMsgpack(t *testing.T) {
	s := newTestServer(t, true)
	body := `{"seed":"mp","width":11,"height":9,"numMotifs":6}`

	rec := s.do(http.MethodPost, "/api/geometry/msgpack", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/msgpack", rec.Header().Get(echo.HeaderContentType))

	var fromMsgpack models.PatternResponse
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &fromMsgpack))

	var fromJSON models.PatternResponse
	decodeJSON(t, s.do(http.MethodPost, "/api/geometry", body), &fromJSON)

	assert.Equal(t, 11, fromMsgpack.Width)
	assert.Equal(t, 9, fromMsgpack.Height)
	assert.Equal(t, fromJSON.Instructions, fromMsgpack.Instructions)
	assert.Equal(t, fromJSON.Placements, fromMsgpack.Placements)
}

func TestKolamEndpoints(t *testing.T) {
	s := newTestServer(t, true)

	var ids []string
	for _, seed := range []string{"a", "b", "c"} {
		rec := s.do(http.MethodPost, "/api/generate", `{"gridSize":7,"seed":"`+seed+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		var resp models.GenerateResponse
		decodeJSON(t, rec, &resp)
		ids = append(ids, resp.ID)
	}

	t.Run("recent with limit", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/kolams/recent?limit=2", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var list []models.ArtifactInfo
		decodeJSON(t, rec, &list)
		assert.Len(t, list, 2)
	})

	t.Run("recent rejects bad limit", func(t *testing.T) {
		for _, q := range []string{"abc", "0", "-3"} {
			rec := s.do(http.MethodGet, "/api/kolams/recent?limit="+q, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code, q)
			assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
		}
	})

	t.Run("get metadata", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/kolams/"+ids[1], "")
		require.Equal(t, http.StatusOK, rec.Code)
		var info models.ArtifactInfo
		decodeJSON(t, rec, &info)
		assert.Equal(t, ids[1], info.ID)
		assert.Equal(t, "b", info.Seed)
	})

	t.Run("get unknown", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/kolams/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "NOT_FOUND")
	})

	t.Run("image", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/kolams/"+ids[0]+"/image", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
	})

	t.Run("delete", func(t *testing.T) {
		rec := s.do(http.MethodDelete, "/api/kolams/"+ids[2], "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(http.MethodDelete, "/api/kolams/"+ids[2], "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, 2, s.store.GetFileCount())
	})
}

func TestHandleDeleteKolam_Disabled(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodPost, "/api/generate", `{"gridSize":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.GenerateResponse
	decodeJSON(t, rec, &resp)

	rec = s.do(http.MethodDelete, "/api/kolams/"+resp.ID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, s.store.GetFileCount())
}

func TestHandleLegacyGenerate(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodPost, "/generate", `{"seed":"abc","grid_size":9,"num_motifs":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.LegacyGenerateResponse
	decodeJSON(t, rec, &resp)
	assert.True(t, strings.HasPrefix(resp.ImageURL, "/static/kolams/kolam_seed_abc_"))
	assert.True(t, strings.HasSuffix(resp.ImageURL, ".png"))

	list, err := s.store.List(0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 9, list[0].Width)
	assert.Equal(t, 3, list[0].NumMotifs)
}

func TestHandleLegacyGenerate_StringNumbers(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodPost, "/generate", `{"seed":"abc","grid_size":"11","num_motifs":" 2 "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	list, err := s.store.List(0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 11, list[0].Width)
	assert.Equal(t, 2, list[0].NumMotifs)

	rec = s.do(http.MethodPost, "/generate", `{"grid_size":"thirteen"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLegacyGenerate_Defaults(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodPost, "/generate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"image_url":"/static/kolams/kolam_seed_default_seed_`)

	list, err := s.store.List(0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 13, list[0].Width)
	assert.Equal(t, 7, list[0].NumMotifs)
}
