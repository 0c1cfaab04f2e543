package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"notehub-engine/internal/bootstrap"
	"notehub-engine/internal/config"
	"notehub-engine/internal/dto"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{
			Port:               "0",
			Environment:        "test",
			EventLogFilePath:   filepath.Join(t.TempDir(), "events.log"),
			CorsAllowedOrigins: "*",
		},
		Database: config.DatabaseConfig{Driver: "memory"},
		Engine: config.EngineConfig{
			ViewStatePrefKey:      "view",
			ValidationTTL:         time.Minute,
			ValidationConcurrency: 2,
			SessionTTL:            time.Hour,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*fiber.App, *bootstrap.Container) {
	t.Helper()
	c := bootstrap.NewContainer(cfg, nil, logger.NewNopLogger())
	t.Cleanup(c.Close)
	return New(cfg, c).GetApp(), c
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}, header http.Header) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) serverutils.BaseResponse[T] {
	t.Helper()
	var res serverutils.BaseResponse[T]
	require.NoError(t, json.Unmarshal(raw, &res), string(raw))
	return res
}

func TestDocumentLifecycle(t *testing.T) {
	app, _ := newTestServer(t, testConfig(t))

	status, raw := do(t, app, http.MethodPost, "/api/documents", dto.CreateDocumentRequest{Title: "Draft", Content: "hello"}, nil)
	require.Equal(t, http.StatusCreated, status, string(raw))
	id := decode[dto.CreateDocumentResponse](t, raw).Data.Id
	require.NotEmpty(t, id)

	status, raw = do(t, app, http.MethodGet, "/api/documents/"+id, nil, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	shown := decode[dto.DocumentResponse](t, raw).Data
	assert.Equal(t, "hello", shown.Content)
	assert.Equal(t, "Draft", shown.Title)

	status, raw = do(t, app, http.MethodPut, "/api/documents/"+id, map[string]string{"content": "hello again"}, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	saved := decode[dto.SaveDocumentResponse](t, raw).Data
	assert.NotEqual(t, shown.Revision, saved.Revision)

	status, raw = do(t, app, http.MethodGet, "/api/view", nil, nil)
	require.Equal(t, http.StatusOK, status)
	view := decode[dto.ViewResponse](t, raw).Data
	assert.Equal(t, []string{id}, view.OpenTabs)
	require.NotNil(t, view.ActiveId)
	assert.Equal(t, id, *view.ActiveId)

	status, _ = do(t, app, http.MethodDelete, "/api/documents/"+id, nil, nil)
	require.Equal(t, http.StatusOK, status)

	status, raw = do(t, app, http.MethodGet, "/api/documents/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, decode[any](t, raw).Success)
}

func TestChatReference_NoSession(t *testing.T) {
	app, _ := newTestServer(t, testConfig(t))

	status, raw := do(t, app, http.MethodPost, "/api/documents", dto.CreateDocumentRequest{Title: "Note"}, nil)
	require.Equal(t, http.StatusCreated, status)
	id := decode[dto.CreateDocumentResponse](t, raw).Data.Id

	status, _ = do(t, app, http.MethodGet, "/api/chat/references/"+id+"/check", nil, nil)
	assert.Equal(t, http.StatusPreconditionFailed, status)
}

func TestChatReference_AttachesDocument(t *testing.T) {
	app, c := newTestServer(t, testConfig(t))
	session := c.Sessions.Open("study")

	status, raw := do(t, app, http.MethodPost, "/api/documents", dto.CreateDocumentRequest{Title: "Note", Content: "body"}, nil)
	require.Equal(t, http.StatusCreated, status)
	id := decode[dto.CreateDocumentResponse](t, raw).Data.Id

	status, raw = do(t, app, http.MethodPost, "/api/chat/references/"+id, nil, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	res := decode[dto.ChatReferenceResponse](t, raw).Data
	assert.Equal(t, session, res.SessionId)
	assert.True(t, res.IsNew)
	assert.Equal(t, "note", res.TypeId)

	status, raw = do(t, app, http.MethodPost, "/api/chat/references/"+id, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[dto.ChatReferenceResponse](t, raw).Data.IsNew)
}

func TestAddReference_Validation(t *testing.T) {
	app, _ := newTestServer(t, testConfig(t))

	status, _ := do(t, app, http.MethodPost, "/api/references", map[string]string{"origin_kind": "video", "origin_id": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw := do(t, app, http.MethodPost, "/api/references", dto.AddReferenceRequest{OriginKind: "textbook", OriginId: "tb-1", Title: "Physics"}, nil)
	require.Equal(t, http.StatusCreated, status, string(raw))
	id := decode[dto.AddReferenceResponse](t, raw).Data.Id

	status, raw = do(t, app, http.MethodGet, "/api/references/"+id, nil, nil)
	require.Equal(t, http.StatusOK, status)
	ref := decode[dto.ReferenceResponse](t, raw).Data
	assert.Equal(t, "Physics", ref.Title)
	assert.Equal(t, "unknown", ref.IsInvalid)

	status, raw = do(t, app, http.MethodPost, "/api/references/"+id+"/validate", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[dto.ValidationResponse](t, raw).Data.Valid)

	status, raw = do(t, app, http.MethodPost, "/api/references/cleanup", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[dto.CleanupResponse](t, raw).Data.Removed)
}

func TestJwtMiddleware(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.BridgeJWTSecret = "s3cret"
	app, _ := newTestServer(t, cfg)

	status, _ := do(t, app, http.MethodGet, "/api/view", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "shell"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	status, _ = do(t, app, http.MethodGet, "/api/view", nil, http.Header{"Authorization": {"Bearer " + signed}})
	assert.Equal(t, http.StatusOK, status)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "shell"}).SignedString([]byte("other"))
	require.NoError(t, err)
	status, _ = do(t, app, http.MethodGet, "/api/view", nil, http.Header{"Authorization": {"Bearer " + forged}})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, app, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}
