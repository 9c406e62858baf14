package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/sakif/bite/internal/handler"
	"github.com/sakif/bite/internal/service"
	"github.com/stretchr/testify/assert"
)

func newShareEnv(t *testing.T) (*testEnv, *handler.ShareHandler) {
	t.Helper()
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return env, handler.NewShareHandler(env.bites, logger)
}

func TestShareHandler_PreviewComposesAndCountsDownload(t *testing.T) {
	env, share := newShareEnv(t)
	user := env.createUser(t, 3001)

	created, err := env.bites.Create(context.Background(), user.ID, service.CreateBiteParams{Name: "Shared Widget"})
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/b/"+created.BiteID, nil)
	req.SetPathValue("biteId", created.BiteID)
	rr := httptest.NewRecorder()

	share.HandlePreview(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")

	body := rr.Body.String()
	assert.Contains(t, body, "<style>")
	assert.Contains(t, body, "<script>")
	assert.Contains(t, body, "Shared Widget")

	got, err := env.db.GetByID(context.Background(), created.BiteID)
	assert.NoError(t, err)
	assert.Equal(t, 1, got.Downloads)
}

func TestShareHandler_PreviewNotFound(t *testing.T) {
	_, share := newShareEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/b/nonexist00", nil)
	req.SetPathValue("biteId", "nonexist00")
	rr := httptest.NewRecorder()

	share.HandlePreview(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestShareHandler_ReadmeRenders(t *testing.T) {
	env, share := newShareEnv(t)
	user := env.createUser(t, 3002)

	created, err := env.bites.Create(context.Background(), user.ID, service.CreateBiteParams{Name: "Documented"})
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/b/"+created.BiteID+"/readme", nil)
	req.SetPathValue("biteId", created.BiteID)
	rr := httptest.NewRecorder()

	share.HandleReadme(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	// The seed README starts with "# <name>".
	assert.True(t, strings.Contains(rr.Body.String(), "<h1>Documented</h1>"),
		"expected rendered heading, got:\n%s", rr.Body.String())
}

func TestShareHandler_SourceHighlighted(t *testing.T) {
	env, share := newShareEnv(t)
	user := env.createUser(t, 3003)

	created, err := env.bites.Create(context.Background(), user.ID, service.CreateBiteParams{Name: "Sourced"})
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/b/"+created.BiteID+"/src/script.js", nil)
	req.SetPathValue("biteId", created.BiteID)
	req.SetPathValue("filename", "script.js")
	rr := httptest.NewRecorder()

	share.HandleSource(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "console")
}

func TestShareHandler_SourceUnknownFile(t *testing.T) {
	env, share := newShareEnv(t)
	user := env.createUser(t, 3004)

	created, err := env.bites.Create(context.Background(), user.ID, service.CreateBiteParams{Name: "Sparse"})
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/b/"+created.BiteID+"/src/missing.txt", nil)
	req.SetPathValue("biteId", created.BiteID)
	req.SetPathValue("filename", "missing.txt")
	rr := httptest.NewRecorder()

	share.HandleSource(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
