package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sakif/bite/internal/auth"
	"github.com/sakif/bite/internal/handler"
	"github.com/sakif/bite/internal/model"
	"github.com/sakif/bite/internal/repository"
	"github.com/sakif/bite/internal/repository/sqlite"
	"github.com/sakif/bite/internal/service"
	"github.com/stretchr/testify/assert"
)

type testEnv struct {
	db     *sqlite.DB
	bites  *service.BiteService
	tokens *auth.TokenService
	h      *handler.BiteHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	bites := service.NewBiteService(db, db, nil, logger)

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("failed to build token service: %v", err)
	}

	return &testEnv{
		db:     db,
		bites:  bites,
		tokens: tokens,
		h:      handler.NewBiteHandler(bites, logger),
	}
}

func (e *testEnv) createUser(t *testing.T, githubID int64) *model.User {
	t.Helper()
	name := "Test User"
	user, err := e.db.Upsert(context.Background(), repository.UserUpsert{
		GitHubID: githubID,
		Name:     &name,
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// authed attaches a valid session cookie for the user, so requests pass
// through the real RequireAuth middleware.
func (e *testEnv) authed(t *testing.T, req *http.Request, userID int64) *http.Request {
	t.Helper()
	token, err := e.tokens.Generate(userID)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	return req
}

func (e *testEnv) protected(h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(e.tokens)(h)
}

func TestBiteHandler_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 2001)

	body := `{"name":"Glow Button","description":"glows","tags":["ui","button"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/bites", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	env.authed(t, req, user.ID)
	rr := httptest.NewRecorder()

	env.protected(env.h.HandleCreate).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created model.Bite
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Len(t, created.BiteID, 10)
	assert.Equal(t, "Glow Button", created.Name)
	assert.Equal(t, []string{"ui", "button"}, created.Tags)

	// Fetch it back, unauthenticated.
	getReq := httptest.NewRequest(http.MethodGet, "/api/bites/"+created.BiteID, nil)
	getReq.SetPathValue("biteId", created.BiteID)
	getRR := httptest.NewRecorder()

	env.h.HandleGet(getRR, getReq)

	assert.Equal(t, http.StatusOK, getRR.Code)

	var detail service.BiteDetail
	assert.NoError(t, json.NewDecoder(getRR.Body).Decode(&detail))
	assert.Len(t, detail.Files, 5)
	assert.Len(t, detail.Permissions, 1)
	assert.NotNil(t, detail.Metadata)
}

func TestBiteHandler_CreateRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/bites", bytes.NewBufferString(`{"name":"x"}`))
	rr := httptest.NewRecorder()

	env.protected(env.h.HandleCreate).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBiteHandler_CreateRejectsInvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 2002)

	req := httptest.NewRequest(http.MethodPost, "/api/bites", bytes.NewBufferString(`{"name":`))
	env.authed(t, req, user.ID)
	rr := httptest.NewRecorder()

	env.protected(env.h.HandleCreate).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBiteHandler_GetMissingReturnsNull(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/bites/nonexist00", nil)
	req.SetPathValue("biteId", "nonexist00")
	rr := httptest.NewRecorder()

	env.h.HandleGet(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "null\n", rr.Body.String())
}

func TestBiteHandler_ListPublic(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 2003)

	for _, name := range []string{"one", "two"} {
		_, err := env.bites.Create(context.Background(), user.ID, service.CreateBiteParams{Name: name})
		assert.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/bites?limit=1&offset=0", nil)
	rr := httptest.NewRecorder()

	env.h.HandleListPublic(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var bites []model.Bite
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&bites))
	assert.Len(t, bites, 1)
	assert.Equal(t, "two", bites[0].Name)
}

func TestBiteHandler_UpdateForbiddenForStranger(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, 2004)
	stranger := env.createUser(t, 2005)

	created, err := env.bites.Create(context.Background(), owner.ID, service.CreateBiteParams{Name: "mine"})
	assert.NoError(t, err)

	body := `{"name":"stolen"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/bites/"+created.BiteID, bytes.NewBufferString(body))
	req.SetPathValue("biteId", created.BiteID)
	env.authed(t, req, stranger.ID)
	rr := httptest.NewRecorder()

	env.protected(env.h.HandleUpdate).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestBiteHandler_UpdateFileRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, 2006)

	created, err := env.bites.Create(context.Background(), owner.ID, service.CreateBiteParams{Name: "editable"})
	assert.NoError(t, err)

	body := `{"content":"<p>edited</p>"}`
	req := httptest.NewRequest(http.MethodPut, "/api/bites/"+created.BiteID+"/files/index.html", bytes.NewBufferString(body))
	req.SetPathValue("biteId", created.BiteID)
	req.SetPathValue("filename", "index.html")
	env.authed(t, req, owner.ID)
	rr := httptest.NewRecorder()

	env.protected(env.h.HandleUpdateFile).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	files, err := env.db.ListFiles(context.Background(), created.BiteID)
	assert.NoError(t, err)
	for _, f := range files {
		if f.Filename == "index.html" {
			assert.Equal(t, "<p>edited</p>", f.Content)
		}
	}
}

func TestBiteHandler_DeleteFileOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, 2007)
	dev := env.createUser(t, 2008)

	created, err := env.bites.Create(context.Background(), owner.ID, service.CreateBiteParams{Name: "strict"})
	assert.NoError(t, err)
	assert.NoError(t, env.bites.AddCollaborator(context.Background(), created.BiteID, owner.ID, dev.ID, model.RoleDeveloper))

	req := httptest.NewRequest(http.MethodDelete, "/api/bites/"+created.BiteID+"/files/script.js", nil)
	req.SetPathValue("biteId", created.BiteID)
	req.SetPathValue("filename", "script.js")
	env.authed(t, req, dev.ID)
	rr := httptest.NewRecorder()

	env.protected(env.h.HandleDeleteFile).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/bites/"+created.BiteID+"/files/script.js", nil)
	req.SetPathValue("biteId", created.BiteID)
	req.SetPathValue("filename", "script.js")
	env.authed(t, req, owner.ID)
	rr = httptest.NewRecorder()

	env.protected(env.h.HandleDeleteFile).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestBiteHandler_AddCollaboratorAndPermissions(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, 2009)
	collab := env.createUser(t, 2010)

	created, err := env.bites.Create(context.Background(), owner.ID, service.CreateBiteParams{Name: "shared"})
	assert.NoError(t, err)

	body, _ := json.Marshal(map[string]any{"userId": collab.ID, "role": "developer"})
	req := httptest.NewRequest(http.MethodPost, "/api/bites/"+created.BiteID+"/collaborators", bytes.NewBuffer(body))
	req.SetPathValue("biteId", created.BiteID)
	env.authed(t, req, owner.ID)
	rr := httptest.NewRecorder()

	env.protected(env.h.HandleAddCollaborator).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)

	permReq := httptest.NewRequest(http.MethodGet, "/api/bites/"+created.BiteID+"/permissions", nil)
	permReq.SetPathValue("biteId", created.BiteID)
	permRR := httptest.NewRecorder()

	env.h.HandleGetPermissions(permRR, permReq)
	assert.Equal(t, http.StatusOK, permRR.Code)

	var perms []service.PermissionWithUser
	assert.NoError(t, json.NewDecoder(permRR.Body).Decode(&perms))
	assert.Len(t, perms, 2)
	for _, p := range perms {
		assert.NotNil(t, p.User)
	}
}

func TestBiteHandler_ListMine(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, 2011)
	bob := env.createUser(t, 2012)

	_, err := env.bites.Create(context.Background(), alice.ID, service.CreateBiteParams{Name: "alice's"})
	assert.NoError(t, err)
	_, err = env.bites.Create(context.Background(), bob.ID, service.CreateBiteParams{Name: "bob's"})
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/bites/mine", nil)
	env.authed(t, req, alice.ID)
	rr := httptest.NewRecorder()

	env.protected(env.h.HandleListMine).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var bites []model.Bite
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&bites))
	assert.Len(t, bites, 1)
	assert.Equal(t, "alice's", bites[0].Name)
}
