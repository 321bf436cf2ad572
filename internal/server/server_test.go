package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlatour/codestash/internal/model"
	"github.com/mlatour/codestash/internal/server"
)

// newTestServer builds a full server over an in-memory database, no
// Docker runner, and returns its handler. Requests go straight through
// the real router, middleware and stores.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	srv, err := server.New(server.Config{
		Port:          0,
		DBPath:        ":memory:",
		SessionSecret: "integration-test-session-secret",
	}, nil, logger)
	require.NoError(t, err)

	return srv.Handler()
}

// doJSON sends one request and decodes the response body into out (if
// non-nil). The session cookie, when given, rides along.
func doJSON(t *testing.T, h http.Handler, method, path string, body any, session *http.Cookie, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req.AddCookie(session)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if out != nil && rr.Code < 300 {
		require.NoError(t, json.NewDecoder(rr.Body).Decode(out))
	}
	return rr
}

// registerUser registers an account and returns its session cookie.
func registerUser(t *testing.T, h http.Handler, email string) *http.Cookie {
	t.Helper()

	rr := doJSON(t, h, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": "password123",
		"name":     "Test User",
	}, nil, nil)
	require.Equal(t, http.StatusCreated, rr.Code, "register failed: %s", rr.Body.String())

	for _, c := range rr.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("register response set no session cookie")
	return nil
}

func TestAuthFlow(t *testing.T) {
	h := newTestServer(t)

	session := registerUser(t, h, "alice@example.com")

	var me model.User
	rr := doJSON(t, h, http.MethodGet, "/api/auth/me", nil, session, &me)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice@example.com", me.Email)

	// No cookie, no session.
	rr = doJSON(t, h, http.MethodGet, "/api/auth/me", nil, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Fresh login works and the wrong password doesn't.
	rr = doJSON(t, h, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	}, nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSnippetLifecycle(t *testing.T) {
	h := newTestServer(t)
	session := registerUser(t, h, "alice@example.com")

	var created model.Snippet
	rr := doJSON(t, h, http.MethodPost, "/api/snippets/", map[string]any{
		"title":    "versioned",
		"content":  "a",
		"language": "go",
	}, session, &created)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, 1, created.Version)

	// Revise a -> b -> c.
	var revised model.Snippet
	for i, content := range []string{"b", "c"} {
		rr = doJSON(t, h, http.MethodPut, "/api/snippets/"+created.ID, map[string]any{
			"content": content,
		}, session, &revised)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, i+2, revised.Version)
		assert.Equal(t, content, revised.Content)
	}

	// History holds a@1, b@2 oldest first.
	var history []model.History
	rr = doJSON(t, h, http.MethodGet, "/api/snippets/"+created.ID+"/history", nil, session, &history)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, history, 2)
	assert.Equal(t, "a", history[0].Content)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, "b", history[1].Content)
	assert.Equal(t, 2, history[1].Version)

	// A stale base version conflicts.
	rr = doJSON(t, h, http.MethodPut, "/api/snippets/"+created.ID, map[string]any{
		"content":     "stale",
		"baseVersion": 1,
	}, session, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// A matching base version goes through.
	rr = doJSON(t, h, http.MethodPut, "/api/snippets/"+created.ID, map[string]any{
		"content":     "d",
		"baseVersion": 3,
	}, session, &revised)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 4, revised.Version)

	// Metadata updates leave content and version alone.
	var updated model.Snippet
	rr = doJSON(t, h, http.MethodPatch, "/api/snippets/"+created.ID, map[string]any{
		"title":    "renamed",
		"language": "go",
	}, session, &updated)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, 4, updated.Version)

	rr = doJSON(t, h, http.MethodDelete, "/api/snippets/"+created.ID, nil, session, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/snippets/"+created.ID, nil, session, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSnippetValidation(t *testing.T) {
	h := newTestServer(t)
	session := registerUser(t, h, "alice@example.com")

	rr := doJSON(t, h, http.MethodPost, "/api/snippets/", map[string]any{
		"title": "   ",
	}, session, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/snippets/", nil, session, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// A revise body must carry the content field.
	var snippet model.Snippet
	rr = doJSON(t, h, http.MethodPost, "/api/snippets/", map[string]any{
		"title":   "ok",
		"content": "a",
	}, session, &snippet)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, h, http.MethodPut, "/api/snippets/"+snippet.ID, map[string]any{
		"baseVersion": 1,
	}, session, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// Someone else's private snippet is indistinguishable from a missing
// one, all the way through the HTTP surface.
func TestSnippetOwnership(t *testing.T) {
	h := newTestServer(t)
	alice := registerUser(t, h, "alice@example.com")
	bob := registerUser(t, h, "bob@example.com")

	var private model.Snippet
	rr := doJSON(t, h, http.MethodPost, "/api/snippets/", map[string]any{
		"title":   "secret",
		"content": "a",
	}, alice, &private)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/snippets/"+private.ID, nil, bob, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodPut, "/api/snippets/"+private.ID, map[string]any{"content": "hijack"}, bob, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Alice's snippet is untouched.
	var got model.Snippet
	rr = doJSON(t, h, http.MethodGet, "/api/snippets/"+private.ID, nil, alice, &got)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "a", got.Content)
	assert.Equal(t, 1, got.Version)

	// Public snippets read across accounts but stay owner-editable.
	var public model.Snippet
	rr = doJSON(t, h, http.MethodPost, "/api/snippets/", map[string]any{
		"title":    "shared",
		"content":  "b",
		"isPublic": true,
	}, alice, &public)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/snippets/"+public.ID, nil, bob, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodPatch, "/api/snippets/"+public.ID, map[string]any{
		"title":   "hijacked",
		"content": "b",
	}, bob, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFoldersAndTags(t *testing.T) {
	h := newTestServer(t)
	session := registerUser(t, h, "alice@example.com")

	var folder model.Folder
	rr := doJSON(t, h, http.MethodPost, "/api/folders/", map[string]string{"name": "Work"}, session, &folder)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var snippet model.Snippet
	rr = doJSON(t, h, http.MethodPost, "/api/snippets/", map[string]any{
		"title":    "filed",
		"content":  "a",
		"folderId": folder.ID,
	}, session, &snippet)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NotNil(t, snippet.FolderID)

	var tag model.Tag
	rr = doJSON(t, h, http.MethodPost, "/api/tags/", map[string]string{"name": "go", "color": "#00ADD8"}, session, &tag)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/snippets/%s/tags/%s", snippet.ID, tag.ID), nil, session, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	var got model.Snippet
	rr = doJSON(t, h, http.MethodGet, "/api/snippets/"+snippet.ID, nil, session, &got)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "go", got.Tags[0].Name)

	// Listing scoped to the folder finds the snippet.
	var listed []model.Snippet
	rr = doJSON(t, h, http.MethodGet, "/api/snippets/?folder="+folder.ID, nil, session, &listed)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, listed, 1)

	// Deleting the folder unfiles the snippet but keeps it.
	rr = doJSON(t, h, http.MethodDelete, "/api/folders/"+folder.ID, nil, session, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/snippets/"+snippet.ID, nil, session, &got)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, got.FolderID)

	rr = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/snippets/%s/tags/%s", snippet.ID, tag.ID), nil, session, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

// Without a Docker runner the run endpoint degrades to 503 instead of
// erroring out.
func TestRunUnavailable(t *testing.T) {
	h := newTestServer(t)
	session := registerUser(t, h, "alice@example.com")

	var snippet model.Snippet
	rr := doJSON(t, h, http.MethodPost, "/api/snippets/", map[string]any{
		"title":    "hello",
		"content":  "print('hi')",
		"language": "python",
	}, session, &snippet)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/snippets/"+snippet.ID+"/run", nil, session, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	h := newTestServer(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/snippets/"},
		{http.MethodPost, "/api/snippets/"},
		{http.MethodGet, "/api/folders/"},
		{http.MethodGet, "/api/tags/"},
	}
	for _, p := range paths {
		rr := doJSON(t, h, p.method, p.path, nil, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", p.method, p.path)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t)

	rr := doJSON(t, h, http.MethodGet, "/healthz", nil, nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
