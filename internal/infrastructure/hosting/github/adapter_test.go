package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app-deployer/internal/application/port/output"
	"app-deployer/internal/domain/entity"
	"app-deployer/internal/infrastructure/logger"
)

type fakeGitHub struct {
	mu          sync.Mutex
	repos       map[string]bool
	files       map[string]string
	pagesCalls  int
	lastPut     map[string]any
	userLookups int
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, *httptest.Server) {
	f := &fakeGitHub{repos: map[string]bool{}, files: map[string]string{}}
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.userLookups++
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"login": "octo"})
	})

	mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		name := body["name"].(string)

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.repos[name] {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"message": "Repository creation failed.",
				"errors":  []map[string]any{{"resource": "Repository", "field": "name", "message": "name already exists on this account"}},
			})
			return
		}
		assert.Equal(t, true, body["auto_init"])
		f.repos[name] = true
		writeJSON(w, http.StatusCreated, map[string]any{
			"name":           name,
			"html_url":       "https://github.com/octo/" + name,
			"default_branch": "main",
		})
	})

	mux.HandleFunc("POST /repos/octo/{repo}/pages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.pagesCalls++
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"url": "https://octo.github.io/" + r.PathValue("repo")})
	})

	mux.HandleFunc("GET /repos/octo/{repo}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("repo")
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.repos[name] {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"name":           name,
			"html_url":       "https://github.com/octo/" + name,
			"default_branch": "main",
		})
	})

	mux.HandleFunc("GET /repos/octo/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		f.mu.Lock()
		content, ok := f.files[r.PathValue("path")]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"path":     r.PathValue("path"),
			"sha":      "sha-" + r.PathValue("path"),
			"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		})
	})

	mux.HandleFunc("PUT /repos/octo/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		decoded, err := base64.StdEncoding.DecodeString(body["content"].(string))
		require.NoError(t, err)

		f.mu.Lock()
		f.files[r.PathValue("path")] = string(decoded)
		f.lastPut = body
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"commit": map[string]any{"sha": "commit-" + r.PathValue("path")}})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return f, server
}

func newTestAdapter(t *testing.T, server *httptest.Server, owner string) *Adapter {
	t.Helper()
	cfg := DefaultConfig("test-token")
	cfg.BaseURL = server.URL
	cfg.Owner = owner
	a, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	return a
}

func TestNew_ResolvesOwner(t *testing.T) {
	f, server := newFakeGitHub(t)

	a := newTestAdapter(t, server, "")

	assert.Equal(t, "octo", a.Owner())
	assert.Equal(t, 1, f.userLookups)
	assert.Equal(t, "https://octo.github.io/llm-app-x", a.PublicURL("llm-app-x"))
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(context.Background(), Config{}, logger.NewNop())
	assert.Error(t, err)
}

func TestCreateContainer_AndCollision(t *testing.T) {
	f, server := newFakeGitHub(t)
	a := newTestAdapter(t, server, "octo")
	ctx := context.Background()

	c, err := a.CreateContainer(ctx, "llm-app-calc-1", "Calc")
	require.NoError(t, err)
	assert.Equal(t, "llm-app-calc-1", c.Name)
	assert.Equal(t, "main", c.DefaultBranch)
	assert.Equal(t, "https://github.com/octo/llm-app-calc-1", c.URL)
	assert.Equal(t, 1, f.pagesCalls)

	_, err = a.CreateContainer(ctx, "llm-app-calc-1", "Calc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrNameCollision))
}

func TestGetContainer_NotFound(t *testing.T) {
	_, server := newFakeGitHub(t)
	a := newTestAdapter(t, server, "octo")

	_, err := a.GetContainer(context.Background(), "missing")

	assert.True(t, errors.Is(err, entity.ErrContainerNotFound))
}

func TestFileUpsert(t *testing.T) {
	f, server := newFakeGitHub(t)
	a := newTestAdapter(t, server, "octo")
	ctx := context.Background()

	_, found, err := a.GetFile(ctx, "repo", "index.html", "main")
	require.NoError(t, err)
	assert.False(t, found)

	res, err := a.PutFile(ctx, "repo", output.PutFileRequest{Path: "index.html", Content: "<html>v1</html>", Branch: "main", Message: "Add file index.html"})
	require.NoError(t, err)
	assert.Equal(t, "commit-index.html", res.RevisionID)
	assert.NotContains(t, f.lastPut, "sha")

	file, found, err := a.GetFile(ctx, "repo", "index.html", "main")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "<html>v1</html>", file.Content)
	assert.Equal(t, "sha-index.html", file.Precondition)

	_, err = a.PutFile(ctx, "repo", output.PutFileRequest{Path: "index.html", Content: "<html>v2</html>", Branch: "main", Message: "Update file index.html", Precondition: file.Precondition})
	require.NoError(t, err)
	assert.Equal(t, "sha-index.html", f.lastPut["sha"])
	assert.Equal(t, "Update file index.html", f.lastPut["message"])
	assert.Equal(t, "main", f.lastPut["branch"])
	assert.Equal(t, "<html>v2</html>", f.files["index.html"])
}
