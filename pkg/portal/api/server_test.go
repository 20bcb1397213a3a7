package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otymus27/portal-hrg/pkg/portal/api/auth"
	"github.com/otymus27/portal-hrg/pkg/portal/models"
	"github.com/otymus27/portal-hrg/pkg/portal/storage"
	"github.com/otymus27/portal-hrg/pkg/portal/store"
	"github.com/otymus27/portal-hrg/pkg/portal/tree"
)

const testSecret = "integration-test-secret-0123456789abcdef"

// newTestServer wires a full stack: in-memory catalog, temp-dir
// storage, tree engine and the HTTP router.
func newTestServer(t *testing.T) (*httptest.Server, *store.GORMStore) {
	t.Helper()

	catalog, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = catalog.Close() })

	root := t.TempDir()
	gw, err := storage.NewLocal(storage.DefaultConfig(root))
	require.NoError(t, err)

	engine := tree.New(catalog, gw, root)

	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: testSecret})
	require.NoError(t, err)

	cfg := APIConfig{}
	cfg.applyDefaults()
	router := NewRouter(cfg, engine, jwtService, catalog)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	_, err = catalog.EnsureAdminUser(context.Background(), "admin", "admin-pass-123")
	require.NoError(t, err)

	return srv, catalog
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(srv.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.NotEmpty(t, result.AccessToken)
	return result.AccessToken
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, srv.URL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/folders")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, err := http.Post(srv.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFolderLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	token := login(t, srv, "admin", "admin-pass-123")

	// Create a root folder
	resp := doJSON(t, srv, http.MethodPost, "/api/v1/folders", token, map[string]any{"name": "Reports"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	folder := decodeBody[models.Folder](t, resp)
	assert.Equal(t, "Reports", folder.Name)
	assert.Nil(t, folder.ParentID)

	// Duplicate name conflicts
	resp = doJSON(t, srv, http.MethodPost, "/api/v1/folders", token, map[string]any{"name": "Reports"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Create a subfolder
	resp = doJSON(t, srv, http.MethodPost, "/api/v1/folders", token, map[string]any{
		"name":      "2026",
		"parent_id": folder.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	child := decodeBody[models.Folder](t, resp)

	// Rename
	resp = doJSON(t, srv, http.MethodPatch, "/api/v1/folders/"+child.ID+"/rename", token, map[string]any{"name": "Archive"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	renamed := decodeBody[models.Folder](t, resp)
	assert.Equal(t, "Archive", renamed.Name)

	// Full tree shows both levels
	resp = doJSON(t, srv, http.MethodGet, "/api/v1/folders/tree", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	trees := decodeBody[[]models.FolderTree](t, resp)
	require.Len(t, trees, 1)
	require.Len(t, trees[0].Subfolders, 1)
	assert.Equal(t, "Archive", trees[0].Subfolders[0].Folder.Name)

	// Delete the subtree
	resp = doJSON(t, srv, http.MethodDelete, "/api/v1/folders/"+folder.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodGet, "/api/v1/folders/"+folder.ID+"/tree", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestFileUploadAndDownload(t *testing.T) {
	srv, _ := newTestServer(t)
	token := login(t, srv, "admin", "admin-pass-123")

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/folders", token, map[string]any{"name": "Docs"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	folder := decodeBody[models.Folder](t, resp)

	// Multipart upload
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello portal"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/folders/"+folder.ID+"/files", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	uploadResp, err := srv.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, uploadResp.StatusCode)
	file := decodeBody[models.File](t, uploadResp)
	assert.Equal(t, "notes.txt", file.Name)
	assert.Equal(t, int64(len("hello portal")), file.Size)

	// Download round trip
	resp = doJSON(t, srv, http.MethodGet, "/api/v1/files/"+file.ID+"/download", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "notes.txt")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello portal", string(data))

	// Paginated listing
	resp = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/folders/%s/files?page=1&page_size=10", folder.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodeBody[tree.FilePage](t, resp)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
}

func TestUserManagementRequiresAdmin(t *testing.T) {
	srv, _ := newTestServer(t)
	token := login(t, srv, "admin", "admin-pass-123")

	// Admin creates a basic user
	resp := doJSON(t, srv, http.MethodPost, "/api/v1/users", token, map[string]any{
		"username": "carol",
		"password": "carol-pass-123",
		"role":     "basic",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// The basic user cannot manage users
	carolToken := login(t, srv, "carol", "carol-pass-123")
	resp = doJSON(t, srv, http.MethodGet, "/api/v1/users", carolToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// But can see who they are
	resp = doJSON(t, srv, http.MethodGet, "/api/v1/auth/me", carolToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestPermissionDeniedWithoutACL(t *testing.T) {
	srv, _ := newTestServer(t)
	adminToken := login(t, srv, "admin", "admin-pass-123")

	// Admin creates a folder without granting anyone else access
	resp := doJSON(t, srv, http.MethodPost, "/api/v1/folders", adminToken, map[string]any{"name": "Private"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	folder := decodeBody[models.Folder](t, resp)

	resp = doJSON(t, srv, http.MethodPost, "/api/v1/users", adminToken, map[string]any{
		"username": "dave",
		"password": "dave-pass-1234",
		"role":     "manager",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	daveToken := login(t, srv, "dave", "dave-pass-1234")

	// Folder is invisible in dave's root listing
	resp = doJSON(t, srv, http.MethodGet, "/api/v1/folders", daveToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	roots := decodeBody[[]models.Folder](t, resp)
	assert.Empty(t, roots)

	// And mutations on it are rejected
	resp = doJSON(t, srv, http.MethodPatch, "/api/v1/folders/"+folder.ID+"/rename", daveToken, map[string]any{"name": "Mine"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}
