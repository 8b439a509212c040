package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AppHost-Network/host_runtime/internal/appversion"
	"github.com/AppHost-Network/host_runtime/internal/config"
	"github.com/AppHost-Network/host_runtime/internal/manifest"
	"github.com/AppHost-Network/host_runtime/internal/registry"
	"github.com/AppHost-Network/host_runtime/pkg/logger"
)

func newTestServer(t *testing.T, versions ...*appversion.AppVersion) *Server {
	t.Helper()
	reg := registry.New()
	for _, av := range versions {
		require.NoError(t, reg.Register(av))
	}
	cfg := config.ServerConfig{RateLimit: 1000, RateBurst: 1000}
	return New(reg, logger.NewDefault("httpapi-test"), cfg)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func guestbookVersion(t *testing.T, root string) *appversion.AppVersion {
	t.Helper()
	m := &manifest.Manifest{
		Application: "guestbook",
		Version:     "v1",
		Files:       []manifest.File{{Path: "index.html"}},
		Blobs:       []manifest.Blob{{Path: "__static__/logo.png"}},
	}
	av, err := appversion.NewBuilder().
		Key(appversion.VersionKey{AppID: "guestbook", VersionID: "v1"}).
		Manifest(m).
		RootDirectory(root).
		Build()
	require.NoError(t, err)
	return av
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListVersions(t *testing.T) {
	s := newTestServer(t, guestbookVersion(t, ""))

	rec := get(t, s, "/v1/versions")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []versionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "guestbook", out[0].App)
	assert.Equal(t, "v1", out[0].Version)
}

func TestGetVersion(t *testing.T) {
	s := newTestServer(t, guestbookVersion(t, ""))

	rec := get(t, s, "/v1/versions/guestbook/v1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, s, "/v1/versions/guestbook/v9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassifyPath(t *testing.T) {
	s := newTestServer(t, guestbookVersion(t, ""))

	rec := get(t, s, "/v1/versions/guestbook/v1/classify?path=index.html")
	require.Equal(t, http.StatusOK, rec.Code)

	var out classifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Resource)
	assert.False(t, out.Static)

	rec = get(t, s, "/v1/versions/guestbook/v1/classify?path=logo.png")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.False(t, out.Resource)
	assert.True(t, out.Static)

	rec = get(t, s, "/v1/versions/guestbook/v1/classify")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSourceContext(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "WEB-INF", "classes")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	props := "git.remote.origin.url=https://example/repo.git\ngit.commit.id=abc123\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "git.properties"), []byte(props), 0o644))

	s := newTestServer(t, guestbookVersion(t, root))

	rec := get(t, s, "/v1/versions/guestbook/v1/source-context")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"git":{"url":"https://example/repo.git","revisionId":"abc123"}}`, rec.Body.String())
}

func TestSourceContextAbsent(t *testing.T) {
	s := newTestServer(t, guestbookVersion(t, t.TempDir()))

	rec := get(t, s, "/v1/versions/guestbook/v1/source-context")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	reg := registry.New()
	s := New(reg, logger.NewDefault("httpapi-test"), config.ServerConfig{RateLimit: 1, RateBurst: 1})

	rec := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, s, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
