package preview

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vercelJSON = `{
  "rewrites": [
    {"source": "/", "destination": "/index.html"},
    {"source": "/category/tech", "destination": "/category-tech.html"},
    {"source": "/(.*)", "destination": "/index.html"}
  ]
}`

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":         "<h1>home</h1>",
		"category-tech.html": "<h1>tech</h1>",
		"robots.txt":         "User-agent: *\nAllow: /\n",
		"vercel.json":        vercelJSON,
		".prerender.lock":    "token 1",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestServer_Routing(t *testing.T) {
	s, err := NewServer(writeSite(t))
	require.NoError(t, err)
	h := s.Handler()

	tests := []struct {
		path string
		want string
	}{
		{"/", "<h1>home</h1>"},
		{"/category/tech", "<h1>tech</h1>"},
		{"/robots.txt", "User-agent: *\nAllow: /\n"},
		{"/does/not/exist", "<h1>home</h1>"},
		{"/.prerender.lock", "<h1>home</h1>"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			code, body := get(t, h, tt.path)
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, tt.want, body)
		})
	}
}

func TestServer_ReloadPicksUpNewRewrites(t *testing.T) {
	dir := writeSite(t)
	s, err := NewServer(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "category-travel.html"), []byte("<h1>travel</h1>"), 0o600))
	updated := `{"rewrites":[{"source":"/category/travel","destination":"/category-travel.html"},{"source":"/(.*)","destination":"/index.html"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vercel.json"), []byte(updated), 0o600))

	_, body := get(t, s.Handler(), "/category/travel")
	assert.Equal(t, "<h1>home</h1>", body)

	require.NoError(t, s.Reload())
	_, body = get(t, s.Handler(), "/category/travel")
	assert.Equal(t, "<h1>travel</h1>", body)
}

func TestNewServer_MissingDirectory(t *testing.T) {
	_, err := NewServer(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestShouldIgnoreEvent(t *testing.T) {
	assert.True(t, shouldIgnoreEvent("/tmp/.hidden.md"))
	assert.True(t, shouldIgnoreEvent("/tmp/#foo#"))
	assert.True(t, shouldIgnoreEvent("/tmp/foo.swp"))
	assert.True(t, shouldIgnoreEvent("/tmp/page.md~"))
	assert.False(t, shouldIgnoreEvent("/tmp/about.md"))
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	req, trigger := newDebouncer(20 * time.Millisecond)
	for range 5 {
		trigger()
	}
	select {
	case <-req:
	case <-time.After(time.Second):
		t.Fatal("debounced request never fired")
	}
	select {
	case <-req:
		t.Fatal("burst produced more than one request")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatch_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var rebuilds atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{dir}, func(context.Context) error {
			rebuilds.Add(1)
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "about.md"), []byte(time.Now().String()), 0o600)
		return rebuilds.Load() > 0
	}, 5*time.Second, 400*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
