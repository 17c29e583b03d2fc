// Package preview serves a generated output directory locally the way the
// hosting platform would: vercel.json rewrites first, then static files, then the
// single-page-app fallback to index.html.
package preview

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/prerender/internal/artifacts"
	"git.home.luguber.info/inful/prerender/internal/logfields"
)

// DefaultAddr is the preview listen address.
const DefaultAddr = ":4173"

const indexFile = "index.html"

type vercelConfig struct {
	Rewrites []struct {
		Source      string `json:"source"`
		Destination string `json:"destination"`
	} `json:"rewrites"`
}

// Server serves one output directory.
type Server struct {
	dir      string
	rewrites atomic.Pointer[map[string]string]
	router   chi.Router
}

// NewServer creates a Server for dir and loads its rewrites.
func NewServer(dir string) (*Server, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve preview directory: %w", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("preview directory %s does not exist; run prebuild first", abs)
	}
	s := &Server{dir: abs}
	if err := s.Reload(); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Get("/*", s.serve)
	r.Head("/*", s.serve)
	s.router = r
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Reload re-reads vercel.json. A missing file leaves only static serving and
// the fallback.
func (s *Server) Reload() error {
	routes := map[string]string{}
	data, err := os.ReadFile(filepath.Join(s.dir, artifacts.Vercel))
	switch {
	case stderrors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read rewrites: %w", err)
	default:
		var vc vercelConfig
		if err := json.Unmarshal(data, &vc); err != nil {
			return fmt.Errorf("parse rewrites: %w", err)
		}
		for _, rw := range vc.Rewrites {
			if strings.ContainsAny(rw.Source, "(*:") {
				continue // the catch-all is applied as the fallback
			}
			routes[rw.Source] = strings.TrimPrefix(rw.Destination, "/")
		}
	}
	s.rewrites.Store(&routes)
	return nil
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)

	if file, ok := (*s.rewrites.Load())[clean]; ok {
		s.serveFile(w, r, file)
		return
	}
	if rel := strings.TrimPrefix(clean, "/"); rel != "" && !hidden(rel) {
		if info, err := os.Stat(filepath.Join(s.dir, filepath.FromSlash(rel))); err == nil && info.Mode().IsRegular() {
			s.serveFile(w, r, rel)
			return
		}
	}
	s.serveFile(w, r, indexFile)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, rel string) {
	full := filepath.Join(s.dir, filepath.FromSlash(rel))
	if _, err := os.Stat(full); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, full)
}

func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		t0 := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("Preview request",
			logfields.Path(r.URL.Path),
			slog.Int("status", ww.Status()),
			logfields.DurationMS(float64(time.Since(t0).Microseconds())/1000))
	})
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening", slog.String("addr", addr), logfields.Path(s.dir))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	slog.Info("Shutting down preview server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
