// Package server exposes the registry, content resolution and previews over
// HTTP.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blockreg-labs/blockreg/internal/content"
	"github.com/blockreg-labs/blockreg/internal/diag"
	"github.com/blockreg-labs/blockreg/internal/preview"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// maxBodyBytes bounds explicit content payloads.
const maxBodyBytes = 1 << 20

// Options configure a Server.
type Options struct {
	Logger *slog.Logger
	// Registry receives the server's metrics. Nil means a private registry.
	Registry *prometheus.Registry
}

// Server serves the current snapshot. Snapshots are replaced atomically.
type Server struct {
	snap    atomic.Pointer[Snapshot]
	logger  *slog.Logger
	metrics *metrics
	gather  prometheus.Gatherer
	router  chi.Router
}

// New returns a server serving snap.
func New(snap *Snapshot, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{logger: logger, metrics: newMetrics(reg), gather: reg}
	s.Swap(snap)
	s.router = s.routes()
	return s
}

// Swap installs a new snapshot. In-flight requests finish on the old one.
func (s *Server) Swap(snap *Snapshot) {
	s.snap.Store(snap)
	s.metrics.swaps.Inc()
	s.metrics.blocks.Set(float64(len(snap.Artifacts.Manifest.Blocks)))
}

// Snapshot returns the snapshot currently served.
func (s *Server) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))

	r.Get("/", s.handleCatalog)
	r.Get("/registry.json", s.handleManifest)
	r.Get("/registry/{blockName}.json", s.handleEntry)
	r.Get("/resolve/{blockName}", s.handleResolve)
	r.Get("/preview/{blockName}", s.handlePreview)
	r.Post("/preview/{blockName}", s.handlePreview)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, diag.CodeNotFound, "no route for "+r.URL.Path)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	page, err := s.Snapshot().Catalog()
	if err != nil {
		s.logger.Error("rendering catalog", "err", err)
		writeError(w, http.StatusInternalServerError, diag.CodeRenderError, "catalog unavailable")
		return
	}
	w.Header().Set("Content-Type", preview.ContentType)
	_, _ = w.Write(page)
}

func (s *Server) handleManifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot().Artifacts.Manifest)
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "blockName")
	b, ok := s.Snapshot().Artifacts.PublicBlock(name)
	if !ok {
		writeError(w, http.StatusNotFound, diag.CodeNotFound, "block "+strconv.Quote(name)+" not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	resolved, err := snap.Resolver.Resolve(r.Context(), chi.URLParam(r, "blockName"), nil)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.countWarnings(resolved.Warnings)
	writeJSON(w, http.StatusOK, resolved)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	name := chi.URLParam(r, "blockName")
	thumbnail, _ := strconv.ParseBool(r.URL.Query().Get("thumbnail"))
	mode := "full"
	if thumbnail {
		mode = "thumbnail"
	}

	var explicit *content.Content
	if r.Method == http.MethodPost {
		explicit = &content.Content{}
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(explicit); err != nil {
			writeError(w, http.StatusBadRequest, diag.CodeInvalidInput, "invalid content body: "+err.Error())
			return
		}
	}

	var resolved *content.Resolved
	if !thumbnail {
		var err error
		resolved, err = snap.Resolver.Resolve(r.Context(), name, explicit)
		if err != nil {
			s.metrics.renders.WithLabelValues(mode, string(diag.CodeNotFound)).Inc()
			s.writeFailure(w, err)
			return
		}
		s.countWarnings(resolved.Warnings)
	}

	art, err := snap.Preview.Render(r.Context(), name, resolved, preview.Options{Thumbnail: thumbnail})
	if err != nil {
		var pe *preview.Error
		code := diag.CodeRenderError
		if errors.As(err, &pe) {
			code = pe.Code
		}
		s.metrics.renders.WithLabelValues(mode, string(code)).Inc()
		s.writeFailure(w, err)
		return
	}
	s.metrics.renders.WithLabelValues(mode, "OK").Inc()

	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(art.Body)
}

func (s *Server) countWarnings(ws diag.Warnings) {
	for _, warn := range ws {
		s.metrics.storeWarnings.WithLabelValues(string(warn.Code)).Inc()
	}
}

// writeFailure maps resolver and preview errors to status codes.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var nf *content.NotFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, diag.CodeNotFound, nf.Error())
		return
	}
	var pe *preview.Error
	if errors.As(err, &pe) {
		status := http.StatusInternalServerError
		if pe.Code == diag.CodeNotFound {
			status = http.StatusNotFound
		} else {
			s.logger.Error("preview failed", "block", pe.Block, "code", pe.Code, "err", err)
		}
		writeError(w, status, pe.Code, pe.Error())
		return
	}
	s.logger.Error("request failed", "err", err)
	writeError(w, http.StatusInternalServerError, diag.CodeRenderError, err.Error())
}

type errorBody struct {
	Error struct {
		Code    diag.Code `json:"code"`
		Message string    `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code diag.Code, msg string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = msg
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
