package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/acm19/jpegtune/internal/compression"
	"github.com/acm19/jpegtune/internal/library"
	"github.com/acm19/jpegtune/internal/logger"
	"github.com/acm19/jpegtune/internal/picker"
	"github.com/acm19/jpegtune/internal/shell"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// MaxUploadSize limits POST /source bodies.
const MaxUploadSize = 32 << 20

// Server exposes a Shell over HTTP.
type Server struct {
	router chi.Router
	shell  *shell.Shell
	codec  compression.Codec
}

// New returns the HTTP server for sh. The shell's Run loop must be running.
func New(sh *shell.Shell) *Server {
	s := Server{
		router: chi.NewRouter(),
		shell:  sh,
		codec:  compression.NewCodec(),
	}
	s.init()
	return &s
}

func (s *Server) init() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)

	s.router.Get("/state", s.showState)
	s.router.Post("/source", s.pickSource)
	s.router.Put("/quality", s.setQuality)
	s.router.Get("/preview/{Kind}.jpg", s.showPreview)
	s.router.Post("/save", s.save)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("Handled request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start))
	})
}

func (s *Server) showState(w http.ResponseWriter, r *http.Request) {
	vm, err := s.shell.View(r.Context())
	if err != nil {
		Error(w, r, http.StatusServiceUnavailable, err)
		return
	}
	JSON(w, r, http.StatusOK, vm)
}

func (s *Server) pickSource(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadSize))
	if err != nil {
		Error(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("read upload: %w", err))
		return
	}

	name := r.Header.Get("X-Filename")
	if name == "" {
		name = "upload"
	}

	// An empty body is a cancelled pick.
	var src picker.Source
	if len(data) > 0 {
		src = picker.BytesSource(name, data)
	}

	picked, err := s.shell.Pick(r.Context(), src)
	if err != nil {
		Error(w, r, http.StatusServiceUnavailable, err)
		return
	}

	vm, err := s.shell.View(r.Context())
	if err != nil {
		Error(w, r, http.StatusServiceUnavailable, err)
		return
	}

	JSON(w, r, http.StatusOK, struct {
		Picked bool `json:"picked"`
		shell.ViewModel
	}{Picked: picked, ViewModel: vm})
}

func (s *Server) setQuality(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quality *float64 `json:"quality"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		Error(w, r, http.StatusBadRequest, Friendly(err, "Invalid request body."))
		return
	}
	if req.Quality == nil {
		Error(w, r, http.StatusBadRequest, Friendly(nil, "Missing quality."))
		return
	}

	if err := s.shell.SetQuality(r.Context(), compression.Quality(*req.Quality)); err != nil {
		Error(w, r, http.StatusServiceUnavailable, err)
		return
	}

	s.showState(w, r)
}

func (s *Server) showPreview(w http.ResponseWriter, r *http.Request) {
	vm, err := s.shell.View(r.Context())
	if err != nil {
		Error(w, r, http.StatusServiceUnavailable, err)
		return
	}

	var preview *shell.Preview
	switch kind := chi.URLParam(r, "Kind"); kind {
	case "source":
		preview = vm.Source
	case "compressed":
		preview = vm.Compressed
	default:
		Error(w, r, http.StatusNotFound, Friendly(nil, "Unknown preview %q.", kind))
		return
	}

	if preview == nil || preview.Image == nil {
		Error(w, r, http.StatusNotFound, Friendly(nil, "No preview available."))
		return
	}

	data, err := s.codec.Encode(compression.NewBitmap(preview.Image), compression.MaxQuality)
	if err != nil {
		Error(w, r, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Debug("Failed to write preview", "error", err)
	}
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	asset, err := s.shell.Save(r.Context())
	if err != nil {
		var saveErr *library.SaveError
		switch {
		case errors.Is(err, shell.ErrNothingToSave):
			Error(w, r, http.StatusConflict, Friendly(err, "Nothing to save yet."))
		case errors.As(err, &saveErr):
			Error(w, r, http.StatusBadGateway, Friendly(err, "Could not save the image."))
		default:
			Error(w, r, http.StatusServiceUnavailable, err)
		}
		return
	}

	JSON(w, r, http.StatusCreated, map[string]any{
		"id":           asset.ID,
		"location":     asset.Location,
		"size":         asset.Size,
		"savedAt":      asset.SavedAt,
		"deduplicated": asset.Deduplicated,
	})
}
