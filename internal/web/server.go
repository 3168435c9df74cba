package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conorfennell/thaiflash/internal/domain"
	"github.com/conorfennell/thaiflash/internal/sm2"
	"github.com/conorfennell/thaiflash/internal/trainer"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Trainer is the set of learner actions the server exposes.
type Trainer interface {
	View() trainer.View
	CreateProfile(name string) (domain.Profile, error)
	UseProfile(id string) error
	RenameProfile(id, name string) error
	DeleteProfile(id string) error
	UpdateSettings(s domain.Settings) error
	SelectAll() error
	ClearSelection() error
	ResetSRS() error
	StartSession() error
	Flip()
	Rate(q sm2.Quality) error
	ReplayMisses() bool
	ExitSession()
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	trainer   Trainer
	router    chi.Router
	templates *template.Template
	logger    *slog.Logger
}

// NewServer creates and configures a new server.
func NewServer(t Trainer, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		trainer:   t,
		router:    chi.NewRouter(),
		templates: tpl,
		logger:    logger.With("component", "web"),
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server. Every action is a form POST
// that redirects back to the page.
func (s *Server) routes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create sub-filesystem for static assets: %w", err)
	}

	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Get("/", s.handleIndex())
	r.Get("/health", s.handleHealth())

	r.Post("/profiles", s.handleCreateProfile())
	r.Route("/profiles/{id}", func(r chi.Router) {
		r.Post("/use", s.handleProfileAction(s.trainer.UseProfile))
		r.Post("/delete", s.handleProfileAction(s.trainer.DeleteProfile))
		r.Post("/rename", s.handleRenameProfile())
	})

	r.Post("/settings", s.handleSettings())
	r.Post("/selection/all", s.handleAction(s.trainer.SelectAll))
	r.Post("/selection/clear", s.handleAction(s.trainer.ClearSelection))
	r.Post("/srs/reset", s.handleAction(s.trainer.ResetSRS))

	r.Route("/session", func(r chi.Router) {
		r.Post("/start", s.handleAction(s.trainer.StartSession))
		r.Post("/flip", s.handleAction(func() error { s.trainer.Flip(); return nil }))
		r.Post("/rate", s.handleRate())
		r.Post("/replay", s.handleAction(func() error { s.trainer.ReplayMisses(); return nil }))
		r.Post("/exit", s.handleAction(func() error { s.trainer.ExitSession(); return nil }))
	})
	return nil
}

// handleIndex renders the whole trainer page.
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, "index", s.trainer.View())
	}
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			s.logger.Error("Failed to write health check response", "error", err)
		}
	}
}

func (s *Server) handleCreateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := s.trainer.CreateProfile(r.PostFormValue("name"))
		s.finish(w, r, err)
	}
}

func (s *Server) handleRenameProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.trainer.RenameProfile(chi.URLParam(r, "id"), r.PostFormValue("name"))
		s.finish(w, r, err)
	}
}

func (s *Server) handleProfileAction(action func(id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.finish(w, r, action(chi.URLParam(r, "id")))
	}
}

func (s *Server) handleAction(action func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.finish(w, r, action())
	}
}

// handleSettings replaces the active profile's settings with the submitted
// form. Unchecked boxes are absent from the form, so every field is written.
func (s *Server) handleSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		settings := domain.Settings{
			Categories:    r.PostForm["categories"],
			Shuffle:       r.PostForm.Get("shuffle") != "",
			SRSEnabled:    r.PostForm.Get("srs") != "",
			FrontFields:   r.PostForm["front"],
			BackFields:    r.PostForm["back"],
			BigFieldFront: r.PostForm.Get("bigFront"),
			BigFieldBack:  r.PostForm.Get("bigBack"),
		}
		s.finish(w, r, s.trainer.UpdateSettings(settings))
	}
}

func (s *Server) handleRate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := strconv.Atoi(r.PostFormValue("quality"))
		if err != nil {
			http.Error(w, "Invalid quality", http.StatusBadRequest)
			return
		}
		s.finish(w, r, s.trainer.Rate(sm2.Quality(q)))
	}
}

// finish maps an action's error to a status code, or redirects back to the
// page on success.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, trainer.ErrProfileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, trainer.ErrNoProfile):
		status = http.StatusConflict
	}
	s.logger.Info("Action rejected", "path", r.URL.Path, "status", status, "error", err)
	http.Error(w, err.Error(), status)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
