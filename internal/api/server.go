package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/maildns/internal/api/handler"
	mw "github.com/edvin/maildns/internal/api/middleware"
	"github.com/edvin/maildns/internal/api/response"
)

// ReadyCheck reports whether a dependency is usable.
type ReadyCheck func(ctx context.Context) error

type Server struct {
	router  chi.Router
	logger  zerolog.Logger
	domains handler.MailDomainService
	apiKey  string
	checks  map[string]ReadyCheck
}

// NewServer wires the HTTP API. checks are run by /readyz, keyed by the name
// reported in its response.
func NewServer(logger zerolog.Logger, domains handler.MailDomainService, apiKey string, checks map[string]ReadyCheck) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		logger:  logger,
		domains: domains,
		apiKey:  apiKey,
		checks:  checks,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.apiKey))

		domain := handler.NewMailDomain(s.domains)
		r.Get("/domains", domain.List)
		r.Post("/domains", domain.Create)
		r.Get("/domains/{id}", domain.Get)
		r.Patch("/domains/{id}", domain.Update)
		r.Post("/domains/{id}/check", domain.Check)
		r.Get("/domains/{id}/dns", domain.DNS)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	results := map[string]string{}
	healthy := true

	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			healthy = false
		} else {
			results[name] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	response.WriteJSON(w, status, results)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
