// Package api provides the HTTP server for typerace: the badge catalog,
// session recording, achievement progress and the leaderboard.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/t-race/typerace/internal/app/engagement"
	"github.com/t-race/typerace/internal/domain"
	"github.com/t-race/typerace/internal/health"
	"github.com/t-race/typerace/internal/logger"
)

// Services are the application services the handlers call into.
type Services struct {
	Catalog       *engagement.Catalog
	Achievements  *engagement.AchievementService
	Stats         *engagement.StatService
	Sessions      *engagement.SessionService
	Progress      *engagement.ProgressService
	Notifications *engagement.NotificationService
	Profiles      *engagement.ProfileService
	Health        *health.Checker // nil reports a bare "ok"
}

// Options tune the HTTP surface.
type Options struct {
	Version        string
	CORSOrigins    []string
	RateLimitRPS   float64 // <= 0 disables rate limiting
	RateLimitBurst int
	RequestTimeout time.Duration
}

// Server is the typerace HTTP API server.
type Server struct {
	svc            Services
	opts           Options
	limiter        *ipLimiter
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(svc Services, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := &Server{svc: svc, opts: opts}
	if opts.RateLimitRPS > 0 {
		s.limiter = newIPLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	}
	return s
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))
	r.Use(corsMiddleware(s.opts.CORSOrigins))
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": s.opts.Version,
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", s.handleUpsertUser)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/{userID}", s.handleGetUser)
		r.Put("/{userID}/score", s.handleUpdateScore)
	})

	r.Route("/api/typing-stats", func(r chi.Router) {
		r.Post("/", s.handleRecordSession)
		r.Get("/{userID}", s.handleSessionHistory)
	})

	r.Route("/api/badges", func(r chi.Router) {
		r.Get("/", s.handleListBadges)
		r.Post("/evaluate", s.handleEvaluate)
		r.Get("/progress/{userID}", s.handleProgress)
		r.Post("/mark-viewed", s.handleMarkViewed)
		r.Get("/user-stat/{userID}", s.handleUserStat)
		r.Get("/unviewed/{userID}", s.handleUnviewed)
		r.Post("/unviewed/{userID}/ack", s.handleAcknowledge)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"message": msg,
			"type":    http.StatusText(status),
		},
	})
}

// writeErr maps a service error onto a status code and writes it.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).Msg("request failed")
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSample),
		errors.Is(err, domain.ErrInvalidUser),
		errors.Is(err, domain.ErrNoBadgesSpecified),
		errors.Is(err, domain.ErrUnknownBadge):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
