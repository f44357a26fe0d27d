// Package api exposes the HTTP interface for the review resolver.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexmaslar/riff-plugin-editorial/internal/config"
	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
	"github.com/alexmaslar/riff-plugin-editorial/internal/metrics"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source"
)

const maxBodyBytes = 64 << 10

// Service resolves reviews. *source.Service implements it.
type Service interface {
	Sources() []string
	Health(ctx context.Context, name string) (string, error)
	Reviews(ctx context.Context, name string, input editorial.Input) (editorial.Result, error)
	AllReviews(ctx context.Context, input editorial.Input) editorial.Result
}

// ReadinessChecker reports whether downstream dependencies are usable.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// IDGenerator produces request IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Server wires HTTP handlers to the review service.
type Server struct {
	router  chi.Router
	service Service
	ready   ReadinessChecker
	idGen   IDGenerator
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	service Service,
	ready ReadinessChecker,
	idGen IDGenerator,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: service,
		ready:   ready,
		idGen:   idGen,
		logger:  logger.Named("api"),
	}
	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(timeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Get("/sources", s.listSources)
		r.Route("/sources/{source}", func(r chi.Router) {
			r.Get("/health", s.sourceHealth)
			r.Post("/reviews", s.sourceReviews)
		})
		r.Post("/reviews", s.allReviews)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready.Ready(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			s.writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) listSources(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"sources": s.service.Sources()})
}

func (s *Server) sourceHealth(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Health(r.Context(), chi.URLParam(r, "source"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(status)); err != nil {
		s.logger.Error("write health failed", zap.Error(err))
	}
}

func (s *Server) sourceReviews(w http.ResponseWriter, r *http.Request) {
	input, err := decodeInput(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.service.Reviews(r.Context(), chi.URLParam(r, "source"), input)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) allReviews(w http.ResponseWriter, r *http.Request) {
	input, err := decodeInput(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.service.AllReviews(r.Context(), input))
}

type reviewsRequest struct {
	Title  *string `json:"title"`
	Artist *string `json:"artist"`
	Year   *int    `json:"year"`
}

// decodeInput parses the request envelope. Title and artist must be present;
// either may be empty.
func decodeInput(w http.ResponseWriter, r *http.Request) (editorial.Input, error) {
	var req reviewsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return editorial.Input{}, errors.New("invalid JSON")
	}
	if req.Title == nil {
		return editorial.Input{}, errors.New("title required")
	}
	if req.Artist == nil {
		return editorial.Input{}, errors.New("artist required")
	}
	return editorial.Input{Title: *req.Title, Artist: *req.Artist, Year: req.Year}, nil
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, source.ErrUnknownSource) {
		s.writeError(w, http.StatusNotFound, "source not found")
		return
	}
	s.logger.Error("request failed", zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "internal server error")
}

type requestIDKey struct{}

// RequestID returns the ID assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = s.newRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) newRequestID() string {
	if s.idGen != nil {
		if id, err := s.idGen.NewID(); err == nil {
			return id
		}
	}
	return uuid.NewString()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					zap.String("request_id", RequestID(r.Context())),
					zap.Any("error", rec),
				)
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "unauthorized"}, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, payload, s.logger)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}
