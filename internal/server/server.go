// Package server exposes the agent over HTTP: a chat endpoint driving the
// tool loop, a health probe and a usage summary.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/leofalp/webagent/internal/stats"
	"github.com/leofalp/webagent/patterns/react"
	"github.com/leofalp/webagent/pkg/logger"
)

// DefaultRequestTimeout caps one whole chat request, all tool rounds
// included.
const DefaultRequestTimeout = 120 * time.Second

// ConversationRunner turns one user message into a final reply. It is the
// seam between the HTTP layer and the tool loop.
type ConversationRunner interface {
	Run(ctx context.Context, userMessage string) (*react.Result, error)
}

// UsageRecorder receives per-request outcome samples and serves summaries.
// [stats.Store] is the production implementation.
type UsageRecorder interface {
	Record(sample stats.Sample) error
	Summary() (stats.Summary, error)
}

// Server is the HTTP front of the agent. Construct it with [New] and mount
// [Server.Handler].
type Server struct {
	runner          ConversationRunner
	usage           UsageRecorder
	log             *zap.Logger
	requestTimeout  time.Duration
	modelConfigured bool
	started         time.Time
}

// Option configures a [Server].
type Option func(*Server)

// WithRequestTimeout overrides [DefaultRequestTimeout]. Non-positive
// values are ignored.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithLogger sets the logger used for request and error records.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithModelConfigured reports on /health whether a model credential was
// provided at startup.
func WithModelConfigured(configured bool) Option {
	return func(s *Server) { s.modelConfigured = configured }
}

// New returns a [Server] that answers chat requests through runner and
// records outcomes in usage.
func New(runner ConversationRunner, usage UsageRecorder, opts ...Option) *Server {
	s := &Server{
		runner:         runner,
		usage:          usage,
		requestTimeout: DefaultRequestTimeout,
		started:        time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("server")
	}
	return s
}

// Handler builds the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Get("/chat", s.handleChatHint)
	r.Get("/api/summary", s.handleSummary)

	return r
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.statusCode),
			zap.Int("bytes", rw.bytes),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		}
		switch {
		case rw.statusCode >= 500:
			s.log.Error("request", fields...)
		case rw.statusCode >= 400:
			s.log.Warn("request", fields...)
		default:
			s.log.Info("request", fields...)
		}
	})
}
