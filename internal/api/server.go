package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/jeancds29/gutenberg-back/internal/config"
	"github.com/jeancds29/gutenberg-back/internal/library"
	"github.com/jeancds29/gutenberg-back/internal/metrics"
	"github.com/jeancds29/gutenberg-back/internal/telemetry"
)

// Library is the slice of library.Service the handlers use.
type Library interface {
	ListBooks(ctx context.Context) ([]library.Book, error)
	GetBook(ctx context.Context, catalogID string) (library.Book, error)
	Analyze(ctx context.Context, catalogID string, kind library.Kind) (library.Analysis, error)
	ListAnalyses(ctx context.Context, catalogID string) ([]library.Analysis, error)
}

// Pinger reports store connectivity for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the library service.
type Server struct {
	router chi.Router
	lib    Library
	store  Pinger
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(lib Library, store Pinger, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		lib:    lib,
		store:  store,
		logger: logger.Named("api"),
	}

	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	origins := cfg.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(telemetry.Middleware(otel.GetTracerProvider()))
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         cfg.CORS.MaxAge,
	}))
	r.Use(timeoutMiddleware(timeout))

	r.Get("/", s.root)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.listBooks)
			r.Get("/{book_id}", s.getBook)
			r.Get("/{book_id}/analyses", s.listAnalyses)
		})
		r.Route("/analysis", func(r chi.Router) {
			if cfg.RateLimit.Enabled {
				r.Use(httprate.Limit(
					cfg.RateLimit.AnalysisRequests,
					cfg.RateLimit.Window,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
						writeError(w, http.StatusTooManyRequests, "too many analysis requests, slow down")
					}),
				))
			}
			r.Post("/", s.analyzeFromBody)
			for _, kind := range library.Kinds() {
				r.Post("/"+string(kind), s.analyzeKind(kind))
			}
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
