// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/okian/trustscore/internal/adapters/http/swagger"
	"github.com/okian/trustscore/internal/domain/model"
	"github.com/okian/trustscore/pkg/logger"
	"github.com/okian/trustscore/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultRequestTimeout = 60 * time.Second

// Scorer scores a single descriptor.
type Scorer interface {
	Score(ctx context.Context, d *model.RepositoryDescriptor) (model.ScoreRecord, error)
}

// Server wires HTTP routes for serve mode.
type Server struct {
	healthHandler *HealthHandler
	rateHandler   *RateHandler
	statsHandler  *StatsHandler

	stats          StatsProvider
	corsOrigins    []string
	requestTimeout time.Duration
	logger         logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(scorer Scorer, opts ...Option) *Server {
	s := &Server{
		requestTimeout: defaultRequestTimeout,
		logger:         logger.Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.rateHandler = NewRateHandler(scorer, s.logger)
	if s.stats != nil {
		s.statsHandler = NewStatsHandler(s.stats)
	}
	return s
}

// Router builds the chi router with middleware and every route.
func (s *Server) Router(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"Content-Length", requestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Post("/rate", MetricsMiddleware(s.rateHandler.HandleRate, "rate"))
	if s.statsHandler != nil {
		r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	swagger.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, RequestID: w.Header().Get(requestIDHeader)})
}
