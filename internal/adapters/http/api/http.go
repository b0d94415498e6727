// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/factboard/internal/domain/model"
	"github.com/okian/factboard/internal/domain/types"
	"github.com/okian/factboard/pkg/logger"
	"github.com/okian/factboard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultMaxUploadBytes int64 = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	UploadDependencies
	LeaderboardDependencies
	PredictionsDependencies
	HealthDependencies
	StatsProvider
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	uploadHandler      *UploadHandler
	leaderboardHandler *LeaderboardHandler
	predictionsHandler *PredictionsHandler

	maxUploadBytes int64
	logger         logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes caps request bodies on upload routes.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{maxUploadBytes: defaultMaxUploadBytes, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps)
	s.uploadHandler = NewUploadHandler(deps, s.maxUploadBytes, s.logger)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.logger)
	s.predictionsHandler = NewPredictionsHandler(deps, s.maxUploadBytes, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/api/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/api/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/api/upload-results", MetricsMiddleware(s.uploadHandler.HandleUploadResults, "upload_results"))
	mux.HandleFunc("/api/upload_predictions", MetricsMiddleware(s.predictionsHandler.HandleUploadPredictions, "upload_predictions"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// predictionsRequest is the body of POST /api/upload_predictions.
type predictionsRequest = []model.Prediction

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err, logs it and writes the error body.
func writeError(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error, fallback string) {
	p := classify(err, fallback)
	fields := []logger.Field{
		logger.Int("status", p.status),
		logger.String("code", p.code),
		logger.Error(err),
	}
	if p.status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", fields...)
	} else {
		log.Warn(ctx, "request rejected", fields...)
	}
	writeJSON(w, p.status, errorResponse{Code: p.code, Message: p.message, Details: details(err)})
}
