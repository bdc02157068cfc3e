package api

import (
	"time"

	"github.com/okian/trustscore/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins enables CORS for the given origins. No origins, no CORS.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithRequestTimeout bounds each request, including scoring.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithStatsProvider exposes GET /stats.
func WithStatsProvider(p StatsProvider) Option {
	return func(s *Server) { s.stats = p }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
