package service

import (
	"github.com/okian/trustscore/internal/adapters/fetch"
	"github.com/okian/trustscore/internal/domain/clarity"
	"github.com/okian/trustscore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEvaluator replaces the README clarity evaluator chosen by config.
func WithEvaluator(ev clarity.Evaluator) Option {
	return func(s *Service) { s.evaluator = ev }
}

// WithResolver replaces the registry resolver used for URL input.
func WithResolver(r *fetch.Resolver) Option {
	return func(s *Service) { s.resolver = r }
}
