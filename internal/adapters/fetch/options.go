package fetch

import (
	"github.com/okian/trustscore/pkg/logger"
	"golang.org/x/time/rate"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithConcurrency bounds how many URL lines are resolved at once.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithGitHub enables code repository lookups.
func WithGitHub(g *GitHub) Option {
	return func(r *Resolver) { r.github = g }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewLimiter builds a limiter allowing perSec requests per second with a
// matching burst. A non-positive rate disables limiting.
func NewLimiter(perSec float64) *rate.Limiter {
	if perSec <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(perSec)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSec), burst)
}
