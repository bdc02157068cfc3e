package scoring

import (
	"time"

	"github.com/okian/trustscore/pkg/logger"
)

// Default engine configuration constants.
const (
	defaultMetricTimeout  = 5 * time.Second
	defaultClarityTimeout = 30 * time.Second
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the logger used for metric failures.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetricTimeout bounds each metric except ramp_up_time.
func WithMetricTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.metricTimeout = d
		}
	}
}

// WithClarityTimeout bounds ramp_up_time, which waits on the clarity evaluator.
func WithClarityTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.clarityTimeout = d
		}
	}
}

// WithParallelMetrics runs the metrics of one record concurrently.
func WithParallelMetrics(enabled bool) Option {
	return func(e *Engine) {
		e.parallel = enabled
	}
}
