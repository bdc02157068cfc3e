package config

import (
	"errors"
	"fmt"

	"github.com/okian/trustscore/internal/domain/model"
	"github.com/okian/trustscore/internal/domain/registry"
	"github.com/okian/trustscore/pkg/logger"
)

// Validate checks c and returns every defect joined and wrapped in
// ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.WorkerCount < 1 {
		errs = append(errs, fmt.Errorf("worker_count must be positive, got %d", c.WorkerCount))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue_size must be positive, got %d", c.QueueSize))
	}
	if c.MetricTimeoutMS <= 0 || c.ClarityTimeoutMS <= 0 || c.RequestTimeoutMS <= 0 {
		errs = append(errs, errors.New("metric_timeout_ms, clarity_timeout_ms and request_timeout_ms must be positive"))
	}
	switch c.ClarityMode {
	case ClarityAuto, ClarityHeuristic, ClarityOff:
	case ClarityLLM:
		if c.LLMEndpoint == "" {
			errs = append(errs, errors.New("llm_endpoint is required when clarity_mode is llm"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown clarity_mode %q", c.ClarityMode))
	}
	if c.LLMMaxChars < 0 {
		errs = append(errs, errors.New("llm_max_chars must not be negative"))
	}
	if c.FetchRatePerSec <= 0 || c.FetchConcurrency < 1 {
		errs = append(errs, errors.New("fetch_rate_per_sec and fetch_concurrency must be positive"))
	}
	if c.BusFactorTopN < 2 {
		errs = append(errs, fmt.Errorf("bus_factor_top_n must be at least 2, got %d", c.BusFactorTopN))
	}
	if err := registry.ValidateWeights(c.Weights); err != nil {
		errs = append(errs, err)
	}
	for target, mb := range c.SizeCapsMB {
		if !knownTarget(target) {
			errs = append(errs, fmt.Errorf("size_caps_mb: unknown target %q", target))
			continue
		}
		if mb <= 0 {
			errs = append(errs, fmt.Errorf("size_caps_mb: %s must be positive", target))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func knownTarget(t string) bool {
	for _, known := range model.SizeTargets {
		if t == known {
			return true
		}
	}
	return false
}
