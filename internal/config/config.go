// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - Flat snake_case koanf keys, mirrored by TRUSTSCORE_* env vars.
// - New returns a Config populated with defaults.
// - Validate reports every defect wrapped in ErrInvalidConfig.
package config

import (
	"runtime"
	"time"

	"github.com/okian/trustscore/internal/domain/extract"
	"github.com/okian/trustscore/internal/domain/registry"
)

// Clarity evaluator modes.
const (
	ClarityAuto      = "auto"
	ClarityLLM       = "llm"
	ClarityHeuristic = "heuristic"
	ClarityOff       = "off"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error, silent or 0/1/2.
	LogLevel string `koanf:"log_level"`

	// LogFile appends logs to a file instead of stderr.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address of serve mode, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CORSAllowedOrigins enables CORS on serve mode for these origins.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// RequestTimeoutMS bounds one HTTP request in serve mode.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// OrderedOutput emits records in input order instead of completion order.
	OrderedOutput bool `koanf:"ordered_output"`

	// ParallelMetrics computes the metrics of one record concurrently.
	ParallelMetrics bool `koanf:"parallel_metrics"`

	MetricTimeoutMS  int `koanf:"metric_timeout_ms"`
	ClarityTimeoutMS int `koanf:"clarity_timeout_ms"`

	// ClarityMode selects the README evaluator: auto, llm, heuristic or off.
	// auto uses the LLM when an API key is configured.
	ClarityMode string `koanf:"clarity_mode"`

	LLMEndpoint string `koanf:"llm_endpoint"`
	LLMModel    string `koanf:"llm_model"`
	LLMAPIKey   string `koanf:"llm_api_key"`
	LLMMaxChars int    `koanf:"llm_max_chars"`

	GitHubToken string `koanf:"github_token"`
	HFEndpoint  string `koanf:"hf_endpoint"`
	HFToken     string `koanf:"hf_token"`

	// FetchRatePerSec caps requests per second to each registry API.
	FetchRatePerSec  float64 `koanf:"fetch_rate_per_sec"`
	FetchConcurrency int     `koanf:"fetch_concurrency"`

	BusFactorTopN int `koanf:"bus_factor_top_n"`

	// Weights maps metric names to their share of the net score.
	Weights map[string]float64 `koanf:"weights"`

	LicenseCompatible   []string `koanf:"license_compatible"`
	LicenseIncompatible []string `koanf:"license_incompatible"`

	// SizeCapsMB maps deployment targets to their model size budget.
	SizeCapsMB map[string]float64 `koanf:"size_caps_mb"`
}

// New creates a Config populated with defaults.
func New() *Config {
	caps := map[string]float64{}
	for k, v := range extract.DefaultSizeCaps() {
		caps[k] = v
	}
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		RequestTimeoutMS:    60_000,
		WorkerCount:         runtime.NumCPU(),
		QueueSize:           1024,
		MetricTimeoutMS:     5_000,
		ClarityTimeoutMS:    30_000,
		ClarityMode:         ClarityAuto,
		LLMEndpoint:         "https://api.openai.com/v1/chat/completions",
		LLMModel:            "gpt-4o-mini",
		LLMMaxChars:         4000,
		HFEndpoint:          "https://huggingface.co",
		FetchRatePerSec:     10,
		FetchConcurrency:    4,
		BusFactorTopN:       extract.DefaultBusFactorTopN,
		Weights:             registry.DefaultWeights(),
		LicenseCompatible:   extract.DefaultCompatibleLicenses(),
		LicenseIncompatible: extract.DefaultIncompatibleLicenses(),
		SizeCapsMB:          caps,
	}
}

// MetricTimeout is the per-metric deadline.
func (c *Config) MetricTimeout() time.Duration {
	return time.Duration(c.MetricTimeoutMS) * time.Millisecond
}

// RequestTimeout is the serve mode per-request deadline.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// ClarityTimeout is the deadline of the ramp_up_time metric.
func (c *Config) ClarityTimeout() time.Duration {
	return time.Duration(c.ClarityTimeoutMS) * time.Millisecond
}

// EffectiveClarityMode resolves auto to llm or heuristic.
func (c *Config) EffectiveClarityMode() string {
	if c.ClarityMode != ClarityAuto {
		return c.ClarityMode
	}
	if c.LLMAPIKey != "" {
		return ClarityLLM
	}
	return ClarityHeuristic
}
