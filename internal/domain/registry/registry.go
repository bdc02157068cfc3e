// Package registry holds the fixed, ordered set of metrics the scorer
// computes, each bound to an extractor and a weight.
package registry

import (
	"fmt"
	"sort"

	"github.com/okian/trustscore/internal/domain/clarity"
	"github.com/okian/trustscore/internal/domain/extract"
)

// Metric names in registry order. The order is part of the output format.
const (
	PerformanceClaims = "performance_claims"
	License           = "license"
	RampUpTime        = "ramp_up_time"
	BusFactor         = "bus_factor"
	CodeQuality       = "code_quality"
	DatasetAndCode    = "dataset_and_code_score"
	DatasetQuality    = "dataset_quality"
	SizeScore         = "size_score"
)

// Names returns every metric name in registry order.
func Names() []string {
	return []string{
		PerformanceClaims, License, RampUpTime, BusFactor,
		CodeQuality, DatasetAndCode, DatasetQuality, SizeScore,
	}
}

// IsMetric reports whether name is a registered metric.
func IsMetric(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Entry binds a metric to its extractor and weight.
type Entry struct {
	Name    string
	Weight  float64
	Extract extract.Func
}

// Normalize clamps r into [0,1]. Multi-target metrics are clamped per target
// and reduced to their mean.
func (e Entry) Normalize(r extract.Raw) (float64, map[string]float64) {
	if r.Targets == nil {
		return extract.Clamp01(r.Value), nil
	}
	if len(r.Targets) == 0 {
		return 0, map[string]float64{}
	}
	keys := make([]string, 0, len(r.Targets))
	for k := range r.Targets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	targets := make(map[string]float64, len(keys))
	sum := 0.0
	for _, k := range keys {
		v := extract.Clamp01(r.Targets[k])
		targets[k] = v
		sum += v
	}
	return sum / float64(len(keys)), targets
}

// Option configures the extractors built by New.
type Option func(*settings)

type settings struct {
	license    extract.LicensePolicy
	topN       int
	sizeCaps   extract.SizeCaps
	evaluator  clarity.Evaluator
	overridden map[string]extract.Func
}

// WithLicensePolicy sets the allow and deny lists of the license metric.
func WithLicensePolicy(p extract.LicensePolicy) Option {
	return func(s *settings) { s.license = p }
}

// WithBusFactorTopN sets how many contributors the bus factor considers.
func WithBusFactorTopN(n int) Option {
	return func(s *settings) {
		if n > 1 {
			s.topN = n
		}
	}
}

// WithSizeCaps overrides per-target size budgets in MB.
func WithSizeCaps(caps extract.SizeCaps) Option {
	return func(s *settings) { s.sizeCaps = caps }
}

// WithEvaluator sets the README clarity evaluator used by ramp_up_time.
func WithEvaluator(ev clarity.Evaluator) Option {
	return func(s *settings) { s.evaluator = ev }
}

// WithExtractor replaces the extractor of a metric.
func WithExtractor(name string, f extract.Func) Option {
	return func(s *settings) {
		if s.overridden == nil {
			s.overridden = map[string]extract.Func{}
		}
		s.overridden[name] = f
	}
}

// Registry is the ordered metric set. It is read-only after New.
type Registry struct {
	entries []Entry
	weights Weights
}

// New binds every metric to its extractor and weight.
func New(weights Weights, opts ...Option) (*Registry, error) {
	s := &settings{
		license:   extract.NewLicensePolicy(nil, nil),
		topN:      extract.DefaultBusFactorTopN,
		sizeCaps:  extract.DefaultSizeCaps(),
		evaluator: clarity.Heuristic{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if weights.byName == nil {
		return nil, fmt.Errorf("%w: empty weight table", ErrInvalidWeights)
	}

	funcs := map[string]extract.Func{
		PerformanceClaims: extract.PerformanceClaims,
		License:           extract.License(s.license),
		RampUpTime:        extract.RampUp(s.evaluator),
		BusFactor:         extract.BusFactor(s.topN),
		CodeQuality:       extract.CodeQuality,
		DatasetAndCode:    extract.DatasetAndCode,
		DatasetQuality:    extract.DatasetQuality,
		SizeScore:         extract.Size(s.sizeCaps),
	}
	for name, f := range s.overridden {
		if !IsMetric(name) {
			return nil, fmt.Errorf("%w: unknown metric %s", ErrMissingExtractor, name)
		}
		funcs[name] = f
	}

	entries := make([]Entry, 0, len(funcs))
	for _, name := range Names() {
		f := funcs[name]
		if f == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingExtractor, name)
		}
		entries = append(entries, Entry{Name: name, Weight: weights.Of(name), Extract: f})
	}
	return &Registry{entries: entries, weights: weights}, nil
}

// Entries returns the metrics in registry order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Weights returns the validated weight table.
func (r *Registry) Weights() Weights {
	return r.weights
}
