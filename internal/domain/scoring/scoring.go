// Package scoring runs the registered metrics against a repository
// descriptor and assembles the score record.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/trustscore/internal/domain/extract"
	"github.com/okian/trustscore/internal/domain/model"
	"github.com/okian/trustscore/internal/domain/registry"
	"github.com/okian/trustscore/pkg/logger"
	"github.com/okian/trustscore/pkg/metrics"
)

// Failure reasons used as metric labels.
const (
	reasonError   = "error"
	reasonTimeout = "timeout"
	reasonPanic   = "panic"
)

// Scorer turns a descriptor into a score record.
type Scorer interface {
	// Score computes a record, honoring ctx for cancellation.
	Score(ctx context.Context, d *model.RepositoryDescriptor) (model.ScoreRecord, error)
}

// Engine implements Scorer over a metric registry. A failing metric is
// recorded as 0 and never affects the others.
type Engine struct {
	reg            *registry.Registry
	log            logger.Logger
	metricTimeout  time.Duration
	clarityTimeout time.Duration
	parallel       bool
}

// NewEngine creates a scoring engine for reg.
func NewEngine(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		reg:            reg,
		log:            logger.Named("scoring"),
		metricTimeout:  defaultMetricTimeout,
		clarityTimeout: defaultClarityTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes every metric for d and the weighted net score.
func (e *Engine) Score(ctx context.Context, d *model.RepositoryDescriptor) (model.ScoreRecord, error) {
	if d == nil {
		return model.ScoreRecord{}, ErrNilDescriptor
	}
	if err := ctx.Err(); err != nil {
		return model.ScoreRecord{}, fmt.Errorf("score %s: %w", d.DisplayName(), err)
	}

	entries := e.reg.Entries()
	results := make([]model.MetricResult, len(entries))
	if e.parallel {
		var wg sync.WaitGroup
		for i := range entries {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = e.runMetric(ctx, entries[i], d)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range entries {
			results[i] = e.runMetric(ctx, entries[i], d)
		}
	}

	net, latency := Aggregate(e.reg.Weights(), results)
	metrics.RecordRepositoryScored(net, metrics.Millis(latency))

	rec := model.ScoreRecord{
		Name:            d.DisplayName(),
		Category:        d.Category(),
		Metrics:         results,
		NetScore:        net,
		NetScoreLatency: latency,
	}
	e.log.Debug(ctx, "scored repository",
		logger.String("name", rec.Name),
		logger.Float64("net_score", net),
	)
	return rec, nil
}

func (e *Engine) runMetric(ctx context.Context, entry registry.Entry, d *model.RepositoryDescriptor) model.MetricResult {
	start := time.Now()
	mctx, cancel := context.WithTimeout(ctx, e.timeoutFor(entry.Name))
	defer cancel()

	raw, err := invoke(mctx, entry, d)
	res := model.MetricResult{Name: entry.Name, Latency: time.Since(start)}
	metrics.RecordMetricLatency(entry.Name, metrics.Millis(res.Latency))

	if err != nil {
		reason := reasonError
		switch {
		case errors.Is(err, ErrMetricTimeout):
			reason = reasonTimeout
		case errors.Is(err, ErrExtractorPanic):
			reason = reasonPanic
		}
		metrics.RecordMetricFailure(entry.Name, reason)
		e.log.Warn(ctx, "metric failed; scoring as 0",
			logger.String("metric", entry.Name),
			logger.String("name", d.DisplayName()),
			logger.String("reason", reason),
			logger.Error(err),
		)
		res.Failed = true
		res.Err = err.Error()
		return res
	}

	res.Raw = raw.Value
	res.Value, res.Targets = entry.Normalize(raw)
	return res
}

func (e *Engine) timeoutFor(name string) time.Duration {
	if name == registry.RampUpTime {
		return e.clarityTimeout
	}
	return e.metricTimeout
}

type outcome struct {
	raw extract.Raw
	err error
}

// invoke runs the extractor on its own goroutine so a deadline is enforced
// even when the extractor ignores ctx.
func invoke(ctx context.Context, entry registry.Entry, d *model.RepositoryDescriptor) (extract.Raw, error) {
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrExtractorPanic, p)}
			}
		}()
		raw, err := entry.Extract(ctx, d)
		done <- outcome{raw: raw, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil && ctx.Err() != nil && errors.Is(o.err, context.DeadlineExceeded) {
			return extract.Raw{}, fmt.Errorf("%w: %w", ErrMetricTimeout, o.err)
		}
		return o.raw, o.err
	case <-ctx.Done():
		return extract.Raw{}, fmt.Errorf("%w: %w", ErrMetricTimeout, ctx.Err())
	}
}
