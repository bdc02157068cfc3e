// Package service wires configuration, the scoring engine and the batch
// pipeline together. It backs both the score and serve commands.
package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/trustscore/internal/adapters/fetch"
	"github.com/okian/trustscore/internal/adapters/llm"
	"github.com/okian/trustscore/internal/adapters/mq/queue"
	"github.com/okian/trustscore/internal/adapters/mq/worker"
	"github.com/okian/trustscore/internal/adapters/ndjson"
	"github.com/okian/trustscore/internal/config"
	"github.com/okian/trustscore/internal/domain/clarity"
	"github.com/okian/trustscore/internal/domain/extract"
	"github.com/okian/trustscore/internal/domain/model"
	"github.com/okian/trustscore/internal/domain/registry"
	"github.com/okian/trustscore/internal/domain/scoring"
	"github.com/okian/trustscore/pkg/logger"
)

// Input formats accepted by Run.
const (
	FormatAuto   = "auto"
	FormatNDJSON = "ndjson"
	FormatURLs   = "urls"
)

// Summary describes a finished batch.
type Summary struct {
	RunID   string
	Records int
	Failed  int
	Elapsed time.Duration
}

// Service scores descriptors for the CLI and the HTTP API.
type Service struct {
	cfg       *config.Config
	engine    *scoring.Engine
	evaluator clarity.Evaluator
	resolver  *fetch.Resolver
	logger    logger.Logger

	started time.Time
	scored  atomic.Int64
	failed  atomic.Int64
}

// New builds the registry and engine from cfg. A bad weight table is a
// configuration error.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:     cfg,
		logger:  logger.Named("service"),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.evaluator == nil {
		s.evaluator = newEvaluator(cfg)
	}

	weights, err := registry.NewWeights(cfg.Weights)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	reg, err := registry.New(weights,
		registry.WithLicensePolicy(extract.NewLicensePolicy(cfg.LicenseCompatible, cfg.LicenseIncompatible)),
		registry.WithBusFactorTopN(cfg.BusFactorTopN),
		registry.WithSizeCaps(extract.SizeCaps(cfg.SizeCapsMB)),
		registry.WithEvaluator(s.evaluator),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	s.engine = scoring.NewEngine(reg,
		scoring.WithLogger(s.logger.Named("scoring")),
		scoring.WithMetricTimeout(cfg.MetricTimeout()),
		scoring.WithClarityTimeout(cfg.ClarityTimeout()),
		scoring.WithParallelMetrics(cfg.ParallelMetrics),
	)

	if s.resolver == nil {
		gh, err := fetch.NewGitHub(ctx, cfg.GitHubToken, fetch.NewLimiter(cfg.FetchRatePerSec))
		if err != nil {
			return nil, err
		}
		s.resolver = fetch.NewResolver(
			fetch.NewHF(cfg.HFEndpoint, cfg.HFToken, fetch.NewLimiter(cfg.FetchRatePerSec)),
			fetch.WithGitHub(gh),
			fetch.WithConcurrency(cfg.FetchConcurrency),
			fetch.WithLogger(s.logger.Named("fetch")),
		)
	}
	return s, nil
}

func newEvaluator(cfg *config.Config) clarity.Evaluator {
	switch cfg.EffectiveClarityMode() {
	case config.ClarityLLM:
		return llm.New(
			llm.WithEndpoint(cfg.LLMEndpoint),
			llm.WithModel(cfg.LLMModel),
			llm.WithAPIKey(cfg.LLMAPIKey),
			llm.WithMaxChars(cfg.LLMMaxChars),
		)
	case config.ClarityOff:
		return llm.Instrument(config.ClarityOff, clarity.Disabled{})
	default:
		return llm.Instrument(config.ClarityHeuristic, clarity.Heuristic{})
	}
}

// Score computes one record. It is what POST /rate calls.
func (s *Service) Score(ctx context.Context, d *model.RepositoryDescriptor) (model.ScoreRecord, error) {
	rec, err := s.engine.Score(ctx, d)
	if err != nil {
		s.failed.Add(1)
		return rec, err
	}
	s.scored.Add(1)
	return rec, nil
}

// Run reads descriptors (or URL lines) from in, scores them on the worker
// pool and writes one NDJSON line per record to out.
func (s *Service) Run(ctx context.Context, in io.Reader, format string, out io.Writer) (Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := s.logger.With(logger.String("run_id", runID))

	br := bufio.NewReader(in)
	if format == "" || format == FormatAuto {
		format = detectFormat(br)
	}
	if format != FormatNDJSON && format != FormatURLs {
		return Summary{RunID: runID}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	var records, failed atomic.Int64
	w := ndjson.NewWriter(out)
	emit := func(ctx context.Context, r worker.Result) error {
		if r.Err != nil {
			failed.Add(1)
			s.failed.Add(1)
			return nil
		}
		s.scored.Add(1)
		if err := w.Write(r.Record); err != nil {
			return err
		}
		records.Add(1)
		return nil
	}

	var sink worker.Sink = worker.SinkFunc(emit)
	var ordered *orderedSink
	if s.cfg.OrderedOutput {
		ordered = newOrderedSink(emit)
		sink = ordered
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The first failed delivery aborts the run: output is broken and the
	// remaining records would be lost anyway.
	var (
		sinkMu  sync.Mutex
		sinkErr error
	)
	guarded := worker.SinkFunc(func(ctx context.Context, r worker.Result) error {
		err := sink.Deliver(ctx, r)
		if err != nil {
			sinkMu.Lock()
			if sinkErr == nil {
				sinkErr = err
			}
			sinkMu.Unlock()
			cancel()
		}
		return err
	})

	q := queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.QueueSize))
	pool := worker.NewPool(s.cfg.WorkerCount, q, s.engine, guarded)
	pool.Start(runCtx)

	log.Info(ctx, "batch started",
		logger.String("format", format),
		logger.Int("workers", pool.Size()),
		logger.Bool("ordered", s.cfg.OrderedOutput),
		logger.String("clarity_mode", s.cfg.EffectiveClarityMode()),
	)

	produceErr := s.produce(runCtx, br, format, q)
	if produceErr != nil || runCtx.Err() != nil {
		log.Warn(ctx, "batch aborted", logger.Error(produceErr))
		if err := pool.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn(ctx, "pool shutdown", logger.Error(err))
		}
	} else {
		if !q.IsClosed() {
			if err := q.Close(); err != nil {
				log.Warn(ctx, "closing queue", logger.Error(err))
			}
		}
		pool.Wait()
	}

	sinkMu.Lock()
	deliverErr := sinkErr
	sinkMu.Unlock()

	var flushErr error
	if ordered != nil && deliverErr == nil {
		flushErr = ordered.flush(ctx)
	}

	sum := Summary{
		RunID:   runID,
		Records: int(records.Load()),
		Failed:  int(failed.Load()),
		Elapsed: time.Since(start),
	}
	log.Info(ctx, "batch finished",
		logger.Int("records", sum.Records),
		logger.Int("failed", sum.Failed),
		logger.Duration("elapsed", sum.Elapsed),
	)
	if deliverErr != nil {
		return sum, deliverErr
	}
	if produceErr != nil {
		return sum, produceErr
	}
	return sum, flushErr
}

func (s *Service) produce(ctx context.Context, in io.Reader, format string, q queue.Queue) error {
	if format == FormatNDJSON {
		seq := 0
		return ndjson.ReadDescriptors(ctx, in, func(line int, d model.RepositoryDescriptor, derr error) error {
			if derr != nil {
				s.logger.Warn(ctx, "degraded descriptor",
					logger.Int("line", line),
					logger.String("name", d.DisplayName()),
					logger.Error(derr),
				)
			}
			err := q.Put(ctx, queue.Job{Seq: seq, Descriptor: d})
			seq++
			return err
		})
	}

	if s.resolver == nil {
		return ErrNoResolver
	}
	targets, err := fetch.ParseURLs(in)
	if err != nil {
		return err
	}
	return s.resolver.ResolveAll(ctx, targets, func(seq int, d model.RepositoryDescriptor) error {
		return q.Put(ctx, queue.Job{Seq: seq, Descriptor: d})
	})
}

// detectFormat peeks at the first non-blank byte: a JSON object means
// NDJSON, anything else is a URL file.
func detectFormat(br *bufio.Reader) string {
	for n := 1; ; n++ {
		b, err := br.Peek(n)
		if len(b) < n || err != nil {
			return FormatURLs
		}
		switch c := b[n-1]; c {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return FormatNDJSON
		default:
			return FormatURLs
		}
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	return map[string]any{
		"uptime":         time.Since(s.started).Round(time.Second).String(),
		"records_scored": s.scored.Load(),
		"records_failed": s.failed.Load(),
		"clarity_mode":   s.cfg.EffectiveClarityMode(),
		"weights":        s.cfg.Weights,
	}
}
