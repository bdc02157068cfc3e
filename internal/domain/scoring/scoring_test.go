package scoring_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/trustscore/internal/domain/clarity"
	"github.com/okian/trustscore/internal/domain/extract"
	"github.com/okian/trustscore/internal/domain/model"
	"github.com/okian/trustscore/internal/domain/registry"
	scoring "github.com/okian/trustscore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleDescriptor() *model.RepositoryDescriptor {
	return &model.RepositoryDescriptor{
		Name:     "google/gemma-3-27b",
		Kind:     model.KindModel,
		Readme:   "# Gemma\n## Installation\npip install transformers\n## Usage\n```python\nx\n```\nLicense: apache-2.0",
		License:  "apache-2.0",
		Language: "python",
		Files: []model.FileEntry{
			{Path: "model.safetensors", Size: 300_000_000},
			{Path: "config.json", Size: 1_000},
			{Path: "inference.py", Size: 2_000},
		},
		Contributors: map[string]int{"alice": 12, "bob": 7, "carol": 3, "dependabot[bot]": 40},
		Downloads:    120_000,
		Likes:        300,
		DatasetURL:   "https://huggingface.co/datasets/c4",
		CodeURL:      "https://github.com/google/gemma",
		Benchmarks:   []model.Benchmark{{Name: "mmlu", Value: 0.7, Dataset: "mmlu"}},
		Dataset:      model.DatasetSignals{Documented: true, Downloads: 50_000, Configs: 2, Viewer: true},
	}
}

func newEngine(ev clarity.Evaluator, opts ...scoring.Option) *scoring.Engine {
	w, err := registry.NewWeights(registry.DefaultWeights())
	So(err, ShouldBeNil)
	reg, err := registry.New(w, registry.WithEvaluator(ev))
	So(err, ShouldBeNil)
	return scoring.NewEngine(reg, opts...)
}

func values(rec model.ScoreRecord) map[string]float64 {
	out := map[string]float64{}
	for _, m := range rec.Metrics {
		out[m.Name] = m.Value
	}
	return out
}

func TestEngine_Score(t *testing.T) {
	Convey("Given an engine with the heuristic evaluator", t, func() {
		e := newEngine(clarity.Heuristic{})
		ctx := context.Background()

		Convey("When scoring a complete descriptor", func() {
			rec, err := e.Score(ctx, sampleDescriptor())

			Convey("Then every metric is present in registry order and in range", func() {
				So(err, ShouldBeNil)
				So(rec.Name, ShouldEqual, "google/gemma-3-27b")
				So(rec.Category, ShouldEqual, "MODEL")
				So(rec.Metrics, ShouldHaveLength, len(registry.Names()))
				for i, name := range registry.Names() {
					m := rec.Metrics[i]
					So(m.Name, ShouldEqual, name)
					So(m.Value, ShouldBeBetweenOrEqual, 0, 1)
					So(m.Latency, ShouldBeGreaterThanOrEqualTo, time.Duration(0))
					So(m.Failed, ShouldBeFalse)
				}
				So(rec.NetScore, ShouldBeBetweenOrEqual, 0, 1)
				So(rec.NetScoreLatency, ShouldBeGreaterThanOrEqualTo, time.Duration(0))
			})

			Convey("Then the net score is the weighted sum", func() {
				want := 0.0
				for name, v := range values(rec) {
					want += registry.DefaultWeights()[name] * v
				}
				So(math.Abs(rec.NetScore-want), ShouldBeLessThanOrEqualTo, 1e-9)
			})

			Convey("Then size_score carries all four targets and their mean", func() {
				m, ok := rec.Metric(registry.SizeScore)
				So(ok, ShouldBeTrue)
				So(m.Targets, ShouldHaveLength, 4)
				sum := 0.0
				for _, target := range model.SizeTargets {
					sum += m.Targets[target]
				}
				So(m.Value, ShouldAlmostEqual, sum/4, 1e-12)
				So(m.Raw, ShouldAlmostEqual, 300, 1e-9)
			})

			Convey("Then the license is fully compatible", func() {
				So(values(rec)[registry.License], ShouldEqual, 1)
			})
		})

		Convey("When scoring an all-empty descriptor", func() {
			rec, err := e.Score(ctx, &model.RepositoryDescriptor{})

			Convey("Then the net score is exactly zero", func() {
				So(err, ShouldBeNil)
				So(rec.NetScore, ShouldEqual, 0.0)
				for _, m := range rec.Metrics {
					So(m.Value, ShouldEqual, 0)
				}
			})
		})

		Convey("When scoring the same descriptor twice", func() {
			a, _ := e.Score(ctx, sampleDescriptor())
			b, _ := e.Score(ctx, sampleDescriptor())

			Convey("Then everything but latencies matches", func() {
				So(values(a), ShouldResemble, values(b))
				So(a.NetScore, ShouldEqual, b.NetScore)
				So(a.Name, ShouldEqual, b.Name)
			})
		})

		Convey("When called with a nil descriptor", func() {
			_, err := e.Score(ctx, nil)
			So(errors.Is(err, scoring.ErrNilDescriptor), ShouldBeTrue)
		})

		Convey("When the context is already canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := e.Score(cctx, sampleDescriptor())
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestEngine_Isolation(t *testing.T) {
	Convey("Given a reference record", t, func() {
		ctx := context.Background()
		ok := clarity.Func(func(context.Context, string) (float64, error) { return 0.9, nil })
		ref, err := newEngine(ok).Score(ctx, sampleDescriptor())
		So(err, ShouldBeNil)

		Convey("When the clarity evaluator fails", func() {
			failing := clarity.Func(func(context.Context, string) (float64, error) {
				return 0, errors.New("llm unavailable")
			})
			rec, err := newEngine(failing).Score(ctx, sampleDescriptor())

			Convey("Then ramp_up_time is 0 and marked failed, other metrics unchanged", func() {
				So(err, ShouldBeNil)
				m, _ := rec.Metric(registry.RampUpTime)
				So(m.Value, ShouldEqual, 0)
				So(m.Failed, ShouldBeTrue)
				So(m.Err, ShouldContainSubstring, "llm unavailable")
				for name, v := range values(ref) {
					if name != registry.RampUpTime {
						So(values(rec)[name], ShouldEqual, v)
					}
				}
			})
		})

		Convey("When the clarity evaluator hangs past its timeout", func() {
			hanging := clarity.Func(func(c context.Context, _ string) (float64, error) {
				<-c.Done()
				return 0, c.Err()
			})
			e := newEngine(hanging, scoring.WithClarityTimeout(20*time.Millisecond))
			rec, err := e.Score(ctx, sampleDescriptor())

			Convey("Then ramp_up_time times out and scores 0", func() {
				So(err, ShouldBeNil)
				m, _ := rec.Metric(registry.RampUpTime)
				So(m.Value, ShouldEqual, 0)
				So(m.Failed, ShouldBeTrue)
				So(m.Latency, ShouldBeGreaterThanOrEqualTo, 20*time.Millisecond)
				So(values(rec)[registry.License], ShouldEqual, values(ref)[registry.License])
			})
		})

		Convey("When an extractor panics", func() {
			w, _ := registry.NewWeights(registry.DefaultWeights())
			reg, err := registry.New(w,
				registry.WithEvaluator(ok),
				registry.WithExtractor(registry.BusFactor, func(context.Context, *model.RepositoryDescriptor) (extract.Raw, error) {
					panic("corrupt contributor table")
				}),
			)
			So(err, ShouldBeNil)
			rec, err := scoring.NewEngine(reg).Score(ctx, sampleDescriptor())

			Convey("Then only that metric fails", func() {
				So(err, ShouldBeNil)
				m, _ := rec.Metric(registry.BusFactor)
				So(m.Failed, ShouldBeTrue)
				So(m.Value, ShouldEqual, 0)
				So(m.Err, ShouldContainSubstring, "corrupt contributor table")
				So(values(rec)[registry.CodeQuality], ShouldEqual, values(ref)[registry.CodeQuality])
			})
		})

		Convey("When metrics run in parallel", func() {
			rec, err := newEngine(ok, scoring.WithParallelMetrics(true)).Score(ctx, sampleDescriptor())

			Convey("Then results match the sequential run", func() {
				So(err, ShouldBeNil)
				So(values(rec), ShouldResemble, values(ref))
				So(rec.NetScore, ShouldEqual, ref.NetScore)
				for i, name := range registry.Names() {
					So(rec.Metrics[i].Name, ShouldEqual, name)
				}
			})
		})
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given validated default weights", t, func() {
		w, _ := registry.NewWeights(registry.DefaultWeights())

		Convey("When every metric is perfect", func() {
			var results []model.MetricResult
			for _, n := range registry.Names() {
				results = append(results, model.MetricResult{Name: n, Value: 1})
			}
			net, latency := scoring.Aggregate(w, results)

			Convey("Then the net score is 1", func() {
				So(net, ShouldAlmostEqual, 1, 1e-9)
				So(net, ShouldBeLessThanOrEqualTo, 1)
				So(latency, ShouldBeGreaterThanOrEqualTo, time.Duration(0))
			})
		})

		Convey("When only license scores", func() {
			net, _ := scoring.Aggregate(w, []model.MetricResult{{Name: registry.License, Value: 1}})
			So(net, ShouldAlmostEqual, 0.10, 1e-12)
		})
	})
}
