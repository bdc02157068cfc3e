package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/trustscore/internal/adapters/fetch"
	"github.com/okian/trustscore/internal/adapters/llm"
	"github.com/okian/trustscore/internal/adapters/mq/worker"
	"github.com/okian/trustscore/internal/adapters/ndjson"
	"github.com/okian/trustscore/internal/config"
	"github.com/okian/trustscore/internal/domain/clarity"
	"github.com/okian/trustscore/internal/domain/model"
	"github.com/okian/trustscore/internal/domain/registry"
	. "github.com/smartystreets/goconvey/convey"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func testConfig() *config.Config {
	cfg := config.New()
	cfg.WorkerCount = 4
	cfg.QueueSize = 8
	return cfg
}

func newTestService(cfg *config.Config, opts ...Option) *Service {
	opts = append([]Option{WithEvaluator(clarity.Heuristic{})}, opts...)
	s, err := New(context.Background(), cfg, opts...)
	So(err, ShouldBeNil)
	return s
}

func descriptorLines(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		d := model.RepositoryDescriptor{Name: fmt.Sprintf("org/model-%02d", i), License: "mit"}
		raw, _ := json.Marshal(d)
		b.Write(raw)
		b.WriteByte('\n')
	}
	return b.String()
}

func outputNames(out string) []string {
	var names []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var rec map[string]any
		So(json.Unmarshal(sc.Bytes(), &rec), ShouldBeNil)
		names = append(names, rec["name"].(string))
	}
	return names
}

func TestRunNDJSON(t *testing.T) {
	Convey("Given a service and NDJSON input", t, func() {
		cfg := testConfig()

		Convey("When running unordered", func() {
			s := newTestService(cfg)
			var out bytes.Buffer
			sum, err := s.Run(context.Background(), strings.NewReader(descriptorLines(10)), FormatNDJSON, &out)

			Convey("Then every descriptor yields one line", func() {
				So(err, ShouldBeNil)
				So(sum.Records, ShouldEqual, 10)
				So(sum.Failed, ShouldEqual, 0)
				So(sum.RunID, ShouldNotBeEmpty)
				So(outputNames(out.String()), ShouldHaveLength, 10)
			})
		})

		Convey("When running with ordered output", func() {
			cfg.OrderedOutput = true
			s := newTestService(cfg)
			var out bytes.Buffer
			_, err := s.Run(context.Background(), strings.NewReader(descriptorLines(25)), FormatAuto, &out)

			Convey("Then lines follow input order", func() {
				So(err, ShouldBeNil)
				names := outputNames(out.String())
				So(names, ShouldHaveLength, 25)
				for i, n := range names {
					So(n, ShouldEqual, fmt.Sprintf("org/model-%02d", i))
				}
			})
		})

		Convey("When defective lines sit in the middle of the batch", func() {
			cfg.OrderedOutput = true
			s := newTestService(cfg)
			var out bytes.Buffer
			in := `{"name":"a/one","license":"mit"}
{"name":"b/two","downloads":"lots","license":"mit"}
{broken
{"name":"c/three"}
`
			sum, err := s.Run(context.Background(), strings.NewReader(in), FormatNDJSON, &out)

			Convey("Then every line still yields a record", func() {
				So(err, ShouldBeNil)
				So(sum.Records, ShouldEqual, 4)
				So(outputNames(out.String()), ShouldResemble, []string{"a/one", "b/two", "line-3", "c/three"})
			})

			Convey("Then the mistyped record keeps its other fields", func() {
				sc := bufio.NewScanner(strings.NewReader(out.String()))
				sc.Scan()
				sc.Scan()
				var rec map[string]any
				So(json.Unmarshal(sc.Bytes(), &rec), ShouldBeNil)
				So(rec["name"], ShouldEqual, "b/two")
				So(rec["license"], ShouldEqual, 1.0)
			})
		})

		Convey("When the output cannot be written", func() {
			s := newTestService(cfg)
			sum, err := s.Run(context.Background(), strings.NewReader(descriptorLines(50)), FormatNDJSON, failingWriter{})

			Convey("Then the run stops with the write error", func() {
				So(errors.Is(err, ndjson.ErrWrite), ShouldBeTrue)
				So(sum.Records, ShouldEqual, 0)
			})
		})

		Convey("When the context is already canceled", func() {
			s := newTestService(cfg)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			var out bytes.Buffer
			_, err := s.Run(ctx, strings.NewReader(descriptorLines(5)), FormatNDJSON, &out)

			Convey("Then the pool is shut down and the cancellation returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When the format is unknown", func() {
			s := newTestService(cfg)
			_, err := s.Run(context.Background(), strings.NewReader(""), "csv", &bytes.Buffer{})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, ErrUnknownFormat), ShouldBeTrue)
			})
		})
	})
}

func TestRunURLs(t *testing.T) {
	Convey("Given a Hub server and a URL file", t, func() {
		hub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/models/org/tiny":
				_ = json.NewEncoder(w).Encode(map[string]any{
					"id":       "org/tiny",
					"tags":     []string{"license:apache-2.0"},
					"siblings": []map[string]any{{"rfilename": "model.safetensors", "size": 50_000_000}},
				})
			case "/org/tiny/raw/main/README.md":
				_, _ = w.Write([]byte("# Tiny\n## Install\npip install tiny\n## Usage\n```py\nx\n```\n"))
			default:
				http.NotFound(w, r)
			}
		}))
		defer hub.Close()

		cfg := testConfig()
		cfg.OrderedOutput = true
		resolver := fetch.NewResolver(fetch.NewHF(hub.URL, "", nil))
		s := newTestService(cfg, WithResolver(resolver))

		in := "# models\n,," + hub.URL + "/org/tiny\n" + hub.URL + "/org/gone\n"
		var out bytes.Buffer
		sum, err := s.Run(context.Background(), strings.NewReader(in), FormatAuto, &out)

		Convey("Then resolved and degraded lines both produce records", func() {
			So(err, ShouldBeNil)
			So(sum.Records, ShouldEqual, 2)
			So(outputNames(out.String()), ShouldResemble, []string{"org/tiny", "org/gone"})
		})

		Convey("Then registry data reaches the metrics", func() {
			first := strings.SplitN(out.String(), "\n", 2)[0]
			var rec map[string]any
			So(json.Unmarshal([]byte(first), &rec), ShouldBeNil)
			So(rec["license"], ShouldEqual, 1.0)
			So(rec["ramp_up_time"].(float64), ShouldBeGreaterThan, 0)
			So(rec["category"], ShouldEqual, "MODEL")
		})
	})
}

func TestNewRejectsBadWeights(t *testing.T) {
	Convey("Given weights that do not sum to one", t, func() {
		cfg := testConfig()
		cfg.Weights = registry.DefaultWeights()
		cfg.Weights[registry.License] += 0.5

		_, err := New(context.Background(), cfg, WithEvaluator(clarity.Heuristic{}))

		Convey("Then construction fails with a config error", func() {
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			So(errors.Is(err, registry.ErrInvalidWeights), ShouldBeTrue)
		})
	})
}

func TestScoreAndStats(t *testing.T) {
	Convey("Given a service", t, func() {
		s := newTestService(testConfig())

		Convey("When scoring single descriptors", func() {
			_, err := s.Score(context.Background(), &model.RepositoryDescriptor{Name: "a"})
			So(err, ShouldBeNil)
			_, err = s.Score(context.Background(), nil)
			So(err, ShouldNotBeNil)

			Convey("Then the counters reflect both outcomes", func() {
				stats := s.GetStats()
				So(stats["records_scored"], ShouldEqual, int64(1))
				So(stats["records_failed"], ShouldEqual, int64(1))
				So(stats["clarity_mode"], ShouldEqual, config.ClarityHeuristic)
			})
		})
	})
}

func TestEvaluatorSelection(t *testing.T) {
	Convey("Given clarity modes", t, func() {
		cfg := testConfig()

		Convey("Then an API key selects the LLM in auto mode", func() {
			cfg.LLMAPIKey = "k"
			_, ok := newEvaluator(cfg).(*llm.Client)
			So(ok, ShouldBeTrue)
		})

		Convey("Then no API key falls back to the heuristic", func() {
			_, ok := newEvaluator(cfg).(*llm.Client)
			So(ok, ShouldBeFalse)
			v, err := newEvaluator(cfg).Rate(context.Background(), "# a\n# b\n# c\n")
			So(err, ShouldBeNil)
			So(v, ShouldBeGreaterThan, 0)
		})

		Convey("Then off always fails", func() {
			cfg.ClarityMode = config.ClarityOff
			_, err := newEvaluator(cfg).Rate(context.Background(), "# readme")
			So(errors.Is(err, clarity.ErrDisabled), ShouldBeTrue)
		})
	})
}

func TestOrderedSink(t *testing.T) {
	Convey("Given an ordered sink", t, func() {
		var got []int
		o := newOrderedSink(func(_ context.Context, r worker.Result) error {
			got = append(got, r.Seq)
			return nil
		})
		ctx := context.Background()

		Convey("When results arrive out of order with a gap", func() {
			So(o.Deliver(ctx, worker.Result{Seq: 2}), ShouldBeNil)
			So(o.Deliver(ctx, worker.Result{Seq: 0}), ShouldBeNil)
			So(got, ShouldResemble, []int{0})
			So(o.Deliver(ctx, worker.Result{Seq: 1}), ShouldBeNil)
			So(o.Deliver(ctx, worker.Result{Seq: 5}), ShouldBeNil)

			Convey("Then contiguous results flow and flush drains the rest", func() {
				So(got, ShouldResemble, []int{0, 1, 2})
				So(o.flush(ctx), ShouldBeNil)
				So(got, ShouldResemble, []int{0, 1, 2, 5})
			})
		})
	})
}

func TestDetectFormat(t *testing.T) {
	Convey("Given input heads", t, func() {
		So(detectFormat(bufio.NewReader(strings.NewReader("\n  {\"name\":\"x\"}"))), ShouldEqual, FormatNDJSON)
		So(detectFormat(bufio.NewReader(strings.NewReader("https://huggingface.co/gpt2"))), ShouldEqual, FormatURLs)
		So(detectFormat(bufio.NewReader(strings.NewReader(""))), ShouldEqual, FormatURLs)
	})
}
