package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/trustscore/internal/config"
	"github.com/okian/trustscore/internal/domain/registry"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.OrderedOutput, convey.ShouldBeFalse)
			convey.So(cfg.MetricTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.ClarityTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.LLMMaxChars, convey.ShouldEqual, 4000)
			convey.So(cfg.BusFactorTopN, convey.ShouldEqual, 10)
			convey.So(cfg.Weights, convey.ShouldResemble, registry.DefaultWeights())
			convey.So(cfg.SizeCapsMB["raspberry_pi"], convey.ShouldEqual, 500)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then auto clarity mode depends on the API key", func() {
			convey.So(cfg.EffectiveClarityMode(), convey.ShouldEqual, config.ClarityHeuristic)
			cfg.LLMAPIKey = "sk-test"
			convey.So(cfg.EffectiveClarityMode(), convey.ShouldEqual, config.ClarityLLM)
			cfg.ClarityMode = config.ClarityOff
			convey.So(cfg.EffectiveClarityMode(), convey.ShouldEqual, config.ClarityOff)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with invalid weights", t, func() {
		cfg := config.New()
		cfg.Weights[registry.License] = 0.5

		err := cfg.Validate()

		convey.Convey("Then the weight error is wrapped in ErrInvalidConfig", func() {
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err, registry.ErrInvalidWeights), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given several defects at once", t, func() {
		cfg := config.New()
		cfg.Addr = ""
		cfg.WorkerCount = 0
		cfg.ClarityMode = "oracle"
		cfg.SizeCapsMB["toaster"] = 1
		cfg.LogLevel = "chatty"

		err := cfg.Validate()

		convey.Convey("Then every defect is reported", func() {
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			convey.So(err.Error(), convey.ShouldContainSubstring, "worker_count")
			convey.So(err.Error(), convey.ShouldContainSubstring, "oracle")
			convey.So(err.Error(), convey.ShouldContainSubstring, "toaster")
			convey.So(err.Error(), convey.ShouldContainSubstring, "chatty")
		})
	})

	convey.Convey("Given llm mode without an endpoint", t, func() {
		cfg := config.New()
		cfg.ClarityMode = config.ClarityLLM
		cfg.LLMEndpoint = ""
		convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
	})

	convey.Convey("Given a bus factor window of one", t, func() {
		cfg := config.New()
		cfg.BusFactorTopN = 1
		convey.So(cfg.Validate(), convey.ShouldNotBeNil)
	})
}
