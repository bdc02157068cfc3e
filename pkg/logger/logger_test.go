package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given a logger initialized with a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)
		defer func() { _ = Sync() }()

		l := Get()
		So(l, ShouldNotBeNil)

		Convey("When logging at info level", func() {
			l.Info(context.Background(), "scored repository",
				String("name", "bert-base"),
				Float64("net_score", 0.5),
				Duration("elapsed", 1500*time.Microsecond),
				Bool("ok", true),
			)

			Convey("Then fields and caller source are written", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "scored repository")
				So(out, ShouldContainSubstring, "name=bert-base")
				So(out, ShouldContainSubstring, "net_score=0.5")
				So(out, ShouldContainSubstring, "elapsed=1.5ms")
				So(out, ShouldContainSubstring, "source=")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When logging below the configured level", func() {
			l.Debug(context.Background(), "hidden")

			Convey("Then nothing is written", func() {
				So(buf.String(), ShouldBeEmpty)
			})
		})

		Convey("When using a named logger with extra fields", func() {
			Named("engine").With(String("run_id", "r1")).Error(context.Background(), "metric failed", Error(errors.New("boom")))

			Convey("Then the component and bound fields appear", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "component=engine")
				So(out, ShouldContainSubstring, "run_id=r1")
				So(out, ShouldContainSubstring, "error=boom")
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given the level parser", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)
		defer func() { _ = SetLevelString("info") }()

		Convey("Then named and numeric levels are accepted", func() {
			for _, lvl := range []string{"debug", "INFO", "warn", "warning", "error", "silent", "0", "1", "2", ""} {
				So(SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("Then unknown levels are rejected", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})

		Convey("When the level is 0", func() {
			So(SetLevelString("0"), ShouldBeNil)
			Get().Error(context.Background(), "should not appear")

			Convey("Then even errors are suppressed", func() {
				So(buf.String(), ShouldBeEmpty)
			})
		})

		Convey("When the level is 2", func() {
			So(SetLevelString("2"), ShouldBeNil)
			Get().Debug(context.Background(), "visible")

			Convey("Then debug output is written", func() {
				So(buf.String(), ShouldContainSubstring, "visible")
			})
		})
	})
}

func TestLoggerFile(t *testing.T) {
	Convey("Given a log file path", t, func() {
		path := filepath.Join(t.TempDir(), "run.log")
		So(Init(WithFile(path)), ShouldBeNil)

		Get().Info(context.Background(), "to file")
		So(Sync(), ShouldBeNil)

		Convey("Then the message lands in the file", func() {
			b, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(strings.Contains(string(b), "to file"), ShouldBeTrue)
		})
	})

	Convey("Given an unwritable log file path", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithFile(filepath.Join(t.TempDir(), "missing", "dir", "run.log"))), ShouldBeNil)

		Convey("Then Init falls back to the writer and warns", func() {
			So(buf.String(), ShouldContainSubstring, "invalid log file")
		})
	})
}
