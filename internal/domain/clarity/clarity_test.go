package clarity_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/okian/trustscore/internal/domain/clarity"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseReply(t *testing.T) {
	Convey("Given evaluator replies", t, func() {
		Convey("When the reply is a bare number", func() {
			v, err := clarity.ParseReply(" 0.75\n")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0.75)
		})

		Convey("When the reply has words around the number", func() {
			v, err := clarity.ParseReply("I would rate it 0.6 overall.")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0.6)
		})

		Convey("When the bare number is out of range", func() {
			v, err := clarity.ParseReply("7")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 1)

			v, err = clarity.ParseReply("-2")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0)
		})

		Convey("When the reply is empty", func() {
			_, err := clarity.ParseReply("   ")
			So(errors.Is(err, clarity.ErrEmptyReply), ShouldBeTrue)
		})

		Convey("When the reply has no score", func() {
			_, err := clarity.ParseReply("the readme is great")
			So(errors.Is(err, clarity.ErrNoScore), ShouldBeTrue)
		})
	})
}

func TestTruncate(t *testing.T) {
	Convey("Truncate keeps at most n bytes on a rune boundary", t, func() {
		So(clarity.Truncate("hello", 10), ShouldEqual, "hello")
		So(clarity.Truncate("hello", 3), ShouldEqual, "hel")
		So(clarity.Truncate("héllo", 2), ShouldEqual, "h")
		So(clarity.Truncate("abc", 0), ShouldEqual, "abc")
	})
}

func TestHeuristic(t *testing.T) {
	Convey("Given the offline heuristic", t, func() {
		h := clarity.Heuristic{}
		ctx := context.Background()

		Convey("When the README is empty", func() {
			v, err := h.Rate(ctx, " \n")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0)
		})

		Convey("When the README is well structured", func() {
			readme := "# Model\n## Installation\npip install x\n## Usage\n```python\nmodel = load()\n```\n" +
				strings.Repeat("details ", 500)
			v, err := h.Rate(ctx, readme)

			Convey("Then it scores the maximum", func() {
				So(err, ShouldBeNil)
				So(v, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When the README is a single line", func() {
			v, err := h.Rate(ctx, "A model.")

			Convey("Then it scores low but stays in range", func() {
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 0)
			})
		})

		Convey("Then rating is deterministic", func() {
			a, _ := h.Rate(ctx, "# A\n## B\n## C\nusage")
			b, _ := h.Rate(ctx, "# A\n## B\n## C\nusage")
			So(a, ShouldEqual, b)
		})
	})

	Convey("Disabled always fails", t, func() {
		_, err := clarity.Disabled{}.Rate(context.Background(), "x")
		So(errors.Is(err, clarity.ErrDisabled), ShouldBeTrue)
	})

	Convey("Func adapts plain functions", t, func() {
		f := clarity.Func(func(context.Context, string) (float64, error) { return 0.3, nil })
		v, err := f.Rate(context.Background(), "x")
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 0.3)
	})
}
