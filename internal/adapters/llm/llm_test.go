package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/trustscore/internal/adapters/llm"
	"github.com/okian/trustscore/internal/domain/clarity"
	"github.com/smartystreets/goconvey/convey"
)

type captured struct {
	auth    string
	model   string
	content string
}

func chatServer(reply string, status int, got *captured) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if got != nil {
			got.auth = r.Header.Get("Authorization")
			got.model = req.Model
			if len(req.Messages) > 0 {
				got.content = req.Messages[len(req.Messages)-1].Content
			}
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
}

func TestClientRate(t *testing.T) {
	convey.Convey("Given a chat-completions server", t, func() {
		got := &captured{}

		convey.Convey("When the model answers with a bare number", func() {
			srv := chatServer("0.8", http.StatusOK, got)
			defer srv.Close()
			c := llm.New(llm.WithEndpoint(srv.URL), llm.WithAPIKey("k"), llm.WithModel("m1"))

			v, err := c.Rate(context.Background(), "# Title\nUsage")

			convey.Convey("Then the score is returned and the request is well formed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(v, convey.ShouldEqual, 0.8)
				convey.So(got.auth, convey.ShouldEqual, "Bearer k")
				convey.So(got.model, convey.ShouldEqual, "m1")
				convey.So(got.content, convey.ShouldStartWith, "Rate the clarity")
				convey.So(got.content, convey.ShouldEndWith, "# Title\nUsage")
			})
		})

		convey.Convey("When the model answers in prose", func() {
			srv := chatServer("I would rate this 0.65 overall.", http.StatusOK, got)
			defer srv.Close()
			c := llm.New(llm.WithEndpoint(srv.URL))

			v, err := c.Rate(context.Background(), "readme")

			convey.Convey("Then the first number is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(v, convey.ShouldEqual, 0.65)
				convey.So(got.auth, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the README is longer than the cap", func() {
			srv := chatServer("1", http.StatusOK, got)
			defer srv.Close()
			c := llm.New(llm.WithEndpoint(srv.URL), llm.WithMaxChars(10))

			_, err := c.Rate(context.Background(), strings.Repeat("x", 100))

			convey.Convey("Then only the first characters are sent", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.content, convey.ShouldEndWith, "\n\n"+strings.Repeat("x", 10))
			})
		})

		convey.Convey("When the server fails", func() {
			srv := chatServer("", http.StatusInternalServerError, nil)
			defer srv.Close()

			_, err := llm.New(llm.WithEndpoint(srv.URL)).Rate(context.Background(), "readme")

			convey.Convey("Then a status error is returned", func() {
				convey.So(errors.Is(err, llm.ErrStatus), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the reply has no usable number", func() {
			srv := chatServer("cannot say", http.StatusOK, nil)
			defer srv.Close()

			_, err := llm.New(llm.WithEndpoint(srv.URL)).Rate(context.Background(), "readme")

			convey.Convey("Then the parse error surfaces", func() {
				convey.So(errors.Is(err, clarity.ErrNoScore), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the context expires first", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				<-r.Context().Done()
			}))
			defer srv.Close()
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			_, err := llm.New(llm.WithEndpoint(srv.URL)).Rate(ctx, "readme")

			convey.Convey("Then a request error is returned", func() {
				convey.So(errors.Is(err, llm.ErrRequest), convey.ShouldBeTrue)
			})
		})
	})
}

func TestInstrument(t *testing.T) {
	convey.Convey("Given a wrapped local evaluator", t, func() {
		ev := llm.Instrument("heuristic", clarity.Heuristic{})

		convey.Convey("Then it returns the same score", func() {
			want, _ := clarity.Heuristic{}.Rate(context.Background(), "# a\n## b\n### c\n")
			v, err := ev.Rate(context.Background(), "# a\n## b\n### c\n")
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, want)
		})

		convey.Convey("Then failures pass through", func() {
			_, err := llm.Instrument("off", clarity.Disabled{}).Rate(context.Background(), "x")
			convey.So(errors.Is(err, clarity.ErrDisabled), convey.ShouldBeTrue)
		})
	})
}
