package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/trustscore/internal/domain/clarity"
	"github.com/okian/trustscore/pkg/logger"
	"github.com/okian/trustscore/pkg/metrics"
)

const (
	evaluatorName   = "llm"
	defaultMaxChars = 4000
	maxErrorBody    = 512

	systemPrompt = "You are a strict evaluator of documentation clarity."
	userPrompt   = "Rate the clarity and completeness of this README in a single number " +
		"between 0 (worst) and 1 (best). Respond with just the number.\n\n"
)

// Client rates README text by asking a chat model.
type Client struct {
	endpoint string
	model    string
	apiKey   string
	maxChars int
	http     *http.Client
	logger   logger.Logger
}

var _ clarity.Evaluator = (*Client)(nil)

// New creates a Client. The HTTP client has no timeout of its own; callers
// bound each call with the context.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint: "https://api.openai.com/v1/chat/completions",
		model:    "gpt-4o-mini",
		maxChars: defaultMaxChars,
		http:     &http.Client{},
		logger:   logger.Named("llm"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Rate sends the truncated README and parses the first number of the reply.
func (c *Client) Rate(ctx context.Context, text string) (float64, error) {
	score, err := c.rate(ctx, text)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if ctx.Err() != nil {
			outcome = "timeout"
		}
	}
	metrics.RecordClarityRequest(evaluatorName, outcome)
	return score, err
}

func (c *Client) rate(ctx context.Context, text string) (float64, error) {
	if c.endpoint == "" {
		return 0, ErrNoEndpoint
	}
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt + clarity.Truncate(text, c.maxChars)},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug(ctx, "clarity request rejected",
			logger.Int("status", resp.StatusCode),
			logger.String("body", string(snippet)),
		)
		return 0, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(out.Choices) == 0 {
		return 0, ErrNoChoices
	}
	return clarity.ParseReply(out.Choices[0].Message.Content)
}

// Instrument wraps a local evaluator so its outcomes are counted the same
// way remote calls are.
func Instrument(name string, ev clarity.Evaluator) clarity.Evaluator {
	return clarity.Func(func(ctx context.Context, text string) (float64, error) {
		v, err := ev.Rate(ctx, text)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordClarityRequest(name, outcome)
		return v, err
	})
}
