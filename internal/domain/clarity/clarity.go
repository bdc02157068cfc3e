// Package clarity rates how clear and complete a README is. The scorer only
// depends on the Evaluator interface; network-backed implementations live in
// adapters.
package clarity

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Evaluator returns a clarity rating in [0,1] for text.
type Evaluator interface {
	Rate(ctx context.Context, text string) (float64, error)
}

// Func adapts a plain function to Evaluator.
type Func func(ctx context.Context, text string) (float64, error)

// Rate calls f.
func (f Func) Rate(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}

var firstScore = regexp.MustCompile(`\b(0(?:\.\d+)?|1(?:\.0+)?)\b`)

// ParseReply extracts a rating from a free-form evaluator reply. A reply that
// is just a number is taken as is; otherwise the first number between 0 and 1
// found in the text is used. The result is clamped to [0,1].
func ParseReply(reply string) (float64, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return 0, ErrEmptyReply
	}
	if v, err := strconv.ParseFloat(reply, 64); err == nil && !math.IsNaN(v) {
		return clamp(v), nil
	}
	m := firstScore.FindStringSubmatch(reply)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrNoScore, truncate(reply, 64))
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNoScore, err)
	}
	return clamp(v), nil
}

// Truncate cuts text to at most n bytes without splitting a UTF-8 rune.
func Truncate(text string, n int) string {
	return truncate(text, n)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
