package clarity

import (
	"context"
	"strings"
)

// Heuristic is an offline Evaluator that looks for the sections a reader
// needs to get started. It is deterministic and never fails.
type Heuristic struct{}

const (
	headingWeight = 0.2
	installWeight = 0.2
	usageWeight   = 0.2
	codeWeight    = 0.2
	lengthWeight  = 0.1
	minHeadings   = 3
	shortReadme   = 1000
	longReadme    = 3000
)

var (
	installWords = []string{"install", "pip ", "quickstart", "quick start", "getting started", "requirements"} //nolint:gochecknoglobals // keyword table
	usageWords   = []string{"usage", "example", "how to use", "inference", "from_pretrained"}                 //nolint:gochecknoglobals // keyword table
)

// Rate scores text by structure: headings, install notes, usage examples,
// code blocks and length.
func (Heuristic) Rate(_ context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	lower := strings.ToLower(text)

	score := 0.0
	headings := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			headings++
		}
	}
	if headings >= minHeadings {
		score += headingWeight
	}
	if containsAny(lower, installWords) {
		score += installWeight
	}
	if containsAny(lower, usageWords) {
		score += usageWeight
	}
	if strings.Contains(text, "```") {
		score += codeWeight
	}
	switch {
	case len(text) >= longReadme:
		score += 2 * lengthWeight
	case len(text) >= shortReadme:
		score += lengthWeight
	}
	return clamp(score), nil
}

// Disabled is an Evaluator that always fails, so ramp_up_time scores 0.
type Disabled struct{}

// Rate returns ErrDisabled.
func (Disabled) Rate(context.Context, string) (float64, error) {
	return 0, ErrDisabled
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
