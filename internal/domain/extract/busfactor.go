package extract

import (
	"context"
	"sort"
	"strings"

	"github.com/okian/trustscore/internal/domain/model"
)

// DefaultBusFactorTopN is how many top contributors are considered.
const DefaultBusFactorTopN = 10

// IsBot reports whether an author name or email belongs to automation.
func IsBot(author string) bool {
	a := strings.ToLower(strings.TrimSpace(author))
	return strings.Contains(a, "[bot]") ||
		strings.HasSuffix(a, "-bot") ||
		strings.HasSuffix(a, "_bot") ||
		strings.Contains(a, "github-actions") ||
		strings.Contains(a, "bot@")
}

// BusFactor measures how evenly commits spread across the top topN human
// contributors: 1 - HHI of commit shares, normalized so that one contributor
// scores 0 and an even spread over the counted contributors scores 1.
func BusFactor(topN int) Func {
	if topN < 2 {
		topN = DefaultBusFactorTopN
	}
	return func(_ context.Context, d *model.RepositoryDescriptor) (Raw, error) {
		counts := make([]int, 0, len(d.Contributors))
		for author, n := range d.Contributors {
			if n <= 0 || IsBot(author) {
				continue
			}
			counts = append(counts, n)
		}
		if len(counts) < 2 {
			return value(0), nil
		}
		sort.Sort(sort.Reverse(sort.IntSlice(counts)))
		if len(counts) > topN {
			counts = counts[:topN]
		}

		total := 0
		for _, c := range counts {
			total += c
		}
		hhi := 0.0
		for _, c := range counts {
			share := float64(c) / float64(total)
			hhi += share * share
		}
		// Normalize by the team actually counted so an evenly split small
		// team reaches 1.
		return value(Clamp01((1 - hhi) / (1 - 1/float64(len(counts))))), nil
	}
}
