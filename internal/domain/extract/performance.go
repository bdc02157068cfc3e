package extract

import (
	"context"
	"math"
	"strings"

	"github.com/okian/trustscore/internal/domain/model"
)

const (
	evidenceBase        = 0.5
	evidencePerEntry    = 0.1
	evidencePerDataset  = 0.05
	evidenceCap         = 0.9
	popularityWeight    = 0.05
	downloadsSaturation = 1e6
	likesSaturation     = 1e3
)

// PerformanceClaims rewards reported benchmark results, with a small nudge
// for popularity. Popularity alone never exceeds 2*popularityWeight.
func PerformanceClaims(_ context.Context, d *model.RepositoryDescriptor) (Raw, error) {
	evidence := 0.0
	seen := make(map[string]struct{}, len(d.Benchmarks))
	for _, b := range d.Benchmarks {
		if !plausible(b) {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(b.Name)) + "|" +
			strings.ToLower(strings.TrimSpace(b.Task)) + "|" +
			strings.ToLower(strings.TrimSpace(b.Dataset))
		if _, dup := seen[key]; dup {
			continue
		}
		if len(seen) == 0 {
			evidence = evidenceBase
		}
		seen[key] = struct{}{}
		evidence += evidencePerEntry
		if strings.TrimSpace(b.Dataset) != "" {
			evidence += evidencePerDataset
		}
	}
	evidence = math.Min(evidence, evidenceCap)

	popularity := popularityWeight*logSaturation(float64(d.Downloads), downloadsSaturation) +
		popularityWeight*logSaturation(float64(d.Likes), likesSaturation)

	return value(Clamp01(evidence + popularity)), nil
}

func plausible(b model.Benchmark) bool {
	if strings.TrimSpace(b.Name) == "" {
		return false
	}
	return !math.IsNaN(b.Value) && !math.IsInf(b.Value, 0) && b.Value >= 0
}
