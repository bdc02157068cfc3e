package scoring

import (
	"time"

	"github.com/okian/trustscore/internal/domain/extract"
	"github.com/okian/trustscore/internal/domain/model"
	"github.com/okian/trustscore/internal/domain/registry"
)

// Aggregate returns the weighted sum of normalized metric values, clamped to
// [0,1], and the time spent computing it. Multi-target metrics contribute the
// mean of their targets, which the engine already stores as Value.
func Aggregate(w registry.Weights, results []model.MetricResult) (float64, time.Duration) {
	start := time.Now()
	net := 0.0
	for _, r := range results {
		net += w.Of(r.Name) * r.Value
	}
	net = extract.Clamp01(net)
	return net, time.Since(start)
}
