package extract

import (
	"context"

	"github.com/okian/trustscore/internal/domain/model"
)

const (
	documentedScore = 0.4
	viewerScore     = 0.2
	perConfigScore  = 0.05
	configsCeiling  = 0.15
)

// downloadTiers are checked from the top; the first match wins.
var downloadTiers = []struct { //nolint:gochecknoglobals // tier table
	min   int64
	score float64
}{
	{100_000, 0.25},
	{10_000, 0.2},
	{1_000, 0.1},
}

// DatasetQuality scores the linked dataset's documentation, adoption,
// configurations and viewer availability.
func DatasetQuality(_ context.Context, d *model.RepositoryDescriptor) (Raw, error) {
	ds := d.Dataset
	score := 0.0
	if ds.Documented {
		score += documentedScore
	}
	for _, tier := range downloadTiers {
		if ds.Downloads >= tier.min {
			score += tier.score
			break
		}
	}
	if ds.Configs > 0 {
		score += min(float64(ds.Configs)*perConfigScore, configsCeiling)
	}
	if ds.Viewer {
		score += viewerScore
	}
	return value(Clamp01(score)), nil
}
