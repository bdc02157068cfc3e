// Package extract turns a RepositoryDescriptor into raw metric signals.
//
// Extractors are pure: they read only the descriptor and never perform I/O.
// The one exception is RampUp, which delegates to an injected
// clarity.Evaluator. Missing or malformed fields degrade to zero.
package extract

import (
	"context"
	"math"

	"github.com/okian/trustscore/internal/domain/model"
)

// Raw is the output of an extractor before registry normalization.
type Raw struct {
	Value float64
	// Targets is set by extractors that score several deployment targets.
	Targets map[string]float64
}

// Func computes one raw signal for a descriptor.
type Func func(ctx context.Context, d *model.RepositoryDescriptor) (Raw, error)

// Clamp01 bounds v to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// logSaturation maps n onto [0,1] on a log scale, reaching 1 at saturate.
func logSaturation(n, saturate float64) float64 {
	if n <= 0 || saturate <= 0 {
		return 0
	}
	return Clamp01(math.Log1p(n) / math.Log1p(saturate))
}

func value(v float64) Raw { return Raw{Value: v} }
