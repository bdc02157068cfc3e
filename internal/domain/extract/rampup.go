package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/trustscore/internal/domain/clarity"
	"github.com/okian/trustscore/internal/domain/model"
)

// RampUp rates README clarity through ev. An empty README scores 0 without
// calling the evaluator. Evaluator errors are returned so the engine can
// record the metric as failed.
func RampUp(ev clarity.Evaluator) Func {
	return func(ctx context.Context, d *model.RepositoryDescriptor) (Raw, error) {
		if strings.TrimSpace(d.Readme) == "" {
			return Raw{}, nil
		}
		if ev == nil {
			return Raw{}, ErrNoEvaluator
		}
		v, err := ev.Rate(ctx, d.Readme)
		if err != nil {
			return Raw{}, fmt.Errorf("rate readme: %w", err)
		}
		return value(Clamp01(v)), nil
	}
}
