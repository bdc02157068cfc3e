package extract

import (
	"context"
	"strings"

	"github.com/okian/trustscore/internal/domain/model"
)

// DatasetAndCode counts linked artifacts: a dataset, code (or the repository
// being code itself) and a demo, each worth a third.
func DatasetAndCode(_ context.Context, d *model.RepositoryDescriptor) (Raw, error) {
	linked := 0
	if strings.TrimSpace(d.DatasetURL) != "" {
		linked++
	}
	if strings.TrimSpace(d.CodeURL) != "" || d.Kind == model.KindCode {
		linked++
	}
	if strings.TrimSpace(d.DemoURL) != "" {
		linked++
	}
	return value(float64(linked) / 3), nil
}
