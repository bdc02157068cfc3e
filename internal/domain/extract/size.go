package extract

import (
	"context"
	"math"
	"path"
	"strings"

	"github.com/okian/trustscore/internal/domain/model"
)

const bytesPerMB = 1e6

// SizeCaps holds the per-target model size budget in MB.
type SizeCaps map[string]float64

// DefaultSizeCaps returns the budget of each deployment target.
func DefaultSizeCaps() SizeCaps {
	return SizeCaps{
		model.TargetRaspberryPi: 500,
		model.TargetJetsonNano:  1500,
		model.TargetDesktopPC:   8000,
		model.TargetAWSServer:   16000,
	}
}

var weightExtensions = []string{ //nolint:gochecknoglobals // extension table
	".safetensors", ".bin", ".pt", ".pth", ".ckpt", ".onnx", ".tflite", ".h5", ".gguf", ".msgpack",
}

// IsWeightFile reports whether p looks like a model weight file.
func IsWeightFile(p string) bool {
	return hasAnySuffix(strings.ToLower(path.Base(p)), weightExtensions)
}

// WeightBytes sums the sizes of weight files in the manifest, saturating at
// math.MaxInt64.
func WeightBytes(files []model.FileEntry) (total int64, found bool) {
	for _, f := range files {
		if !IsWeightFile(f.Path) {
			continue
		}
		found = true
		if f.Size > 0 {
			if f.Size > math.MaxInt64-total {
				total = math.MaxInt64
				continue
			}
			total += f.Size
		}
	}
	return total, found
}

// Size scores how well the weights fit each deployment target. Raw value is
// the weight size in MB. A manifest without weight files scores 0 on every
// target.
func Size(caps SizeCaps) Func {
	merged := DefaultSizeCaps()
	for target, c := range caps {
		if _, known := merged[target]; known && c > 0 {
			merged[target] = c
		}
	}
	return func(_ context.Context, d *model.RepositoryDescriptor) (Raw, error) {
		targets := make(map[string]float64, len(model.SizeTargets))
		total, found := WeightBytes(d.Files)
		mb := float64(total) / bytesPerMB
		for _, t := range model.SizeTargets {
			if !found {
				targets[t] = 0
				continue
			}
			targets[t] = Clamp01(1 - mb/merged[t])
		}
		return Raw{Value: mb, Targets: targets}, nil
	}
}
