package registry

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// weightTolerance is how far the weight sum may drift from 1.
const weightTolerance = 1e-6

// DefaultWeights returns the stock weight table.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		PerformanceClaims: 0.15,
		License:           0.10,
		RampUpTime:        0.15,
		BusFactor:         0.10,
		CodeQuality:       0.10,
		DatasetAndCode:    0.15,
		DatasetQuality:    0.15,
		SizeScore:         0.10,
	}
}

// Weights is a validated, read-only weight table.
type Weights struct {
	byName map[string]float64
}

// NewWeights validates m: every registered metric must appear exactly once,
// no unknown names, no negative or non-finite weights, and the sum must be 1.
func NewWeights(m map[string]float64) (Weights, error) {
	if err := ValidateWeights(m); err != nil {
		return Weights{}, err
	}
	byName := make(map[string]float64, len(m))
	for k, v := range m {
		byName[k] = v
	}
	return Weights{byName: byName}, nil
}

// ValidateWeights checks m without building a table.
func ValidateWeights(m map[string]float64) error {
	var unknown []string
	for name := range m {
		if !IsMetric(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unknown metrics %s", ErrInvalidWeights, strings.Join(unknown, ", "))
	}

	sum := 0.0
	for _, name := range Names() {
		w, ok := m[name]
		if !ok {
			return fmt.Errorf("%w: missing weight for %s", ErrInvalidWeights, name)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: %s has weight %v", ErrInvalidWeights, name, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1", ErrInvalidWeights, sum)
	}
	return nil
}

// Of returns the weight of name, or 0 for unknown metrics.
func (w Weights) Of(name string) float64 {
	return w.byName[name]
}

// Map returns a copy of the table.
func (w Weights) Map() map[string]float64 {
	out := make(map[string]float64, len(w.byName))
	for k, v := range w.byName {
		out[k] = v
	}
	return out
}
