package registry

import "errors"

var (
	// ErrInvalidWeights is returned when a weight table is unusable.
	ErrInvalidWeights = errors.New("invalid metric weights")
	// ErrMissingExtractor is returned when a metric has no extractor bound.
	ErrMissingExtractor = errors.New("missing extractor")
)
