package scoring

import "errors"

var (
	// ErrNilDescriptor is returned when Score is called without a descriptor.
	ErrNilDescriptor = errors.New("nil repository descriptor")
	// ErrMetricTimeout marks a metric that ran past its deadline.
	ErrMetricTimeout = errors.New("metric deadline exceeded")
	// ErrExtractorPanic marks a metric whose extractor panicked.
	ErrExtractorPanic = errors.New("extractor panicked")
)
