package extract

import "errors"

// ErrNoEvaluator is returned by RampUp when no clarity evaluator was wired.
var ErrNoEvaluator = errors.New("no clarity evaluator")
