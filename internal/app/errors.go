package service

import "errors"

// Sentinel errors for batch runs.
var (
	ErrUnknownFormat = errors.New("unknown input format")
	ErrNoResolver    = errors.New("url input needs a resolver")
)
