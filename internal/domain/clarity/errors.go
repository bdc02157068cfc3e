package clarity

import "errors"

var (
	// ErrEmptyReply is returned when an evaluator answered with nothing.
	ErrEmptyReply = errors.New("empty clarity reply")
	// ErrNoScore is returned when a reply holds no usable number.
	ErrNoScore = errors.New("no score in clarity reply")
	// ErrDisabled is returned by Disabled.
	ErrDisabled = errors.New("clarity evaluation disabled")
)
