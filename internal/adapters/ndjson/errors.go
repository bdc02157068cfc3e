package ndjson

import "errors"

// Sentinel kinds for NDJSON errors.
var (
	ErrWrite  = errors.New("write record failed")
	ErrRead   = errors.New("read input failed")
	ErrDecode = errors.New("decode descriptor failed")
)
