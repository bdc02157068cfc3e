package fetch

import "errors"

// Sentinel errors for registry lookups.
var (
	ErrNotHuggingFace = errors.New("not a huggingface url")
	ErrNotGitHub      = errors.New("not a github url")
	ErrNotFound       = errors.New("repository not found")
	ErrStatus         = errors.New("unexpected registry status")
	ErrDecode         = errors.New("registry response decode failed")
	ErrReadURLs       = errors.New("read url file failed")
)
