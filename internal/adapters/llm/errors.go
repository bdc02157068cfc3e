package llm

import "errors"

// Sentinel errors returned by the chat-completions client.
var (
	ErrRequest    = errors.New("llm request failed")
	ErrStatus     = errors.New("llm unexpected status")
	ErrDecode     = errors.New("llm response decode failed")
	ErrNoChoices  = errors.New("llm response has no choices")
	ErrNoEndpoint = errors.New("llm endpoint not configured")
)
