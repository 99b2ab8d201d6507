package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrInvalidResponse means the provider answered but the payload does not match the declared output schema.
var ErrInvalidResponse = errors.New("invalid AI response")
