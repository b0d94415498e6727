package retry

import "errors"

// Sentinel kinds for retry errors.
var (
	// ErrExhausted is returned once every allowed attempt has failed.
	ErrExhausted = errors.New("retry attempts exhausted")
	// ErrPermanent is returned when an attempt fails with a non-retryable error.
	ErrPermanent = errors.New("non-retryable failure")
)
