package submission

import "errors"

// Sentinel kinds for submission errors.
var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrUnknownPolicy    = errors.New("unknown numeric policy")
)
