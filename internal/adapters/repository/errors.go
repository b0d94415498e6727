package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for store errors.
var (
	// ErrStoreUnavailable is returned when the backend kept failing transiently.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStoreRejected is returned when the backend refused an operation outright.
	ErrStoreRejected = errors.New("store rejected operation")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrInvalidConfig = errors.New("invalid store configuration")
	ErrClosed        = errors.New("store closed")
)

// StoreError wraps a backend failure with the operation name and whether
// repeating the operation may succeed.
type StoreError struct {
	Op        string
	Err       error
	Transient bool
}

func (e *StoreError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsTransient reports whether err carries a StoreError marked transient.
func IsTransient(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Transient
}

func storeErr(op string, err error, transient bool) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err, Transient: transient}
}
