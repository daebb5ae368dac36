package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest marks caller errors such as a missing source key.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrObjectNotFound is returned when the source object never appeared
	// within the poll timeout.
	ErrObjectNotFound = errors.New("object not found")
)

// BackendError wraps a storage failure that happened during Op.
type BackendError struct {
	Op  string
	Key string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError wraps err unless it is nil.
func NewBackendError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Key: key, Err: err}
}

// IsBackendError reports whether err is (or wraps) a *BackendError.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
