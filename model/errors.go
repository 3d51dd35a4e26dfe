package model

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse reports generated text that does not have the expected
// structure.
var ErrMalformedResponse = errors.New("malformed model response")

// ServiceError represents a failure of the external text-generation service
// (transport, auth, quota, empty reply).
type ServiceError struct {
	Provider string
	err      error
}

// NewServiceError wraps err as a ServiceError for provider.
func NewServiceError(provider string, err error) error {
	return &ServiceError{Provider: provider, err: err}
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service error: %v", e.Provider, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// IsServiceError returns true if err is or wraps a ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
