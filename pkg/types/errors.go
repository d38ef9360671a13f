package types

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested place or package id does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports a malformed request parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is implements errors.Is support for ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ForbiddenError reports an ad-hoc statement rejected for a blocked keyword.
type ForbiddenError struct {
	Keyword string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden keyword %q in query", e.Keyword)
}

// Is implements errors.Is support for ForbiddenError.
func (e *ForbiddenError) Is(target error) bool {
	_, ok := target.(*ForbiddenError)
	return ok
}

// ConfigurationError reports a fatal setup problem such as a missing model,
// a missing vector index or a dimension mismatch. It is never retried.
type ConfigurationError struct {
	Component string
	Err       error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s configuration error: %v", e.Component, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support for ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	_, ok := target.(*ConfigurationError)
	return ok
}

// NewConfigurationError wraps err as a ConfigurationError for component.
func NewConfigurationError(component string, err error) *ConfigurationError {
	return &ConfigurationError{Component: component, Err: err}
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
