package runs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no run matches the given id.
	ErrNotFound = errors.New("analysis run not found")
	// ErrTerminalState is returned when an update targets a run already in
	// a terminal status.
	ErrTerminalState = errors.New("analysis run already in terminal status")
)

const (
	ErrorCodeValidation      = "VALIDATION_ERROR"
	ErrorCodeNotFound        = "NOT_FOUND"
	ErrorCodeDatasetNotFound = "REFERENCE_DATASET_NOT_FOUND"
	ErrorCodeInternal        = "INTERNAL_ERROR"
)

// FieldError is a single (path, message) pair of a validation failure.
type FieldError struct {
	Path    string `json:"field"`
	Message string `json:"issue"`
}

// ValidationError reports every offending field of an invalid payload, not
// just the first. It is an expected, caller-recoverable condition.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Path+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// ConfigError marks an internally inconsistent deploy state, such as a
// reference-sample id with no resolver entry or stored JSON that no longer
// satisfies its own schema. It is fatal: logged server-side, surfaced to
// callers as a generic internal error.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error in %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
