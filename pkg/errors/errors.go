// Package errors defines the error taxonomy shared by the scrape pipeline.
package errors

import (
	"fmt"
	"time"
)

// ErrorType classifies pipeline errors
type ErrorType string

const (
	// TypeNetwork covers fetch failures, timeouts and rate limiting
	TypeNetwork ErrorType = "network"
	// TypePayload covers unparseable responses (HTML, JSON, PDF)
	TypePayload ErrorType = "payload"
	// TypeValidation covers records rejected by extraction rules
	TypeValidation ErrorType = "validation"
	// TypePersistence covers database failures
	TypePersistence ErrorType = "persistence"
)

// PipelineError is an error with classification and source context
type PipelineError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a retry can reasonably succeed
func (e *PipelineError) IsRetryable() bool {
	return e.Type == TypeNetwork
}

func newError(errType ErrorType, source, message string, err error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetworkError creates a network error
func NewNetworkError(source, message string, err error) *PipelineError {
	return newError(TypeNetwork, source, message, err)
}

// NewPayloadError creates a payload error
func NewPayloadError(source, message string, err error) *PipelineError {
	return newError(TypePayload, source, message, err)
}

// NewValidationError creates a validation error
func NewValidationError(source, message string, err error) *PipelineError {
	return newError(TypeValidation, source, message, err)
}

// NewPersistenceError creates a persistence error
func NewPersistenceError(source, message string, err error) *PipelineError {
	return newError(TypePersistence, source, message, err)
}
