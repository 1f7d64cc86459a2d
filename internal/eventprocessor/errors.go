// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package eventprocessor

import "errors"

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// RetryableError represents an error that can be retried.
// These errors are typically transient (network issues, timeouts).
type RetryableError struct {
	Message string
	Cause   error
}

// NewRetryableError creates a new retryable error.
func NewRetryableError(message string, cause error) *RetryableError {
	return &RetryableError{Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *RetryableError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *RetryableError) Unwrap() error {
	return e.Cause
}

// PermanentError represents an error that should not be retried.
// The router sends messages failing with a PermanentError to the poison
// topic and acknowledges them.
type PermanentError struct {
	Message string
	Cause   error
}

// NewPermanentError creates a new permanent error.
func NewPermanentError(message string, cause error) *PermanentError {
	return &PermanentError{Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *PermanentError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *PermanentError) Unwrap() error {
	return e.Cause
}

// IsRetryableError reports whether err or any error it wraps is a RetryableError.
func IsRetryableError(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// IsPermanentError reports whether err or any error it wraps is a PermanentError.
func IsPermanentError(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
