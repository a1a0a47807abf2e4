package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while the engine executes a
// command, as opposed to a domain rejection (*ledger.Error) returned by the
// command itself.
//
// Runtime errors include:
//   - Rejected events: a command decided events that do not replay
//   - Provider failure: the outcome of a transfer is unknown
//
// RuntimeError includes structured fields for diagnostics and recovery.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Command names the command being executed.
	Command string

	// TransferID identifies the affected transfer (provider errors).
	TransferID string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeRejectedEvents indicates a command produced events the reducer
	// refused. It always points at a command bug; the log is left unchanged.
	ErrCodeRejectedEvents RuntimeErrorCode = "REJECTED_EVENTS"

	// ErrCodeProvider indicates the payment provider call failed without a
	// definite answer. The transfer stays REQUESTED and may be retried.
	ErrCodeProvider RuntimeErrorCode = "PROVIDER_ERROR"
)

// EffectRejectedCode is the TRANSFER_FAILED error code recorded when a
// transfer's effect no longer applies and the provider was never called.
const EffectRejectedCode = "EFFECT_REJECTED"

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Command != "" {
		msg += fmt.Sprintf(" (command=%s)", e.Command)
	}
	if e.TransferID != "" {
		msg += fmt.Sprintf(" (transfer=%s)", e.TransferID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error { return e.Err }

// IsRejectedEventsError returns true if a command's events failed replay.
// Uses errors.As to handle wrapped errors.
func IsRejectedEventsError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeRejectedEvents
	}
	return false
}

// IsProviderError returns true if the provider call failed.
// Uses errors.As to handle wrapped errors.
func IsProviderError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeProvider
	}
	return false
}

// NewRejectedEventsError creates a RuntimeError for events that do not replay.
func NewRejectedEventsError(command string, events int, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeRejectedEvents,
		Message: "decided events do not replay",
		Command: command,
		Details: map[string]string{"events": fmt.Sprintf("%d", events)},
		Err:     err,
	}
}

// NewProviderError creates a RuntimeError for a failed provider call.
func NewProviderError(transferID string, err error) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeProvider,
		Message:    "transfer provider failed",
		TransferID: transferID,
		Err:        err,
	}
}
