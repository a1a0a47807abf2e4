package ledger

import (
	"errors"
	"fmt"

	"github.com/roach88/ghostledger/internal/money"
)

// ErrorCode categorises domain errors.
type ErrorCode string

const (
	// CodeValidation indicates a malformed request: non-positive amount,
	// missing id, unknown enum value.
	CodeValidation ErrorCode = "VALIDATION"

	// CodeNotFound indicates a referenced vault, debt, challenge or transfer
	// does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeInvalidState indicates the entity exists but is in the wrong state
	// for the operation.
	CodeInvalidState ErrorCode = "INVALID_STATE"

	// CodeInsufficientFunds indicates a withdrawal larger than the balance.
	CodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
)

// Sentinels for errors.Is matching by code.
var (
	ErrValidation        = &Error{Code: CodeValidation}
	ErrNotFound          = &Error{Code: CodeNotFound}
	ErrInvalidState      = &Error{Code: CodeInvalidState}
	ErrInsufficientFunds = &Error{Code: CodeInsufficientFunds}
)

// Error is a domain error. Commands return it before emitting any event;
// replay returns it when the log violates a state-machine rule.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Entity names the kind of object involved ("vault", "transfer", ...).
	Entity string

	// ID identifies the object involved, when there is one.
	ID string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Entity != "" && e.ID != "" {
		return fmt.Sprintf("%s: %s (%s=%s)", e.Code, e.Message, e.Entity, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// CodeOf returns the domain code of err, or "" for non-domain errors.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsInvalidState returns true if err is an invalid-state error.
func IsInvalidState(err error) bool { return CodeOf(err) == CodeInvalidState }

// IsInsufficientFunds returns true if err is an insufficient-funds error.
func IsInsufficientFunds(err error) bool { return CodeOf(err) == CodeInsufficientFunds }

// NewValidationError creates a validation error.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError creates a not-found error for entity id.
func NewNotFoundError(entity, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: entity + " not found",
		Entity:  entity,
		ID:      id,
	}
}

// NewInvalidStateError creates an invalid-state error for entity id.
func NewInvalidStateError(entity, id, format string, args ...any) *Error {
	return &Error{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf(format, args...),
		Entity:  entity,
		ID:      id,
	}
}

// NewAlreadyExistsError creates an invalid-state error for a duplicate id.
func NewAlreadyExistsError(entity, id string) *Error {
	e := NewInvalidStateError(entity, id, "%s already exists", entity)
	e.Details = map[string]string{"reason": "ALREADY_EXISTS"}
	return e
}

// NewInsufficientFundsError creates an insufficient-funds error.
func NewInsufficientFundsError(entity, id string, requested, available money.Cents) *Error {
	return &Error{
		Code:    CodeInsufficientFunds,
		Message: fmt.Sprintf("requested %d cents, available %d cents", requested, available),
		Entity:  entity,
		ID:      id,
		Details: map[string]string{
			"requested_cents": fmt.Sprintf("%d", requested),
			"available_cents": fmt.Sprintf("%d", available),
		},
	}
}
