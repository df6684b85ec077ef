package domain

import (
	"errors"
	"fmt"
)

// Kind is a closed sum of the error categories the core can produce. HTTP
// status mapping and idempotency caching policy both switch on Kind, never
// on concrete error values or exception hierarchies.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindNotFound          Kind = "NOT_FOUND"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindConflict          Kind = "CONFLICT"
	KindContention        Kind = "CONTENTION"
	KindCorruption        Kind = "CORRUPTION"
	KindInfrastructure    Kind = "INFRASTRUCTURE"
)

// Error is the one error type every core operation returns. It carries a
// Kind for dispatch and wraps the underlying cause (storage driver error,
// etc.) for logging without leaking it into caller-facing status mapping.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Message: msg, Err: cause}
}

func NewValidation(msg string) *Error              { return newErr(KindValidation, msg, nil) }
func NewNotFound(msg string) *Error                { return newErr(KindNotFound, msg, nil) }
func NewInsufficientFunds(msg string) *Error        { return newErr(KindInsufficientFunds, msg, nil) }
func NewConflict(msg string) *Error                 { return newErr(KindConflict, msg, nil) }
func NewContention(msg string, cause error) *Error  { return newErr(KindContention, msg, cause) }
func NewCorruption(msg string) *Error               { return newErr(KindCorruption, msg, nil) }
func NewInfrastructure(msg string, cause error) *Error {
	return newErr(KindInfrastructure, msg, cause)
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, defaulting
// to KindInfrastructure for anything unrecognized — an unclassified storage
// failure is treated as infrastructure, never silently swallowed.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInfrastructure
}
