// Package errs provides the unified error type used across all of querykit.
//
// Every subsystem (connection manager, query builder, executor, drivers,
// export) wraps its native errors into *errs.Error before returning them to
// callers. Callers use the Is* predicates to branch on the failure class
// without importing driver-specific packages.
//
// Usage:
//
//	// In a driver, wrap native errors:
//	return errs.Wrap(errs.ErrKindConnectionFailed, "connect failed", pgErr)
//
//	// In a caller, check the error kind:
//	if errs.IsAlreadyExecuted(err) {
//	    return nil // one-shot session already produced its result
//	}
package errs

import (
	"context"
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// Connection-phase and execution-phase failures always carry distinct kinds.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindConnectionFailed         // secret retrieval, DSN rendering or driver connect
	ErrKindTemplate                 // malformed template or substitution failure
	ErrKindMissingParameter         // template references a key with no value
	ErrKindNotConnected             // execution attempted without an open connection
	ErrKindAlreadyExecuted          // one-shot executor used twice
	ErrKindQueryFailed              // driver failure during execute, scan or iterate
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindNotFound                 // missing object, bucket or file
	ErrKindPermissionDenied         // access denied / auth failure on storage
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTemplate:
		return "template"
	case ErrKindMissingParameter:
		return "missing_parameter"
	case ErrKindNotConnected:
		return "not_connected"
	case ErrKindAlreadyExecuted:
		return "already_executed"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all querykit subsystems.
// Producers build it with New/Wrap; callers inspect it via the Is* predicates.
type Error struct {
	Kind    ErrKind
	Message string
	Param   string // offending key for ErrKindMissingParameter, empty otherwise
	Cause   error  // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// MissingParameter creates an ErrKindMissingParameter error naming key.
func MissingParameter(key string) *Error {
	return &Error{
		Kind:    ErrKindMissingParameter,
		Message: fmt.Sprintf("missing value for parameter %q", key),
		Param:   key,
	}
}

// --- Predicates ---

// IsConnectionFailed reports whether err is a connection-phase failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsTemplate reports whether err is a template parse or render failure.
func IsTemplate(err error) bool {
	return KindOf(err) == ErrKindTemplate
}

// IsMissingParameter reports whether err names an unfilled template key.
func IsMissingParameter(err error) bool {
	return KindOf(err) == ErrKindMissingParameter
}

// IsNotConnected reports whether err was caused by running on a closed,
// stale or never-opened connection.
func IsNotConnected(err error) bool {
	return KindOf(err) == ErrKindNotConnected
}

// IsAlreadyExecuted reports whether err is a one-shot violation.
func IsAlreadyExecuted(err error) bool {
	return KindOf(err) == ErrKindAlreadyExecuted
}

// IsQueryFailed reports whether err is an execution-phase driver failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsNotFound reports whether err represents a missing object, bucket or file.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsTimeout reports whether a context deadline or cancellation appears
// anywhere in the cause chain. It is orthogonal to the phase kind: a connect
// timeout is both IsConnectionFailed and IsTimeout.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// KindOf extracts the ErrKind of the outermost *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

// ParamOf returns the parameter name carried by a missing-parameter error.
func ParamOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Param
	}
	return ""
}
