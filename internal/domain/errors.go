package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation policy and HTTP mapping.
type Kind string

const (
	// KindValidation is bad input: empty or oversized message, malformed body.
	KindValidation Kind = "validation"
	// KindAuth is a missing/invalid credential or a user id mismatch.
	KindAuth Kind = "auth"
	// KindNotFound is an unknown or non-owned resource. Uniform regardless of
	// which case applies.
	KindNotFound Kind = "not_found"
	// KindRateLimit means the per-user window is exhausted. Retryable.
	KindRateLimit Kind = "rate_limited"
	// KindToolExecution is a handler-level tool failure. Never fatal to the
	// cycle: it is folded into the ToolCallRecord instead of propagating.
	KindToolExecution Kind = "tool_execution"
	// KindUpstreamAgent means the reasoning engine was unreachable or returned
	// garbage. Fatal to the request.
	KindUpstreamAgent Kind = "upstream_agent"
	// KindPersistence is a message log or task store failure.
	KindPersistence Kind = "persistence"
)

// Error is a classified error. Message must be safe to return to the caller;
// internal detail belongs in the wrapped cause, which is logged only.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// E builds a classified error with a user-safe message.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause that is logged but never returned to the caller.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the kind of err. Unclassified errors return the empty kind
// so transport falls back to a generic 500.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// SafeMessage returns the user-safe message of a classified error, or a
// generic fallback for unclassified ones.
func SafeMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
