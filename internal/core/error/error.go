package errx

import (
	"errors"
	"fmt"
)

// Kind classifies extraction failures. Every error crossing a component
// boundary inside the pipeline carries exactly one of these.
type Kind int

const (
	// KindUnknown is the catch-all for unclassified failures.
	KindUnknown Kind = iota
	// KindPromptUnavailable means both remote and local prompt resolution
	// failed. Terminal for the current extraction.
	KindPromptUnavailable
	// KindFormat means model output did not match the expected shape or types.
	KindFormat
	// KindTransient covers timeouts and connection failures. Retried by the
	// invoker; surfaced only once the attempt ceiling is exhausted.
	KindTransient
	// KindUnparseable means the repair layer exhausted all strategies.
	// "No usable data", not a system error.
	KindUnparseable
)

func (k Kind) String() string {
	switch k {
	case KindPromptUnavailable:
		return "prompt_unavailable"
	case KindFormat:
		return "format_error"
	case KindTransient:
		return "transient_service_error"
	case KindUnparseable:
		return "unparseable"
	default:
		return "unknown_error"
	}
}

// Error wraps an underlying error with a failure kind and a safe message.
type Error struct {
	Err     error
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the provided information.
func New(err error, kind Kind, message string) *Error {
	return &Error{
		Err:     err,
		Kind:    kind,
		Message: message,
	}
}

// PromptUnavailable tags err as a terminal prompt-resolution failure.
func PromptUnavailable(err error) *Error {
	return New(err, KindPromptUnavailable, "prompt could not be resolved")
}

// Format tags err as a shape/type mismatch in model output.
func Format(err error) *Error {
	return New(err, KindFormat, "model output did not match expected format")
}

// Transient tags err as a retryable service failure.
func Transient(err error) *Error {
	return New(err, KindTransient, "text generation service unavailable")
}

// Unparseable tags err as a repair-layer exhaustion.
func Unparseable(err error) *Error {
	return New(err, KindUnparseable, "no usable data in model output")
}

// KindOf extracts the failure kind from an error chain. Plain errors
// classify as KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether the target matches the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to Error or the wrapped error in a chain.
func (e *Error) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**Error); ok {
		*t = e
		return true
	}
	return false
}
