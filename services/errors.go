package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies workflow failures into the three channels the
// presentation layer renders identically.
type ErrorKind string

const (
	// KindRequestFailed means the backend was reachable but the call
	// failed (non-2xx or a logical success=false response).
	KindRequestFailed ErrorKind = "request_failed"
	// KindTransportUnavailable means the backend could not be reached
	// at all (connection refused, DNS failure).
	KindTransportUnavailable ErrorKind = "transport_unavailable"
	// KindPrecondition means a required local input was missing; no
	// network call was made.
	KindPrecondition ErrorKind = "precondition"
)

// FlowError is the single error type crossing the transport and workflow
// boundaries. Message is always safe to show to the user.
type FlowError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *FlowError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func requestFailed(op, message string) *FlowError {
	return &FlowError{Kind: KindRequestFailed, Op: op, Message: message}
}

func transportUnavailable(op string, err error) *FlowError {
	return &FlowError{
		Kind:    KindTransportUnavailable,
		Op:      op,
		Message: "backend service is unreachable (is the backend running?)",
		Err:     err,
	}
}

func precondition(op, message string) *FlowError {
	return &FlowError{Kind: KindPrecondition, Op: op, Message: message}
}

// KindOf returns the FlowError kind, or KindRequestFailed for any other
// error so callers always have a renderable classification.
func KindOf(err error) ErrorKind {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindRequestFailed
}

// MessageOf returns the user-facing message for an error.
func MessageOf(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}
