// Package apperr defines the error taxonomy shared by the store, the tool
// adapters and the agent core.
//
// Every failure that crosses a component boundary is an *Error carrying one
// Kind. Callers branch with errors.Is against the per-kind sentinels:
//
//	if errors.Is(err, apperr.ErrNotFound) { ... }
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindNotFound         Kind = "NotFound"
	KindInvalidInput     Kind = "InvalidInput"
	KindToolLoopExceeded Kind = "ToolLoopExceeded"
	KindModelUnavailable Kind = "ModelUnavailable"
	KindUpstreamData     Kind = "UpstreamDataError"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
	ErrToolLoopExceeded = &Error{Kind: KindToolLoopExceeded}
	ErrModelUnavailable = &Error{Kind: KindModelUnavailable}
	ErrUpstreamData     = &Error{Kind: KindUpstreamData}
)

// Error is a typed failure. Err, when set, is the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so wrapped errors match the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// toolPayload is the machine-readable body surfaced to the model as a tool
// observation.
type toolPayload struct {
	Code    Kind   `json:"code"`
	Message string `json:"message"`
}

// ToolPayload returns a compact, single-line JSON body so tool observations
// stay small.
func (e *Error) ToolPayload() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	b, _ := json.Marshal(toolPayload{Code: e.Kind, Message: msg})
	return string(b)
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

func InvalidInput(format string, args ...any) *Error {
	return newf(KindInvalidInput, format, args...)
}

func ToolLoopExceeded(format string, args ...any) *Error {
	return newf(KindToolLoopExceeded, format, args...)
}

// ModelUnavailable wraps a failure to reach the language model.
func ModelUnavailable(err error) *Error {
	return &Error{Kind: KindModelUnavailable, Message: "language model unavailable", Err: err}
}

// UpstreamData wraps an unexpected failure of a backing collaborator.
func UpstreamData(op string, err error) *Error {
	return &Error{Kind: KindUpstreamData, Message: op, Err: err}
}

// KindOf returns the kind of err. Errors that are not *Error are reported as
// upstream failures: anything unclassified came from a collaborator.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstreamData
}

// From converts err into an *Error, classifying foreign errors with KindOf.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindUpstreamData, Err: err}
}
