package registry

import (
	"context"
	"errors"
	"fmt"
)

// Stable error codes returned to callers in the error envelope.
const (
	CodeUnknownOperation = "unknown_operation"
	CodeInvalidArgument  = "invalid_argument"
	CodeDuplicateName    = "duplicate_name"
	CodeCanceled         = "canceled"
	CodeInternal         = "internal"
)

// ErrSealed is returned by Register once the registry has been sealed.
var ErrSealed = errors.New("registry is sealed")

// Coder is implemented by errors that carry a stable code.
type Coder interface {
	ErrorCode() string
}

// UnknownOperationError means no descriptor matches (kind, name).
type UnknownOperationError struct {
	Kind Kind
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}

// ErrorCode implements Coder.
func (e *UnknownOperationError) ErrorCode() string { return CodeUnknownOperation }

// InvalidArgumentError means an argument does not match the declared shape.
type InvalidArgumentError struct {
	// Field is the offending argument, or "arguments" for the object as a whole
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

// ErrorCode implements Coder.
func (e *InvalidArgumentError) ErrorCode() string { return CodeInvalidArgument }

// DuplicateNameError is returned when (kind, name) is registered twice.
type DuplicateNameError struct {
	Kind Kind
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q is already registered", e.Kind, e.Name)
}

// ErrorCode implements Coder.
func (e *DuplicateNameError) ErrorCode() string { return CodeDuplicateName }

// HandlerError wraps a failure returned by a handler.
type HandlerError struct {
	Kind    Kind
	Name    string
	Code    string
	Message string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s %q failed: %s", e.Kind, e.Name, e.Message)
}

// Unwrap returns the handler's original error.
func (e *HandlerError) Unwrap() error { return e.Err }

// ErrorCode implements Coder.
func (e *HandlerError) ErrorCode() string { return e.Code }

func newHandlerError(kind Kind, name string, err error) *HandlerError {
	return &HandlerError{
		Kind:    kind,
		Name:    name,
		Code:    CodeOf(err),
		Message: err.Error(),
		Err:     err,
	}
}

// CodeOf returns the stable code for err: the first code found in its chain,
// CodeCanceled for context errors, CodeInternal otherwise.
func CodeOf(err error) string {
	var coder Coder
	if errors.As(err, &coder) {
		return coder.ErrorCode()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCanceled
	}
	return CodeInternal
}

// ErrorEnvelope is the uniform error shape handed to the transport.
type ErrorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope converts err into an ErrorEnvelope. HandlerErrors report the handler's
// original message rather than the wrapped one.
func Envelope(err error) ErrorEnvelope {
	var herr *HandlerError
	if errors.As(err, &herr) {
		return ErrorEnvelope{Code: herr.Code, Message: herr.Message}
	}
	return ErrorEnvelope{Code: CodeOf(err), Message: err.Error()}
}
