// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error classification for hioload-calc.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrWouldBlock   = errors.New("no pending connection")
	ErrInterrupted  = errors.New("wait interrupted")
	ErrShortRecord  = errors.New("short record")
	ErrNotSupported = errors.New("operation not supported")
	ErrClosed       = errors.New("resource is closed")
	ErrInvalidPort  = errors.New("port out of range")
	ErrInvalidPath  = errors.New("empty socket path")
)

// ErrorCode classifies a failure by how the service reacts to it.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	// ErrCodeUsage is malformed command-line input; nothing has been created yet.
	ErrCodeUsage
	// ErrCodeSetup is a listener socket/bind/listen failure at startup.
	ErrCodeSetup
	// ErrCodeConnection is an accept/read/write failure on a single connection.
	ErrCodeConnection
	// ErrCodeProtocol is a wrong-size record on the wire.
	ErrCodeProtocol
	// ErrCodeFacility is a failure of the readiness facility itself.
	ErrCodeFacility
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeUsage:
		return "usage"
	case ErrCodeSetup:
		return "setup"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeProtocol:
		return "protocol"
	case ErrCodeFacility:
		return "facility"
	default:
		return "internal"
	}
}

// Error represents a structured error with code, cause and context.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf returns the code of the outermost *Error in err's chain,
// ErrCodeOK for nil and ErrCodeInternal for unclassified errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}
