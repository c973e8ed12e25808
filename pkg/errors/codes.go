package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique identifier for specific error conditions in Tether.
type ErrorCode int

const (
	ErrCodeUnknown       ErrorCode = 1000
	ErrCodeConfigInvalid ErrorCode = 1001

	// Authorization
	ErrCodeAuthorizeFailed  ErrorCode = 2001
	ErrCodeIdentityTimeout  ErrorCode = 2002
	ErrCodeIdentityRejected ErrorCode = 2003

	// Bootstrap
	ErrCodeStatesFetchFailed ErrorCode = 3001
	ErrCodeTerminated        ErrorCode = 3002

	// Channel
	ErrCodeDialFailed  ErrorCode = 4001
	ErrCodeFrameDecode ErrorCode = 4002

	// One-shot requests
	ErrCodeRequestFailed ErrorCode = 5001
	ErrCodeBadStatus     ErrorCode = 5002
)

var (
	// ErrTerminated is returned by blocking calls that resume after the
	// lifecycle has become terminal.
	ErrTerminated = stderrors.New("session terminated")
	// ErrIdentityTimeout is returned when no session identity arrives in time.
	ErrIdentityTimeout = stderrors.New("session identity not available")
)

// TetherError is a custom error type that provides structured error information,
// including an error code, the operation being performed, and the underlying cause.
type TetherError struct {
	// Code is the specific error code.
	Code ErrorCode
	// Msg is a human-readable description of the error.
	Msg string
	// Operation describes the action being performed when the error occurred.
	Operation string
	// Err is the underlying error that caused this error, if any.
	Err error
}

// Error returns a formatted string representation of the error.
func (e *TetherError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %s (cause: %v)", e.Code, e.Operation, e.Msg, e.Err)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Code, e.Operation, e.Msg)
}

// Unwrap returns the underlying error.
func (e *TetherError) Unwrap() error {
	return e.Err
}

// New creates a new TetherError with the specified code, operation, message, and underlying error.
func New(code ErrorCode, op, msg string, err error) error {
	return &TetherError{
		Code:      code,
		Msg:       msg,
		Operation: op,
		Err:       err,
	}
}

// CodeOf returns the code of the first TetherError in err's chain, or
// ErrCodeUnknown.
func CodeOf(err error) ErrorCode {
	var te *TetherError
	if stderrors.As(err, &te) {
		return te.Code
	}
	return ErrCodeUnknown
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// Personal.AI order the ending
