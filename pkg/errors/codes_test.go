package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestTetherError_Error(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "Startup", "invalid config file", nil)
	expected := "[1001] Startup: invalid config file"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}

	cause := errors.New("file not found")
	errWithCause := New(ErrCodeConfigInvalid, "Startup", "invalid config file", cause)
	expectedWithCause := "[1001] Startup: invalid config file (cause: file not found)"
	if errWithCause.Error() != expectedWithCause {
		t.Errorf("Expected %q, got %q", expectedWithCause, errWithCause.Error())
	}
}

func TestTetherError_Unwrap(t *testing.T) {
	cause := errors.New("file not found")
	err := New(ErrCodeConfigInvalid, "Startup", "invalid config file", cause)

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Expected cause %v, got %v", cause, unwrapped)
	}

	errNoCause := New(ErrCodeConfigInvalid, "Startup", "invalid config file", nil)
	if errors.Unwrap(errNoCause) != nil {
		t.Errorf("Expected nil cause, got %v", errors.Unwrap(errNoCause))
	}
}

func TestTetherError_Sentinels(t *testing.T) {
	err := New(ErrCodeTerminated, "Bootstrap", "lifecycle became terminal", ErrTerminated)
	if !Is(err, ErrTerminated) {
		t.Fatalf("Expected ErrTerminated in chain of %v", err)
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if CodeOf(wrapped) != ErrCodeTerminated {
		t.Errorf("Expected code %v, got %v", ErrCodeTerminated, CodeOf(wrapped))
	}
	if CodeOf(errors.New("plain")) != ErrCodeUnknown {
		t.Errorf("Expected unknown code for plain error")
	}
}
