package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test error")
	expected := "INVALID_INPUT: test error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("original error")
	err := Wrap(originalErr, ErrCodePlatform, "wrapped error")

	if err.Cause != originalErr {
		t.Errorf("Cause = %v, want %v", err.Cause, originalErr)
	}

	errorMsg := err.Error()
	if !contains(errorMsg, "original error") {
		t.Errorf("Error() should contain cause, got: %v", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("errors.Is should match the wrapped cause")
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test error")
	err.WithContext("field", "value").WithContext("count", 42)

	if err.Context["field"] != "value" {
		t.Errorf("Context[field] = %v, want 'value'", err.Context["field"])
	}
	if err.Context["count"] != 42 {
		t.Errorf("Context[count] = %v, want 42", err.Context["count"])
	}
}

func TestNewRateLimit(t *testing.T) {
	err := NewRateLimit(42)
	if err.Code != ErrCodeRateLimit {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeRateLimit)
	}
	if err.Context["retry_after_seconds"] != 42 {
		t.Errorf("retry_after_seconds = %v, want 42", err.Context["retry_after_seconds"])
	}
}

func TestGetAppError(t *testing.T) {
	appErr := NewNotOwner()
	wrapped := fmt.Errorf("handler: %w", appErr)

	got := GetAppError(wrapped)
	if got == nil || got.Code != ErrCodeNotOwner {
		t.Errorf("GetAppError through wrap = %v, want code %v", got, ErrCodeNotOwner)
	}

	if GetAppError(errors.New("plain")) != nil {
		t.Error("GetAppError on plain error should be nil")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewInvalidTransfer("bad")); got != ErrCodeInvalidTransfer {
		t.Errorf("CodeOf = %v, want %v", got, ErrCodeInvalidTransfer)
	}
	if got := CodeOf(errors.New("plain")); got != ErrCodeInternal {
		t.Errorf("CodeOf plain = %v, want %v", got, ErrCodeInternal)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
