package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", NotFound("snippet", "abc"), ErrNotFound},
		{"validation", ValidationFailed("title", "required"), ErrValidation},
		{"conflict", Conflict("duplicate"), ErrConflict},
		{"version conflict", VersionConflict(1, 3), ErrConflict},
		{"forbidden", Forbidden("nope"), ErrForbidden},
		{"unauthorized", Unauthorized("log in first"), ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.sentinel)
			}
		})
	}
}

// errors.Is must survive wrapping, since services wrap repository
// errors with fmt.Errorf("%w", ...).
func TestSentinelMatching_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("loading snippet: %w", NotFound("snippet", "abc"))
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped AppError no longer matches its sentinel")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As failed to recover the AppError")
	}
	if appErr.Message != "snippet not found with id abc" {
		t.Errorf("message = %q", appErr.Message)
	}
}

func TestVersionConflictMessage(t *testing.T) {
	err := VersionConflict(2, 5)
	if err.Message != "snippet was revised concurrently: base version 2, current version 5" {
		t.Errorf("message = %q", err.Message)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "email is required")
	if err.Field != "email" {
		t.Errorf("field = %q, want %q", err.Field, "email")
	}
	if err.Error() != "email is required" {
		t.Errorf("Error() = %q", err.Error())
	}
}
