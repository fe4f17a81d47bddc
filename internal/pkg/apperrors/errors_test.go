package apperrors

import (
	"errors"
	"testing"
)

func TestAppErrorError(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "With Code",
			appError: &AppError{
				Code:    "TEST_CODE",
				Message: "This is a test error",
			},
			expected: "[TEST_CODE] This is a test error",
		},
		{
			name: "Without Code",
			appError: &AppError{
				Message: "This is a test error without code",
			},
			expected: "This is a test error without code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.appError.Error()
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("age", "age cannot be negative")

	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected error to wrap ErrValidation, got %v", err)
	}

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected error to contain a ValidationError, got %T", err)
	}
	if validationErr.Field != "age" {
		t.Errorf("expected field %q, got %q", "age", validationErr.Field)
	}
	if validationErr.Message != "age cannot be negative" {
		t.Errorf("unexpected message %q", validationErr.Message)
	}
}

func TestWrapErrors(t *testing.T) {
	cause := errors.New("connection refused")

	dbErr := WrapDatabaseError(cause, "failed to insert customer")
	if !errors.Is(dbErr, ErrDatabase) || !errors.Is(dbErr, cause) {
		t.Errorf("expected database error to wrap ErrDatabase and the cause, got %v", dbErr)
	}
	if dbErr.Error() != "[DB_ERROR] failed to insert customer" {
		t.Errorf("unexpected message %q", dbErr.Error())
	}

	storeErr := WrapStoreError(cause, "failed to run script")
	if !errors.Is(storeErr, ErrUnavailable) || !errors.Is(storeErr, cause) {
		t.Errorf("expected store error to wrap ErrUnavailable and the cause, got %v", storeErr)
	}
}
