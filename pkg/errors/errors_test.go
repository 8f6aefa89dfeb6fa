package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "Without cause",
			err:  New(ErrCodeNotFound, "invoice not found"),
			want: "NOT_FOUND: invoice not found",
		},
		{
			name: "With cause",
			err:  Wrap(fmt.Errorf("disk full"), ErrCodeInternalError, "failed to save invoice"),
			want: "INTERNAL_ERROR: failed to save invoice (disk full)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_UnwrapAndIs(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := fmt.Errorf("saving: %w", Wrap(cause, ErrCodeInternalError, "failed"))

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if !stderrors.Is(err, New(ErrCodeInternalError, "")) {
		t.Error("errors.Is should match by code")
	}
	if stderrors.Is(err, New(ErrCodeNotFound, "")) {
		t.Error("errors.Is matched a different code")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("x: %w", New(ErrCodeLimitExceeded, "too many items"))); got != ErrCodeLimitExceeded {
		t.Errorf("CodeOf() = %q, want %q", got, ErrCodeLimitExceeded)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
	if !HasCode(New(ErrCodeValidationFailed, "x"), ErrCodeValidationFailed) {
		t.Error("HasCode() = false, want true")
	}
}
