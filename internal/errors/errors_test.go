package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{
			name: "with underlying error",
			err:  NewExitError(ErrNoDevice, ExitUser),
			want: "no optical device",
		},
		{
			name: "with wrapped error",
			err:  NewExitError(fmt.Errorf("loading config: %w", ErrInvalidConfig), ExitUser),
			want: "loading config: invalid configuration",
		},
		{
			name: "nil underlying error",
			err:  NewExitError(nil, ExitUser),
			want: "exit code 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ExitError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	tests := []struct {
		name       string
		err        *ExitError
		wantTarget error
		wantIs     bool
	}{
		{
			name:       "unwrap to sentinel error",
			err:        NewExitError(ErrNoDevice, ExitUser),
			wantTarget: ErrNoDevice,
			wantIs:     true,
		},
		{
			name:       "unwrap through wrapped error",
			err:        NewDeviceError(fmt.Errorf("opening tray: %w", ErrNoDevice)),
			wantTarget: ErrNoDevice,
			wantIs:     true,
		},
		{
			name:       "no match for different sentinel",
			err:        NewExitError(ErrNoDevice, ExitUser),
			wantTarget: ErrInvalidConfig,
			wantIs:     false,
		},
		{
			name:       "nil underlying error",
			err:        NewExitError(nil, ExitUser),
			wantTarget: ErrNoDevice,
			wantIs:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.wantTarget); got != tt.wantIs {
				t.Errorf("errors.Is() = %v, want %v", got, tt.wantIs)
			}
		})
	}
}

func TestExitError_As(t *testing.T) {
	var exitErr *ExitError
	err := fmt.Errorf("command failed: %w", NewCapacityError(errors.New("disc full")))
	if !errors.As(err, &exitErr) {
		t.Fatal("errors.As() = false, want true")
	}
	if exitErr.Code != ExitSystem {
		t.Errorf("ExitError.Code = %d, want %d", exitErr.Code, ExitSystem)
	}

	if errors.As(ErrNoDevice, &exitErr) {
		t.Error("errors.As() on a plain sentinel = true, want false")
	}
}

func TestNewConstructors(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		name           string
		got            *ExitError
		wantCode       int
		wantSuggestion string
	}{
		{"NewExitError", NewExitError(cause, 42), 42, ""},
		{"NewUserError", NewUserError(cause, "check input"), ExitUser, "check input"},
		{"NewSystemError", NewSystemError(cause, "check logs"), ExitSystem, "check logs"},
		{"NewConfigError", NewConfigError(cause), ExitUser, "Run: cback doctor"},
		{"NewDeviceError", NewDeviceError(cause), ExitSystem, "Run: cback doctor"},
		{"NewCapacityError", NewCapacityError(cause), ExitSystem, SuggestMedia},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Err != cause {
				t.Errorf("Err = %v, want %v", tt.got.Err, cause)
			}
			if tt.got.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", tt.got.Code, tt.wantCode)
			}
			if tt.got.Suggestion != tt.wantSuggestion {
				t.Errorf("Suggestion = %q, want %q", tt.got.Suggestion, tt.wantSuggestion)
			}
		})
	}
}

func TestExitCodeConstants(t *testing.T) {
	if ExitSuccess != 0 || ExitUser != 1 || ExitSystem != 2 {
		t.Errorf("exit codes = %d/%d/%d, want 0/1/2", ExitSuccess, ExitUser, ExitSystem)
	}
}
