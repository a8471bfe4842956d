package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "empty dataset",
			err:         fmt.Errorf("analyze session: %w", ErrEmptyDataset),
			wantCode:    "ANL001",
			wantMessage: "No vehicle rows are loaded",
		},
		{
			name:        "export without result",
			err:         ErrNoResult,
			wantCode:    "EXP001",
			wantMessage: "Nothing to export",
		},
		{
			name:        "unknown export format is not a file error",
			err:         fmt.Errorf("%w: docx", ErrUnsupportedExport),
			wantCode:    "EXP002",
			wantMessage: "Unknown export format",
		},
		{
			name:        "unsupported upload format",
			err:         fmt.Errorf("%w: %q", ErrUnsupportedFormat, ".pdf"),
			wantCode:    "FILE002",
			wantMessage: "File type is not a supported report",
		},
		{
			name:        "decode failure",
			err:         fmt.Errorf("%w: fleet.xlsx: zip: not a valid zip file", ErrDecodeFailed),
			wantCode:    "FILE003",
			wantMessage: "File content could not be read",
		},
		{
			name:        "file too large",
			err:         fmt.Errorf("%w: 30MB exceeds limit", ErrFileTooLarge),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum upload size",
		},
		{
			name:        "session not found",
			err:         fmt.Errorf("%w: abc", ErrSessionNotFound),
			wantCode:    "SES001",
			wantMessage: "Session not found",
		},
		{
			name:        "malformed body wins over wrapped decoder text",
			err:         fmt.Errorf("%w: invalid character 'x' in empty dataset", ErrMalformedRequest),
			wantCode:    "ANL004",
			wantMessage: "Analysis settings could not be read",
		},
		{
			name:        "session limit",
			err:         fmt.Errorf("%w: limit 1000", ErrTooManySessions),
			wantCode:    "SES002",
			wantMessage: "Too many open sessions",
		},
		{
			name:        "too many batches",
			err:         ErrTooManyBatches,
			wantCode:    "UPL002",
			wantMessage: "System busy",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("EMPTY DATASET"),
			wantCode:    "ANL001",
			wantMessage: "No vehicle rows are loaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrEmptyDataset)

	expected := "No vehicle rows are loaded (Code: ANL001). Upload report files before running the analysis"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: ErrNoResult, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("session abc: %w", ErrSessionNotFound)
		userErr := NewUserError(techErr)

		if userErr.Error() != "Session not found" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrSessionNotFound) {
			t.Error("Unwrap() should expose the original error chain")
		}
	})
}
