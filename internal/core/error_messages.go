package core

// # Error Codes Reference
//
// User-facing messages carry a code that can be quoted to support staff.
// Codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Patterns: "file too large"
//	FILE002 - Unsupported format: File type is not a supported report
//	          Patterns: "unsupported format"
//	FILE003 - Unreadable file: File content could not be decoded
//	          Patterns: "decode failed", "encoding error"
//	FILE004 - No file: No file was selected
//	          Patterns: "no file provided"
//	FILE005 - Empty file: The uploaded file is empty
//	          Patterns: "empty file"
//
// # Analysis Errors (ANL001-ANL099)
//
//	ANL001 - Nothing to analyze: No vehicle rows are loaded
//	         Patterns: "empty dataset"
//	ANL002 - Invalid minimum: Minimum km must be zero or more
//	         Patterns: "invalid min km"
//	ANL003 - Invalid idle policy: Idle days or percentage out of range
//	         Patterns: "invalid idle policy"
//	ANL004 - Unreadable settings: Analysis request body is not valid JSON
//	         Patterns: "malformed request body"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Nothing to export: No analysis has been run
//	         Patterns: "no analysis result"
//	EXP002 - Unknown export format
//	         Patterns: "unsupported export format"
//
// # Session and Upload Errors (SES, UPL)
//
//	SES001 - Session expired: Session not found
//	         Patterns: "session not found"
//	SES002 - Too many sessions: Live session limit reached
//	         Patterns: "too many sessions"
//	UPL001 - Too many files in one batch
//	         Patterns: "too many files"
//	UPL002 - System busy: Too many batches in progress
//	         Patterns: "too many batches"
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns go before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Their text contains the pattern MapError keys on.
var (
	ErrEmptyDataset      = errors.New("empty dataset: no vehicle rows loaded")
	ErrNoResult          = errors.New("no analysis result: run an analysis first")
	ErrSessionNotFound   = errors.New("session not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrUnsupportedExport = errors.New("unsupported export format")
	ErrTooManyFiles      = errors.New("too many files in batch")
	ErrEmptyFile         = errors.New("empty file")
	ErrNoFile            = errors.New("no file provided")
	ErrInvalidMinKm      = errors.New("invalid min km: must be zero or more")
	ErrInvalidIdlePolicy = errors.New("invalid idle policy")
	ErrDecodeFailed      = errors.New("decode failed")
	ErrFileTooLarge      = errors.New("file too large")
	ErrMalformedRequest  = errors.New("malformed request body")
	ErrTooManySessions   = errors.New("too many sessions")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Request errors. Checked first: the wrapped decoder text is arbitrary.
	{
		pattern: "malformed request body",
		msg: UserMessage{
			Message: "Analysis settings could not be read",
			Action:  "Send a JSON object with minKm, source, idleMode, idleDays and idlePct",
			Code:    "ANL004",
		},
	},

	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Export a shorter period or split the report",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported export format",
		msg: UserMessage{
			Message: "Unknown export format",
			Action:  "Choose PDF, XLSX, HTML or JSON",
			Code:    "EXP002",
		},
	},
	{
		pattern: "unsupported format",
		msg: UserMessage{
			Message: "File type is not a supported report",
			Action:  "Upload .xlsx, .csv, .json or .txt exports",
			Code:    "FILE002",
		},
	},
	{
		pattern: "decode failed",
		msg: UserMessage{
			Message: "File content could not be read",
			Action:  "Re-export the report from the tracking platform",
			Code:    "FILE003",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Select one or more report files",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a report with vehicle rows",
			Code:    "FILE005",
		},
	},

	// Analysis errors
	{
		pattern: "empty dataset",
		msg: UserMessage{
			Message: "No vehicle rows are loaded",
			Action:  "Upload report files before running the analysis",
			Code:    "ANL001",
		},
	},
	{
		pattern: "invalid min km",
		msg: UserMessage{
			Message: "Minimum km must be zero or more",
			Action:  "Correct the minimum km value",
			Code:    "ANL002",
		},
	},
	{
		pattern: "invalid idle policy",
		msg: UserMessage{
			Message: "Idle allowance settings are out of range",
			Action:  "Use a positive number of days or a percentage between 0 and 100",
			Code:    "ANL003",
		},
	},

	// Export errors
	{
		pattern: "no analysis result",
		msg: UserMessage{
			Message: "Nothing to export",
			Action:  "Run an analysis first",
			Code:    "EXP001",
		},
	},

	// Session and upload errors
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Session not found",
			Action:  "The session may have expired. Upload the files again",
			Code:    "SES001",
		},
	},
	{
		pattern: "too many sessions",
		msg: UserMessage{
			Message: "Too many open sessions",
			Action:  "Please try again later",
			Code:    "SES002",
		},
	},
	{
		pattern: "too many files",
		msg: UserMessage{
			Message: "Too many files in one upload",
			Action:  "Upload fewer files at once",
			Code:    "UPL001",
		},
	},
	{
		pattern: "too many batches",
		msg: UserMessage{
			Message: "System busy",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Upload fewer or smaller files",
			Code:    "UPL005",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first pattern match or the ERR000 fallback.
//
//	msg := MapError(fmt.Errorf("analyze: %w", ErrEmptyDataset))
//	// msg.Code == "ANL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
