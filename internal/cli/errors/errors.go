// Package errors provides rich error types and display for the countme CLI.
//
// Errors are designed to be user-friendly with:
//   - Clear error codes for documentation/support
//   - Actionable suggestions
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents an error code for categorization.
type Code string

// Common error codes
const (
	CodeUnknown             Code = "UNKNOWN"
	CodeConfigInvalid       Code = "CONFIG_INVALID"
	CodeCatalogUnreadable   Code = "CATALOG_UNREADABLE"
	CodeCookieCorrupt       Code = "COOKIE_CORRUPT"
	CodeUnsupportedPlatform Code = "UNSUPPORTED_PLATFORM"
	CodeAllRequestsFailed   Code = "ALL_REQUESTS_FAILED"
	CodePersistence         Code = "PERSISTENCE"
)

// Rich is an enhanced error with additional context for display.
type Rich struct {
	// Code is a unique error code for categorization
	Code Code
	// Message is the user-friendly error message
	Message string
	// Details provides additional technical information
	Details string
	// Suggestions are actionable items the user can try
	Suggestions []string
	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *Rich) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Rich) Unwrap() error {
	return e.Cause
}

// New creates a new Rich error.
func New(code Code, message string) *Rich {
	return &Rich{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code Code, message string) *Rich {
	return &Rich{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WithDetails adds technical details to the error.
func (e *Rich) WithDetails(details string) *Rich {
	e.Details = details
	return e
}

// WithSuggestions adds actionable suggestions.
func (e *Rich) WithSuggestions(suggestions ...string) *Rich {
	e.Suggestions = suggestions
	return e
}

// AsRich converts an error to a Rich error if possible.
func AsRich(err error) *Rich {
	var rich *Rich
	if errors.As(err, &rich) {
		return rich
	}
	return nil
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	rich := AsRich(err)
	return rich != nil && rich.Code == code
}

// Display formats an error for terminal output.
func Display(err error) string {
	rich := AsRich(err)
	if rich == nil {
		return fmt.Sprintf("Error: %v", err)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Error [%s]: %s\n", rich.Code, rich.Message))

	if rich.Details != "" {
		b.WriteString(fmt.Sprintf("  Details: %s\n", rich.Details))
	}

	if rich.Cause != nil {
		b.WriteString(fmt.Sprintf("  Caused by: %v\n", rich.Cause))
	}

	if len(rich.Suggestions) > 0 {
		b.WriteString("  Suggestions:\n")
		for _, s := range rich.Suggestions {
			b.WriteString(fmt.Sprintf("    - %s\n", s))
		}
	}

	return b.String()
}

// Common errors with helpful messages

// CatalogUnreadable returns an error for an unreadable repository catalog.
func CatalogUnreadable(path string, cause error) *Rich {
	return Wrap(cause, CodeCatalogUnreadable, "Repository configuration could not be read").
		WithDetails(fmt.Sprintf("File: %s", path)).
		WithSuggestions(
			"Check the file permissions",
			"Verify the file is valid INI syntax",
		)
}

// UnsupportedPlatform returns an error for the missing platform marker.
func UnsupportedPlatform(markerPath string) *Rich {
	return New(CodeUnsupportedPlatform, "Not running on a supported host").
		WithDetails(fmt.Sprintf("Marker not found: %s", markerPath)).
		WithSuggestions(
			"This tool only runs on hosts carrying the platform marker",
		)
}

// AllRequestsFailed returns an error for a run where no request succeeded.
func AllRequestsFailed(total int) *Rich {
	return New(CodeAllRequestsFailed, "No request successful").
		WithDetails(fmt.Sprintf("All %d requests failed", total)).
		WithSuggestions(
			"Check network connectivity",
			"The next scheduled run will retry the same window",
		)
}
