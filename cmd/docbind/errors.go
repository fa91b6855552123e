package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arthur-debert/docbind/types"
)

// CLIError represents a user-friendly CLI error with context and suggestions
type CLIError struct {
	Operation   string   // The operation that failed (e.g., "get document", "query")
	Cause       string   // The underlying cause (e.g., "document not found")
	Details     string   // Additional technical details
	Suggestions []string // Helpful suggestions for the user
	Underlying  error    // Original error for debugging
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var msg strings.Builder

	// Start with operation context
	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("Failed to %s", e.Operation))
	} else {
		msg.WriteString("Operation failed")
	}

	// Add the main cause
	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}

	// Add technical details if available
	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}

	// Add suggestions
	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return msg.String()
}

// Unwrap returns the underlying error for error chain compatibility
func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewValidationError creates an error for invalid user input
func NewValidationError(operation, field, value string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("invalid %s: %q", field, value),
		Suggestions: suggestions,
	}
}

// NewNotFoundError creates an error for a missing document
func NewNotFoundError(operation, path string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("document %q not found", path),
		Suggestions: suggestions,
		Underlying:  types.ErrNotFound,
	}
}

// NewConfigError creates an error for configuration issues
func NewConfigError(operation, issue string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("configuration error: %s", issue),
		Suggestions: suggestions,
	}
}

// NewStoreError creates an error for store failures, naming the common
// causes in plain words.
func NewStoreError(operation string, underlying error, suggestions ...string) *CLIError {
	cause := "store operation failed"
	details := ""

	if underlying != nil {
		details = underlying.Error()

		switch {
		case errors.Is(underlying, types.ErrNotFound):
			cause = "document not found"
		case errors.Is(underlying, types.ErrInvalidPath):
			cause = "invalid path"
		case errors.Is(underlying, types.ErrInvalidQuery):
			cause = "invalid query"
		case strings.Contains(strings.ToLower(details), "permission denied"):
			cause = "insufficient permissions to access the data file"
		case strings.Contains(details, "failed to acquire lock"):
			cause = "data file is locked by another process"
		}
	}

	return &CLIError{
		Operation:   operation,
		Cause:       cause,
		Details:     details,
		Suggestions: suggestions,
		Underlying:  underlying,
	}
}

// NewFilterError creates an error for a malformed --where clause
func NewFilterError(operation, filter, issue string) *CLIError {
	ops := make([]string, len(types.Operators))
	for i, op := range types.Operators {
		ops[i] = string(op)
	}
	return &CLIError{
		Operation: operation,
		Cause:     fmt.Sprintf("invalid filter %q: %s", filter, issue),
		Suggestions: []string{
			"Use format: --where field:operator:value",
			"Available operators: " + strings.Join(ops, ", "),
			"Separate list values with commas: --where genre:in:scifi,classic",
		},
	}
}

// WrapError wraps an existing error with CLI-friendly context
func WrapError(operation string, err error, suggestions ...string) error {
	if err == nil {
		return nil
	}

	// If it's already a CLIError, just update the operation
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Operation == "" {
			cliErr.Operation = operation
		}
		return cliErr
	}

	return NewStoreError(operation, err, suggestions...)
}

// Common error messages and suggestions
var (
	CommonSuggestions = struct {
		CheckPath   string
		CheckStore  string
		CheckConfig string
		CheckFlags  string
		RunHelp     string
	}{
		CheckPath:   "Document paths alternate collection and ID segments, e.g. books/dune or authors/herbert/awards/hugo",
		CheckStore:  "Verify --driver and --path (or --uri and --database) point to a reachable store",
		CheckConfig: "Check your configuration file or DOCBIND_* environment variables",
		CheckFlags:  "Check command line flags and their values",
		RunHelp:     "Run command with --help for usage information",
	}
)
