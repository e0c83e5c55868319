package pginit

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := provisioner.Provision(ctx, config)
//	if errors.Is(err, pginit.ErrStatementFailed) {
//	    // A provisioning statement was rejected by the server
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingPassword indicates the role password resolved to an empty
	// string. Provisioning refuses to create a role with an empty password.
	ErrMissingPassword = errors.New("role password is empty or unset")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrStatementFailed indicates a provisioning statement was rejected.
	ErrStatementFailed = errors.New("statement failed")

	// ErrApprovalDenied indicates the user denied approval for the wipe.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrVerifyFailed indicates verification found missing objects or privileges.
	ErrVerifyFailed = errors.New("verification failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method
	// is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// StatementError reports which provisioning statement failed. The shell
// script this tool replaces only surfaced psql's exit status; the ordinal
// and summary here identify the exact statement without echoing its SQL
// (the CREATE USER statement embeds the password).
type StatementError struct {
	// Ordinal is the 1-based position of the statement across both batches.
	Ordinal int

	// Total is the total number of planned statements.
	Total int

	// Summary is a short human-readable description, e.g.
	// `create role "keycloak"`.
	Summary string

	// Database is the database the statement was executed against.
	Database string

	// Err is the underlying driver error.
	Err error
}

// Error implements the error interface.
func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %d/%d (%s) against database %q: %v",
		e.Ordinal, e.Total, e.Summary, e.Database, e.Err)
}

// Unwrap returns the underlying driver error.
func (e *StatementError) Unwrap() error {
	return e.Err
}

// Is reports a match for ErrStatementFailed so callers can classify the
// failure without knowing the concrete type.
func (e *StatementError) Is(target error) bool {
	return target == ErrStatementFailed
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrMissingPassword):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrStatementFailed):
		return ExitExecutionFailed
	case errors.Is(err, ErrVerifyFailed):
		return ExitVerifyFailed
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	}

	errStr := err.Error()

	// Cobra reports flag and argument misuse as plain errors
	if strings.Contains(errStr, "unknown flag") ||
		strings.Contains(errStr, "unknown shorthand flag") ||
		strings.Contains(errStr, "unknown command") ||
		strings.Contains(errStr, "required flag") ||
		strings.Contains(errStr, "invalid argument") ||
		(strings.Contains(errStr, "accepts") && strings.Contains(errStr, "arg(s)")) {
		return ExitUsageError
	}

	// Check for common connection error patterns
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
