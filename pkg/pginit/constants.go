package pginit

import (
	"strings"
	"time"
)

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Provisioning/verification completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration (includes missing role password)
	ExitConnectionError = 11 // Failed to connect to database
	ExitApprovalDenied  = 12 // User denied wipe approval
	ExitExecutionFailed = 13 // A provisioning statement failed
	ExitVerifyFailed    = 14 // Verification found missing objects or privileges
)

// Built-in provisioning defaults. These mirror the DrinkBar deployment:
// a keycloak role with its own database for the identity provider, and the
// application database the backend connects to.
const (
	// DefaultAdminDatabase is the database to connect to for server-level
	// operations (CREATE DATABASE, CREATE USER).
	DefaultAdminDatabase = "postgres"

	// DefaultRoleName is the role created for the application stack.
	DefaultRoleName = "keycloak"

	// DefaultAuthDatabase is the database created for the identity provider.
	DefaultAuthDatabase = "keycloak"

	// DefaultAppDatabase is the application database that receives the
	// schema grants and default privileges.
	DefaultAppDatabase = "drinkbar"

	// DefaultPasswordEnv is the environment variable holding the new role's
	// password when no other password source is selected.
	DefaultPasswordEnv = "KEYCLOAK_DB_PASSWORD"
)

const (
	// DefaultTimeout bounds the whole provisioning run. The shell script this
	// tool replaces had no timeout at all; a hung server kept the container
	// init waiting forever.
	DefaultTimeout = 2 * time.Minute

	// DefaultForceApprovalCountdown is the countdown duration before forced
	// wipe approval proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first
	// connection retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between connection
	// retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of connection
	// retry attempts. Statement execution is never retried.
	DefaultRetryMaxAttempts = 3
)

// IsTemplateDatabase reports whether the name refers to one of PostgreSQL's
// template databases, which must never be dropped or provisioned into.
func IsTemplateDatabase(name string) bool {
	lower := strings.ToLower(name)
	return lower == "template0" || lower == "template1"
}
