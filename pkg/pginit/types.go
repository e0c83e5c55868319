package pginit

import (
	"errors"
	"fmt"
	"time"
)

// ProvisionConfig contains all parameters needed for a provisioning run.
type ProvisionConfig struct {
	// ConnectionString is the PostgreSQL connection string (URI or ADO.NET
	// format) for the administrative user. After CLI resolution it points at
	// the admin (maintenance) database.
	ConnectionString string

	// AdminDatabase is the database to connect to for server-level operations
	// (CREATE DATABASE, CREATE USER). Typically "postgres".
	AdminDatabase string

	// RoleName is the role to create.
	RoleName string

	// RolePassword is the password for the new role. Sourced from the
	// environment, a file, or a secrets manager. Never logged, never echoed
	// in error output.
	RolePassword string

	// AuthDatabase is the first database to create (the identity provider's).
	AuthDatabase string

	// AppDatabase is the second database to create; the grant batch runs
	// against it.
	AppDatabase string

	// Grants are the privilege specifications applied to AppDatabase.
	// When empty, the built-in ALL-privilege grants are used.
	Grants []GrantSpec

	// IfNotExists enables the opt-in idempotent mode: CREATE statements whose
	// object already exists are skipped and grants are re-issued. Off by
	// default; a second plain run fails exactly like the original script.
	IfNotExists bool

	// Wipe drops the role and both databases before provisioning.
	// Destructive, so it requires approval.
	Wipe bool

	// Force bypasses interactive approval when used with Wipe.
	Force bool

	// Timeout is the global timeout for the entire run.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Azure Entra ID authentication parameters (AuthMethodAzureEntraID).
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is required for AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name
	// (project:region:instance) for AuthMethodGoogleIAM.
	GoogleInstance string
}

// Validate checks if the ProvisionConfig has all required fields and valid
// values. It returns a multi-error if multiple validation failures occur.
// The password is checked separately so its absence surfaces before any
// connection attempt.
func (c *ProvisionConfig) Validate() error {
	var errs []error

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.RoleName == "" {
		errs = append(errs, fmt.Errorf("RoleName is required: %w", ErrInvalidConfig))
	}

	if c.AuthDatabase == "" {
		errs = append(errs, fmt.Errorf("AuthDatabase is required: %w", ErrInvalidConfig))
	}

	if c.AppDatabase == "" {
		errs = append(errs, fmt.Errorf("AppDatabase is required: %w", ErrInvalidConfig))
	}

	if c.AuthDatabase == c.AppDatabase {
		errs = append(errs, fmt.Errorf("AuthDatabase and AppDatabase must differ: %w", ErrInvalidConfig))
	}

	if c.RolePassword == "" {
		errs = append(errs, ErrMissingPassword)
	}

	// Force requires Wipe to be set
	if c.Force && !c.Wipe {
		errs = append(errs, fmt.Errorf("force flag requires wipe to be enabled: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// VerifyConfig contains all parameters needed for a verification run.
type VerifyConfig struct {
	// ConnectionString is the PostgreSQL connection string for the
	// administrative user.
	ConnectionString string

	// RoleName, AuthDatabase, and AppDatabase name the objects to verify.
	RoleName     string
	AuthDatabase string
	AppDatabase  string

	// Timeout is the global timeout for the verification run.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Azure Entra ID authentication parameters (AuthMethodAzureEntraID).
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is required for AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name for
	// AuthMethodGoogleIAM.
	GoogleInstance string
}

// Validate checks if the VerifyConfig has all required fields.
func (c *VerifyConfig) Validate() error {
	var errs []error

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.RoleName == "" {
		errs = append(errs, fmt.Errorf("RoleName is required: %w", ErrInvalidConfig))
	}

	if c.AuthDatabase == "" {
		errs = append(errs, fmt.Errorf("AuthDatabase is required: %w", ErrInvalidConfig))
	}

	if c.AppDatabase == "" {
		errs = append(errs, fmt.Errorf("AppDatabase is required: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// GrantSpec describes one privilege grant applied to the application
// database. Privileges defaults to ALL when empty, matching the original
// script (flagged there as a hardening opportunity, so narrower sets are
// representable).
type GrantSpec struct {
	// Target is what the privileges apply to.
	Target GrantTarget

	// Privileges is the privilege list, e.g. []string{"SELECT", "INSERT"}.
	// Empty means ALL.
	Privileges []string
}

// GrantTarget identifies the object class a GrantSpec applies to.
type GrantTarget int

const (
	GrantTargetSchema          GrantTarget = iota // GRANT ... ON SCHEMA public
	GrantTargetDatabase                           // GRANT ... ON DATABASE <app>
	GrantTargetFutureTables                       // ALTER DEFAULT PRIVILEGES ... ON TABLES
	GrantTargetFutureSequences                    // ALTER DEFAULT PRIVILEGES ... ON SEQUENCES
)

// String returns a human-readable string representation of the GrantTarget.
func (t GrantTarget) String() string {
	switch t {
	case GrantTargetSchema:
		return "schema"
	case GrantTargetDatabase:
		return "database"
	case GrantTargetFutureTables:
		return "future tables"
	case GrantTargetFutureSequences:
		return "future sequences"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID authentication parameters (AuthMethodAzureEntraID).
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, the DefaultAzureCredential chain is used.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is required for AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name
	// (project:region:instance) for AuthMethodGoogleIAM.
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
