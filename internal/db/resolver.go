package db

import (
	"fmt"
	"strconv"

	"github.com/drinkbar/pginit/pkg/pginit"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-H, -p, -U).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use one of these methods instead:
//  1. $PGPASSWORD environment variable
//  2. Connection string with embedded password
type GranularConnFlags struct {
	Host          string
	Port          int
	Username      string
	AdminDatabase string
	SSLMode       string
}

// IsEmpty returns true if no connection-related granular flags were provided.
// AdminDatabase is excluded because it can also override the database in a
// connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CloudAuthFlags selects a cloud IAM authentication method.
// At most one method may be enabled.
// Note: the Azure client secret is NOT a CLI flag; use AZURE_CLIENT_SECRET.
type CloudAuthFlags struct {
	Azure         bool   // Azure Entra ID token authentication
	AzureTenantID string // Overrides AZURE_TENANT_ID
	AzureClientID string // Overrides AZURE_CLIENT_ID

	AWSIAM    bool   // AWS RDS IAM token authentication
	AWSRegion string // Overrides AWS_REGION

	GoogleInstance string // Cloud SQL instance (project:region:instance); implies Google IAM
}

// ResolveConnectionParams resolves connection parameters using
// PostgreSQL-standard precedence:
//
//  1. Connection string flag (--connection) - if provided, parse and use directly
//  2. Granular flags (-H, -p, -U) - if any provided, build config from flags
//  3. Environment variables (POSTGRES_USER/POSTGRES_DB, then PGHOST, PGPORT, ...)
//  4. Defaults (localhost:5432, admin database "postgres", prefer SSL)
//
// Returns the resolved ConnectionConfig and the admin (maintenance) database
// name for server-level statements. The config's Database field is set to
// the admin database; callers retarget it per batch.
//
// Conflict Detection:
// Returns an error if BOTH --connection AND granular flags are provided, or
// if more than one cloud auth method is enabled.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudAuthFlags,
	envVars *EnvVars,
) (*pginit.ConnectionConfig, string, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudAuthFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, "", fmt.Errorf("--connection and granular connection flags (--host, --port, --username, --sslmode) are mutually exclusive: %w",
			pginit.ErrInvalidConfig)
	}

	var config *pginit.ConnectionConfig
	if connStringFlag != "" {
		parsed, err := ParseConnectionString(connStringFlag)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse connection string: %w", err)
		}
		config = parsed
	} else {
		config = buildFromFlagsAndEnv(granularFlags, envVars)
	}

	// --admin-database always wins over the connection string database.
	adminDB := granularFlags.AdminDatabase
	if adminDB == "" {
		adminDB = config.Database
	}
	if adminDB == "" {
		adminDB = pginit.DefaultAdminDatabase
	}
	config.Database = adminDB

	if err := applyCloudAuth(config, cloudFlags, envVars); err != nil {
		return nil, "", err
	}

	return config, adminDB, nil
}

// buildFromFlagsAndEnv constructs a ConnectionConfig from granular flags and
// environment variables with flag > env > default precedence. POSTGRES_USER
// and POSTGRES_DB take precedence over PGUSER and PGDATABASE because they
// are the contract of the container-init environment this tool runs in.
func buildFromFlagsAndEnv(flags *GranularConnFlags, envVars *EnvVars) *pginit.ConnectionConfig {
	config := defaultConnectionConfig()

	if flags.Host != "" {
		config.Host = flags.Host
	} else if envVars.PGHOST != "" {
		config.Host = envVars.PGHOST
	}

	if flags.Port != 0 {
		config.Port = flags.Port
	} else if envVars.PGPORT != "" {
		if port, err := strconv.Atoi(envVars.PGPORT); err == nil {
			config.Port = port
		}
	}

	switch {
	case flags.Username != "":
		config.Username = flags.Username
	case envVars.PostgresUser != "":
		config.Username = envVars.PostgresUser
	case envVars.PGUSER != "":
		config.Username = envVars.PGUSER
	default:
		config.Username = "postgres"
	}

	config.Password = envVars.PGPASSWORD

	switch {
	case envVars.PostgresDB != "":
		config.Database = envVars.PostgresDB
	case envVars.PGDATABASE != "":
		config.Database = envVars.PGDATABASE
	}

	if flags.SSLMode != "" {
		config.SSLMode = flags.SSLMode
	} else if envVars.PGSSLMODE != "" {
		config.SSLMode = envVars.PGSSLMODE
	}

	return config
}

// applyCloudAuth sets the auth method and credentials from cloud flags and
// environment variables. CLI flags take precedence over environment values.
func applyCloudAuth(config *pginit.ConnectionConfig, flags *CloudAuthFlags, envVars *EnvVars) error {
	methods := 0
	if flags.Azure {
		methods++
	}
	if flags.AWSIAM {
		methods++
	}
	if flags.GoogleInstance != "" {
		methods++
	}
	if methods > 1 {
		return fmt.Errorf("only one cloud auth method may be enabled (--azure, --aws-iam, --google-instance): %w",
			pginit.ErrInvalidConfig)
	}

	switch {
	case flags.Azure:
		config.AuthMethod = pginit.AuthMethodAzureEntraID
		config.AzureTenantID = firstNonEmpty(flags.AzureTenantID, envVars.AzureTenantID)
		config.AzureClientID = firstNonEmpty(flags.AzureClientID, envVars.AzureClientID)
		config.AzureClientSecret = envVars.AzureClientSecret

	case flags.AWSIAM:
		config.AuthMethod = pginit.AuthMethodAWSIAM
		config.AWSRegion = firstNonEmpty(flags.AWSRegion, envVars.AWSRegion)
		if config.AWSRegion == "" {
			return fmt.Errorf("AWS IAM auth requires a region (--aws-region or $AWS_REGION): %w",
				pginit.ErrInvalidConfig)
		}

	case flags.GoogleInstance != "":
		config.AuthMethod = pginit.AuthMethodGoogleIAM
		config.GoogleInstance = flags.GoogleInstance
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
