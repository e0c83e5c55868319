package cli

import (
	"os"

	"github.com/drinkbar/pginit/internal/config"
	"github.com/drinkbar/pginit/internal/db"
	"github.com/drinkbar/pginit/pkg/pginit"
)

// connectionStringFromEnv returns the first non-empty connection string from
// PGINIT_CONNECTION_STRING or DATABASE_URL environment variables.
func connectionStringFromEnv() string {
	if s := os.Getenv("PGINIT_CONNECTION_STRING"); s != "" {
		return s
	}
	return os.Getenv("DATABASE_URL")
}

// resolveConnection consolidates connection resolution for the provision and
// verify commands: connection string flag, granular flags, cloud auth flags,
// environment variables, and manifest connection defaults.
//
// Returns:
//   - ConnectionConfig with all parameters resolved
//   - Admin database name (for server-level statements)
//   - Error if configuration is invalid or conflicting
func resolveConnection(
	connStringFlag string,
	granularFlags *db.GranularConnFlags,
	cloudFlags *db.CloudAuthFlags,
	manifest *config.Manifest,
) (*pginit.ConnectionConfig, string, error) {
	connString := connStringFlag
	if connString == "" {
		connString = connectionStringFromEnv()
	}

	envVars := db.LoadFromEnvironment()

	connConfig, adminDB, err := db.ResolveConnectionParams(connString, granularFlags, cloudFlags, envVars)
	if err != nil {
		return nil, "", err
	}

	// A connection string already names host, port, and user; manifest
	// defaults only fill the granular path.
	if manifest != nil && connString == "" {
		adminDB = applyManifestConnectionDefaults(connConfig, adminDB, granularFlags, envVars, &manifest.Connection)
	}

	return connConfig, adminDB, nil
}

// applyManifestConnectionDefaults fills connection fields from the manifest
// where neither a flag nor an environment variable provided a value. The
// manifest sits at the bottom of the precedence order.
func applyManifestConnectionDefaults(
	connConfig *pginit.ConnectionConfig,
	adminDB string,
	flags *db.GranularConnFlags,
	envVars *db.EnvVars,
	defaults *config.ConnectionDefaults,
) string {
	if flags.Host == "" && envVars.PGHOST == "" && defaults.Host != "" {
		connConfig.Host = defaults.Host
	}
	if flags.Port == 0 && envVars.PGPORT == "" && defaults.Port != 0 {
		connConfig.Port = defaults.Port
	}
	if flags.Username == "" && envVars.PostgresUser == "" && envVars.PGUSER == "" && defaults.Username != "" {
		connConfig.Username = defaults.Username
	}
	if flags.SSLMode == "" && envVars.PGSSLMODE == "" && defaults.SSLMode != "" {
		connConfig.SSLMode = defaults.SSLMode
	}
	if flags.AdminDatabase == "" && envVars.PostgresDB == "" && envVars.PGDATABASE == "" && defaults.AdminDatabase != "" {
		adminDB = defaults.AdminDatabase
		connConfig.Database = adminDB
	}
	return adminDB
}
