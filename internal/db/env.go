package db

import "os"

// EnvVars represents the environment variables pginit honors when resolving
// a connection. The POSTGRES_* pair is the container-init contract this tool
// inherits from the shell script it replaces; the PG* family follows
// standard libpq behavior.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST     string // PostgreSQL server host
	PGPORT     string // PostgreSQL server port
	PGUSER     string // PostgreSQL username
	PGPASSWORD string // PostgreSQL password (admin connection)
	PGDATABASE string // Default database name
	PGSSLMODE  string // SSL mode

	// Container-init contract: administrative username and the database to
	// connect to for server-level statements. POSTGRES_DB falls back to
	// "postgres" when unset.
	PostgresUser string // POSTGRES_USER
	PostgresDB   string // POSTGRES_DB

	DatabaseURL string // DATABASE_URL: full connection string (Heroku/Rails convention)

	// Azure Entra ID environment variables (Azure SDK standard names)
	AzureTenantID     string // AZURE_TENANT_ID
	AzureClientID     string // AZURE_CLIENT_ID
	AzureClientSecret string // AZURE_CLIENT_SECRET

	AWSRegion string // AWS_REGION
}

// LoadFromEnvironment loads PostgreSQL and cloud provider environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:            os.Getenv("PGHOST"),
		PGPORT:            os.Getenv("PGPORT"),
		PGUSER:            os.Getenv("PGUSER"),
		PGPASSWORD:        os.Getenv("PGPASSWORD"),
		PGDATABASE:        os.Getenv("PGDATABASE"),
		PGSSLMODE:         os.Getenv("PGSSLMODE"),
		PostgresUser:      os.Getenv("POSTGRES_USER"),
		PostgresDB:        os.Getenv("POSTGRES_DB"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		AzureTenantID:     os.Getenv("AZURE_TENANT_ID"),
		AzureClientID:     os.Getenv("AZURE_CLIENT_ID"),
		AzureClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
		AWSRegion:         os.Getenv("AWS_REGION"),
	}
}

// HasAzureCredentials returns true if Azure Entra ID environment variables are set.
func (e *EnvVars) HasAzureCredentials() bool {
	return e.AzureTenantID != "" || e.AzureClientID != ""
}
