// Package provision builds and executes the two-batch provisioning plan:
// server-level statements against the admin database, then grants against
// the application database.
package provision

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/drinkbar/pginit/pkg/pginit"
)

// The schema receiving grants and default privileges. The original script
// hardcodes public and so do we; per-schema configuration has no user yet.
const grantSchema = "public"

// BuildPlan constructs the provisioning plan from a validated config.
//
// The statement order is fixed and load-bearing: the grant batch references
// the role and database created by the first batch. Each statement gets a
// global 1-based ordinal so failures can be attributed across batches.
func BuildPlan(config *pginit.ProvisionConfig) *pginit.Plan {
	role := pgx.Identifier{config.RoleName}.Sanitize()

	grants := config.Grants
	if len(grants) == 0 {
		grants = []pginit.GrantSpec{
			{Target: pginit.GrantTargetSchema},
			{Target: pginit.GrantTargetDatabase},
			{Target: pginit.GrantTargetFutureTables},
			{Target: pginit.GrantTargetFutureSequences},
		}
	}

	ordinal := 0
	next := func() int {
		ordinal++
		return ordinal
	}

	adminBatch := pginit.Batch{
		Database: config.AdminDatabase,
		Statements: []pginit.Statement{
			{
				Ordinal: next(),
				Kind:    pginit.StatementCreateDatabase,
				Object:  config.AuthDatabase,
				Summary: fmt.Sprintf("create database %q", config.AuthDatabase),
				SQL:     fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{config.AuthDatabase}.Sanitize()),
			},
			{
				Ordinal: next(),
				Kind:    pginit.StatementCreateRole,
				Object:  config.RoleName,
				Summary: fmt.Sprintf("create role %q with createdb", config.RoleName),
				SQL: fmt.Sprintf("CREATE USER %s WITH PASSWORD %s CREATEDB",
					role, quoteLiteral(config.RolePassword)),
			},
			{
				Ordinal: next(),
				Kind:    pginit.StatementCreateDatabase,
				Object:  config.AppDatabase,
				Summary: fmt.Sprintf("create database %q", config.AppDatabase),
				SQL:     fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{config.AppDatabase}.Sanitize()),
			},
		},
	}

	appBatch := pginit.Batch{Database: config.AppDatabase}
	for _, g := range grants {
		appBatch.Statements = append(appBatch.Statements,
			grantStatement(next(), g, config.RoleName, config.AppDatabase))
	}

	return &pginit.Plan{Batches: []pginit.Batch{adminBatch, appBatch}}
}

// grantStatement renders one GrantSpec as SQL. An empty privilege list
// means ALL, matching the original script's broad grants.
func grantStatement(ordinal int, g pginit.GrantSpec, roleName, appDatabase string) pginit.Statement {
	role := pgx.Identifier{roleName}.Sanitize()
	schema := pgx.Identifier{grantSchema}.Sanitize()
	privileges := privilegeList(g.Privileges)

	var sql, summary string
	switch g.Target {
	case pginit.GrantTargetSchema:
		sql = fmt.Sprintf("GRANT %s ON SCHEMA %s TO %s", privileges, schema, role)
		summary = fmt.Sprintf("grant %s on schema %q to %q", privileges, grantSchema, roleName)
	case pginit.GrantTargetDatabase:
		sql = fmt.Sprintf("GRANT %s PRIVILEGES ON DATABASE %s TO %s",
			privileges, pgx.Identifier{appDatabase}.Sanitize(), role)
		if privileges != "ALL" {
			sql = fmt.Sprintf("GRANT %s ON DATABASE %s TO %s",
				privileges, pgx.Identifier{appDatabase}.Sanitize(), role)
		}
		summary = fmt.Sprintf("grant %s on database %q to %q", privileges, appDatabase, roleName)
	case pginit.GrantTargetFutureTables:
		sql = fmt.Sprintf("ALTER DEFAULT PRIVILEGES IN SCHEMA %s GRANT %s ON TABLES TO %s",
			schema, privileges, role)
		summary = fmt.Sprintf("default privileges for future tables in %q to %q", grantSchema, roleName)
	case pginit.GrantTargetFutureSequences:
		sql = fmt.Sprintf("ALTER DEFAULT PRIVILEGES IN SCHEMA %s GRANT %s ON SEQUENCES TO %s",
			schema, privileges, role)
		summary = fmt.Sprintf("default privileges for future sequences in %q to %q", grantSchema, roleName)
	}

	return pginit.Statement{
		Ordinal: ordinal,
		Kind:    pginit.StatementGrant,
		Summary: summary,
		SQL:     sql,
	}
}

func privilegeList(privileges []string) string {
	if len(privileges) == 0 {
		return "ALL"
	}
	upper := make([]string, len(privileges))
	for i, p := range privileges {
		upper[i] = strings.ToUpper(strings.TrimSpace(p))
	}
	return strings.Join(upper, ", ")
}

// quoteLiteral renders a string as a PostgreSQL literal. Single quotes are
// doubled; with standard_conforming_strings (the server default) no other
// escaping applies. Used only for the role password, which cannot be a
// bind parameter in CREATE USER.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
