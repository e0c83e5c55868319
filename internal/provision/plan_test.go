package provision

import (
	"strings"
	"testing"

	"github.com/drinkbar/pginit/pkg/pginit"
)

func defaultTestConfig() *pginit.ProvisionConfig {
	return &pginit.ProvisionConfig{
		ConnectionString: "postgresql://postgres@localhost:5432/postgres",
		AdminDatabase:    "postgres",
		RoleName:         "keycloak",
		RolePassword:     "s3cret",
		AuthDatabase:     "keycloak",
		AppDatabase:      "drinkbar",
	}
}

func TestBuildPlan_DefaultStatementOrder(t *testing.T) {
	plan := BuildPlan(defaultTestConfig())

	if len(plan.Batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(plan.Batches))
	}
	if got := plan.TotalStatements(); got != 7 {
		t.Fatalf("expected 7 statements, got %d", got)
	}

	admin := plan.Batches[0]
	if admin.Database != "postgres" {
		t.Errorf("admin batch database = %q, want postgres", admin.Database)
	}

	wantAdmin := []string{
		`CREATE DATABASE "keycloak"`,
		`CREATE USER "keycloak" WITH PASSWORD 's3cret' CREATEDB`,
		`CREATE DATABASE "drinkbar"`,
	}
	if len(admin.Statements) != len(wantAdmin) {
		t.Fatalf("admin batch has %d statements, want %d", len(admin.Statements), len(wantAdmin))
	}
	for i, want := range wantAdmin {
		if got := admin.Statements[i].SQL; got != want {
			t.Errorf("admin statement %d = %q, want %q", i, got, want)
		}
	}

	app := plan.Batches[1]
	if app.Database != "drinkbar" {
		t.Errorf("app batch database = %q, want drinkbar", app.Database)
	}

	wantApp := []string{
		`GRANT ALL ON SCHEMA "public" TO "keycloak"`,
		`GRANT ALL PRIVILEGES ON DATABASE "drinkbar" TO "keycloak"`,
		`ALTER DEFAULT PRIVILEGES IN SCHEMA "public" GRANT ALL ON TABLES TO "keycloak"`,
		`ALTER DEFAULT PRIVILEGES IN SCHEMA "public" GRANT ALL ON SEQUENCES TO "keycloak"`,
	}
	if len(app.Statements) != len(wantApp) {
		t.Fatalf("app batch has %d statements, want %d", len(app.Statements), len(wantApp))
	}
	for i, want := range wantApp {
		if got := app.Statements[i].SQL; got != want {
			t.Errorf("app statement %d = %q, want %q", i, got, want)
		}
	}
}

func TestBuildPlan_OrdinalsAreGlobal(t *testing.T) {
	plan := BuildPlan(defaultTestConfig())

	want := 1
	for _, batch := range plan.Batches {
		for _, stmt := range batch.Statements {
			if stmt.Ordinal != want {
				t.Errorf("statement %q ordinal = %d, want %d", stmt.Summary, stmt.Ordinal, want)
			}
			want++
		}
	}
}

func TestBuildPlan_SummariesNeverContainPassword(t *testing.T) {
	config := defaultTestConfig()
	config.RolePassword = "hunter2-very-secret"

	plan := BuildPlan(config)
	for _, batch := range plan.Batches {
		for _, stmt := range batch.Statements {
			if strings.Contains(stmt.Summary, config.RolePassword) {
				t.Errorf("summary %q contains the role password", stmt.Summary)
			}
		}
	}
}

func TestBuildPlan_PasswordWithSingleQuote(t *testing.T) {
	config := defaultTestConfig()
	config.RolePassword = "it's;DROP DATABASE postgres"

	plan := BuildPlan(config)
	createRole := plan.Batches[0].Statements[1]

	want := `CREATE USER "keycloak" WITH PASSWORD 'it''s;DROP DATABASE postgres' CREATEDB`
	if createRole.SQL != want {
		t.Errorf("CREATE USER SQL = %q, want %q", createRole.SQL, want)
	}
}

func TestBuildPlan_IdentifiersAreQuoted(t *testing.T) {
	config := defaultTestConfig()
	config.RoleName = `odd"role`
	config.AuthDatabase = "auth db"
	config.AppDatabase = "app-db"

	plan := BuildPlan(config)

	if got := plan.Batches[0].Statements[0].SQL; got != `CREATE DATABASE "auth db"` {
		t.Errorf("auth database SQL = %q", got)
	}
	if !strings.Contains(plan.Batches[0].Statements[1].SQL, `"odd""role"`) {
		t.Errorf("role identifier not sanitized: %q", plan.Batches[0].Statements[1].SQL)
	}
	if got := plan.Batches[0].Statements[2].SQL; got != `CREATE DATABASE "app-db"` {
		t.Errorf("app database SQL = %q", got)
	}
}

func TestBuildPlan_NarrowedPrivileges(t *testing.T) {
	config := defaultTestConfig()
	config.Grants = []pginit.GrantSpec{
		{Target: pginit.GrantTargetSchema, Privileges: []string{"usage", "create"}},
		{Target: pginit.GrantTargetDatabase, Privileges: []string{"connect", "temp"}},
		{Target: pginit.GrantTargetFutureTables, Privileges: []string{"select", "insert", "update", "delete"}},
	}

	plan := BuildPlan(config)
	app := plan.Batches[1]

	want := []string{
		`GRANT USAGE, CREATE ON SCHEMA "public" TO "keycloak"`,
		`GRANT CONNECT, TEMP ON DATABASE "drinkbar" TO "keycloak"`,
		`ALTER DEFAULT PRIVILEGES IN SCHEMA "public" GRANT SELECT, INSERT, UPDATE, DELETE ON TABLES TO "keycloak"`,
	}
	if len(app.Statements) != len(want) {
		t.Fatalf("app batch has %d statements, want %d", len(app.Statements), len(want))
	}
	for i, w := range want {
		if got := app.Statements[i].SQL; got != w {
			t.Errorf("app statement %d = %q, want %q", i, got, w)
		}
	}

	if got := plan.TotalStatements(); got != 6 {
		t.Errorf("TotalStatements() = %d, want 6", got)
	}
}

func TestQuoteLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"", "''"},
		{"it's", "'it''s'"},
		{"''", "''''''"},
	}

	for _, tt := range tests {
		if got := quoteLiteral(tt.in); got != tt.want {
			t.Errorf("quoteLiteral(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
