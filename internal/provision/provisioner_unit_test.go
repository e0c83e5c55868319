package provision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/drinkbar/pginit/pkg/pginit"
)

func mockConnectorFactory(_ *pginit.ConnectionConfig) (pginit.Connector, error) {
	return &mockConnector{}, nil
}

func noop() {}

func connTo(conn *mockDBConnection) adminDBConnFunc {
	return func(_ context.Context, _ *pginit.ConnectionConfig, _ string) (pginit.DBConnection, func(), error) {
		return conn, noop, nil
	}
}

func failingConn(err error) adminDBConnFunc {
	return func(_ context.Context, _ *pginit.ConnectionConfig, _ string) (pginit.DBConnection, func(), error) {
		return nil, nil, err
	}
}

func newTestService(dbMgr *mockDatabaseManager, approver *mockApprover, adminConn adminDBConnFunc) *Service {
	if dbMgr == nil {
		dbMgr = &mockDatabaseManager{}
	}
	if approver == nil {
		approver = &mockApprover{approved: true}
	}
	svc := NewService(mockConnectorFactory, approver, &mockLogger{}, dbMgr)
	if adminConn != nil {
		svc.adminConnector = adminConn
	}
	return svc
}

func TestNewService_NilDeps(t *testing.T) {
	ap := &mockApprover{}
	lg := &mockLogger{}
	dm := &mockDatabaseManager{}

	tests := []struct {
		name string
		fn   func()
	}{
		{"nil connectorFactory", func() { NewService(nil, ap, lg, dm) }},
		{"nil approver", func() { NewService(mockConnectorFactory, nil, lg, dm) }},
		{"nil logger", func() { NewService(mockConnectorFactory, ap, nil, dm) }},
		{"nil dbManager", func() { NewService(mockConnectorFactory, ap, lg, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("Expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestProvision_InvalidConfig(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		mutate    func(*pginit.ProvisionConfig)
		errorType error
	}{
		{"missing connection string", func(c *pginit.ProvisionConfig) { c.ConnectionString = "" }, pginit.ErrInvalidConfig},
		{"missing role password", func(c *pginit.ProvisionConfig) { c.RolePassword = "" }, pginit.ErrMissingPassword},
		{"identical databases", func(c *pginit.ProvisionConfig) { c.AppDatabase = c.AuthDatabase }, pginit.ErrInvalidConfig},
		{"force without wipe", func(c *pginit.ProvisionConfig) { c.Force = true }, pginit.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := *defaultTestConfig()
			tt.mutate(&config)

			err := svc.Provision(ctx, config)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !errors.Is(err, tt.errorType) {
				t.Errorf("Expected %v, got: %v", tt.errorType, err)
			}
		})
	}
}

func TestProvision_InvalidConnectionString(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	config := *defaultTestConfig()
	config.ConnectionString = "not-a-valid-connection-string"

	if err := svc.Provision(context.Background(), config); err == nil {
		t.Fatal("Expected error for invalid connection string")
	}
}

func TestProvision_ExecutesAllStatementsInOrder(t *testing.T) {
	conn := &mockDBConnection{}
	svc := newTestService(nil, nil, connTo(conn))

	if err := svc.Provision(context.Background(), *defaultTestConfig()); err != nil {
		t.Fatalf("Provision() unexpected error: %v", err)
	}

	want := []string{
		`CREATE DATABASE "keycloak"`,
		`CREATE USER "keycloak" WITH PASSWORD 's3cret' CREATEDB`,
		`CREATE DATABASE "drinkbar"`,
		`GRANT ALL ON SCHEMA "public" TO "keycloak"`,
		`GRANT ALL PRIVILEGES ON DATABASE "drinkbar" TO "keycloak"`,
		`ALTER DEFAULT PRIVILEGES IN SCHEMA "public" GRANT ALL ON TABLES TO "keycloak"`,
		`ALTER DEFAULT PRIVILEGES IN SCHEMA "public" GRANT ALL ON SEQUENCES TO "keycloak"`,
	}

	if len(conn.executed) != len(want) {
		t.Fatalf("executed %d statements, want %d:\n%s", len(conn.executed), len(want), strings.Join(conn.executed, "\n"))
	}
	for i, w := range want {
		if conn.executed[i] != w {
			t.Errorf("statement %d = %q, want %q", i, conn.executed[i], w)
		}
	}
}

func TestProvision_FailFast(t *testing.T) {
	serverErr := errors.New(`permission denied for schema public`)
	conn := &mockDBConnection{failOn: "ON SCHEMA", failErr: serverErr}
	svc := newTestService(nil, nil, connTo(conn))

	err := svc.Provision(context.Background(), *defaultTestConfig())
	if err == nil {
		t.Fatal("Expected error")
	}

	var stmtErr *pginit.StatementError
	if !errors.As(err, &stmtErr) {
		t.Fatalf("Expected StatementError, got: %v", err)
	}
	if stmtErr.Ordinal != 4 || stmtErr.Total != 7 {
		t.Errorf("StatementError ordinal = %d/%d, want 4/7", stmtErr.Ordinal, stmtErr.Total)
	}
	if stmtErr.Database != "drinkbar" {
		t.Errorf("StatementError database = %q, want drinkbar", stmtErr.Database)
	}
	if !errors.Is(err, pginit.ErrStatementFailed) {
		t.Error("StatementError should match ErrStatementFailed")
	}

	// Nothing after the failed statement may run.
	if len(conn.executed) != 3 {
		t.Errorf("executed %d statements after failure, want 3:\n%s", len(conn.executed), strings.Join(conn.executed, "\n"))
	}
}

func TestProvision_StatementErrorOmitsPassword(t *testing.T) {
	serverErr := errors.New(`role "keycloak" already exists`)
	conn := &mockDBConnection{failOn: "CREATE USER", failErr: serverErr}
	svc := newTestService(nil, nil, connTo(conn))

	config := *defaultTestConfig()
	config.RolePassword = "super-secret-password"

	err := svc.Provision(context.Background(), config)
	if err == nil {
		t.Fatal("Expected error")
	}
	if strings.Contains(err.Error(), config.RolePassword) {
		t.Errorf("error message leaks the role password: %v", err)
	}
}

func TestProvision_IfNotExistsSkipsExistingObjects(t *testing.T) {
	dbMgr := &mockDatabaseManager{
		databases: map[string]bool{"keycloak": true},
		roles:     map[string]bool{"keycloak": true},
	}
	conn := &mockDBConnection{}
	svc := newTestService(dbMgr, nil, connTo(conn))

	config := *defaultTestConfig()
	config.IfNotExists = true

	if err := svc.Provision(context.Background(), config); err != nil {
		t.Fatalf("Provision() unexpected error: %v", err)
	}

	// The keycloak database and role exist, so only the drinkbar CREATE
	// DATABASE and the four grants run.
	if len(conn.executed) != 5 {
		t.Fatalf("executed %d statements, want 5:\n%s", len(conn.executed), strings.Join(conn.executed, "\n"))
	}
	if conn.executed[0] != `CREATE DATABASE "drinkbar"` {
		t.Errorf("first statement = %q, want drinkbar CREATE DATABASE", conn.executed[0])
	}
}

func TestProvision_IfNotExistsReissuesGrants(t *testing.T) {
	dbMgr := &mockDatabaseManager{
		databases: map[string]bool{"keycloak": true, "drinkbar": true},
		roles:     map[string]bool{"keycloak": true},
	}
	conn := &mockDBConnection{}
	svc := newTestService(dbMgr, nil, connTo(conn))

	config := *defaultTestConfig()
	config.IfNotExists = true

	if err := svc.Provision(context.Background(), config); err != nil {
		t.Fatalf("Provision() unexpected error: %v", err)
	}

	if len(conn.executed) != 4 {
		t.Fatalf("executed %d statements, want the 4 grants:\n%s", len(conn.executed), strings.Join(conn.executed, "\n"))
	}
	for _, sql := range conn.executed {
		if !strings.HasPrefix(sql, "GRANT") && !strings.HasPrefix(sql, "ALTER DEFAULT PRIVILEGES") {
			t.Errorf("unexpected non-grant statement: %q", sql)
		}
	}
}

func TestProvision_ConnectionFailure(t *testing.T) {
	connectErr := errors.New("failed to connect to database \"postgres\": connection refused")
	svc := newTestService(nil, nil, failingConn(connectErr))

	err := svc.Provision(context.Background(), *defaultTestConfig())
	if err == nil {
		t.Fatal("Expected error")
	}
	if !errors.Is(err, connectErr) {
		t.Errorf("Expected wrapped connection error, got: %v", err)
	}
}

// --- Wipe workflow tests ---

func TestProvision_WipeDenied(t *testing.T) {
	approver := &mockApprover{approved: false}
	conn := &mockDBConnection{}
	svc := newTestService(nil, approver, connTo(conn))

	config := *defaultTestConfig()
	config.Wipe = true

	err := svc.Provision(context.Background(), config)
	if !errors.Is(err, pginit.ErrApprovalDenied) {
		t.Fatalf("Expected ErrApprovalDenied, got: %v", err)
	}
	if len(conn.executed) != 0 {
		t.Errorf("no statements may run after denial, got:\n%s", strings.Join(conn.executed, "\n"))
	}
}

func TestProvision_WipeApproved(t *testing.T) {
	dbMgr := &mockDatabaseManager{
		databases: map[string]bool{"keycloak": true, "drinkbar": true},
		roles:     map[string]bool{"keycloak": true},
	}
	approver := &mockApprover{approved: true}
	conn := &mockDBConnection{}
	svc := newTestService(dbMgr, approver, connTo(conn))

	config := *defaultTestConfig()
	config.Wipe = true
	config.Force = true

	if err := svc.Provision(context.Background(), config); err != nil {
		t.Fatalf("Provision() unexpected error: %v", err)
	}

	if len(approver.requests) != 1 || approver.requests[0] != "keycloak" {
		t.Errorf("approver requests = %v, want [keycloak]", approver.requests)
	}

	// App database drops before the auth database, the role last.
	wantDrops := []string{"drinkbar", "keycloak"}
	if len(dbMgr.droppedDatabases) != 2 ||
		dbMgr.droppedDatabases[0] != wantDrops[0] ||
		dbMgr.droppedDatabases[1] != wantDrops[1] {
		t.Errorf("dropped databases = %v, want %v", dbMgr.droppedDatabases, wantDrops)
	}
	if len(dbMgr.droppedRoles) != 1 || dbMgr.droppedRoles[0] != "keycloak" {
		t.Errorf("dropped roles = %v, want [keycloak]", dbMgr.droppedRoles)
	}
	if len(dbMgr.terminated) != 2 {
		t.Errorf("terminated connections for %v, want both databases", dbMgr.terminated)
	}

	// Provisioning still runs after the wipe.
	if len(conn.executed) != 7 {
		t.Errorf("executed %d statements after wipe, want 7", len(conn.executed))
	}
}

func TestProvision_WipeRefusesAdminDatabase(t *testing.T) {
	svc := newTestService(nil, nil, connTo(&mockDBConnection{}))

	config := *defaultTestConfig()
	config.Wipe = true
	config.AppDatabase = "postgres"

	err := svc.Provision(context.Background(), config)
	if !errors.Is(err, pginit.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got: %v", err)
	}
}

func TestProvision_WipeRefusesTemplateDatabase(t *testing.T) {
	svc := newTestService(nil, nil, connTo(&mockDBConnection{}))

	config := *defaultTestConfig()
	config.Wipe = true
	config.AuthDatabase = "template1"

	err := svc.Provision(context.Background(), config)
	if !errors.Is(err, pginit.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got: %v", err)
	}
}
