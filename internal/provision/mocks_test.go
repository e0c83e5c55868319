package provision

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drinkbar/pginit/pkg/pginit"
)

type mockConnector struct {
	pool *pgxpool.Pool
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

type mockApprover struct {
	approved bool
	err      error
	requests []string
}

func (m *mockApprover) RequestApproval(_ context.Context, roleName string) (bool, error) {
	m.requests = append(m.requests, roleName)
	return m.approved, m.err
}

type mockLogger struct{}

func (m *mockLogger) Verbose(_ string, _ ...interface{}) {}
func (m *mockLogger) Info(_ string, _ ...interface{})    {}
func (m *mockLogger) Error(_ string, _ ...interface{})   {}

// mockDatabaseManager tracks lifecycle calls against in-memory name sets.
type mockDatabaseManager struct {
	databases map[string]bool
	roles     map[string]bool

	existsErr    error
	dropErr      error
	terminateErr error

	droppedDatabases []string
	droppedRoles     []string
	terminated       []string
}

func (m *mockDatabaseManager) DatabaseExists(_ context.Context, _ pginit.DBConnection, dbName string) (bool, error) {
	return m.databases[dbName], m.existsErr
}

func (m *mockDatabaseManager) CreateDatabase(_ context.Context, _ pginit.DBConnection, dbName string) error {
	if m.databases == nil {
		m.databases = make(map[string]bool)
	}
	m.databases[dbName] = true
	return nil
}

func (m *mockDatabaseManager) DropDatabase(_ context.Context, _ pginit.DBConnection, dbName string) error {
	m.droppedDatabases = append(m.droppedDatabases, dbName)
	delete(m.databases, dbName)
	return m.dropErr
}

func (m *mockDatabaseManager) RoleExists(_ context.Context, _ pginit.DBConnection, roleName string) (bool, error) {
	return m.roles[roleName], m.existsErr
}

func (m *mockDatabaseManager) DropRole(_ context.Context, _ pginit.DBConnection, roleName string) error {
	m.droppedRoles = append(m.droppedRoles, roleName)
	delete(m.roles, roleName)
	return m.dropErr
}

func (m *mockDatabaseManager) TerminateConnections(_ context.Context, _ pginit.DBConnection, dbName string) error {
	m.terminated = append(m.terminated, dbName)
	return m.terminateErr
}

// mockDBConnection records executed SQL. failOn makes Exec fail for the
// first statement containing the substring. queryResults maps a query
// substring to the boolean a QueryRow scan should produce.
type mockDBConnection struct {
	executed     []string
	failOn       string
	failErr      error
	queryResults map[string]bool
	queryErr     error
}

func (m *mockDBConnection) exec(sql string) (pgconn.CommandTag, error) {
	if m.failOn != "" && strings.Contains(sql, m.failOn) {
		return pgconn.CommandTag{}, m.failErr
	}
	m.executed = append(m.executed, sql)
	return pgconn.CommandTag{}, nil
}

func (m *mockDBConnection) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	return m.exec(sql)
}

func (m *mockDBConnection) QueryRow(_ context.Context, sql string, _ ...any) pginit.Row {
	if m.queryErr != nil {
		return &mockRow{err: m.queryErr}
	}
	for substr, value := range m.queryResults {
		if strings.Contains(sql, substr) {
			return &mockRow{value: value}
		}
	}
	return &mockRow{}
}

func (m *mockDBConnection) Acquire(_ context.Context) (pginit.PooledConnection, error) {
	return &mockPooledConnection{conn: m}, nil
}

type mockPooledConnection struct {
	conn *mockDBConnection
}

func (m *mockPooledConnection) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	return m.conn.exec(sql)
}

func (m *mockPooledConnection) Release() {}

type mockRow struct {
	value bool
	err   error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if b, ok := dest[0].(*bool); ok {
			*b = r.value
		}
	}
	return nil
}
