// Package testing provides shared helpers for integration tests: a
// lazily-started PostgreSQL container, provisioner construction, and
// database cleanup.
package testing

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drinkbar/pginit/internal/db"
	"github.com/drinkbar/pginit/internal/db/manager"
	"github.com/drinkbar/pginit/internal/logging"
	"github.com/drinkbar/pginit/internal/provision"
	"github.com/drinkbar/pginit/internal/testinfra"
	"github.com/drinkbar/pginit/pkg/pginit"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		ctx := context.Background()
		container, err := testinfra.StartPostgres(ctx)
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: PGINIT_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("PGINIT_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("PGINIT_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
// Returns the test connection string if available, otherwise skips the test.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// NewTestProvisioner creates a provisioning service configured for testing.
// Uses the standard connector factory and a force-approving test approver.
func NewTestProvisioner(t *testing.T) pginit.Provisioner {
	t.Helper()

	return provision.NewService(
		db.NewConnector,
		&ForceApprover{},
		logging.NewNullLogger(),
		manager.New(),
	)
}

// NewTestVerifier creates a verification service configured for testing.
func NewTestVerifier(t *testing.T) pginit.Verifier {
	t.Helper()

	return provision.NewVerificationService(
		db.NewConnector,
		logging.NewNullLogger(),
		manager.New(),
	)
}

// ForceApprover is a test approver that always approves wipe requests.
type ForceApprover struct{}

// RequestApproval always returns true (auto-approves).
func (a *ForceApprover) RequestApproval(ctx context.Context, roleName string) (bool, error) {
	return true, nil
}

// CleanupProvisioned drops the role and databases a provisioning test
// created. Safe to call multiple times.
func CleanupProvisioned(t *testing.T, connString, roleName string, dbNames ...string) {
	t.Helper()

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Logf("Warning: Failed to connect for cleanup: %v", err)
		return
	}
	defer pool.Close()

	terminateQuery := `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`
	for _, dbName := range dbNames {
		if _, err := pool.Exec(ctx, terminateQuery, dbName); err != nil {
			t.Logf("Warning: Failed to terminate connections to %s: %v", dbName, err)
		}
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %q", dbName)); err != nil {
			t.Logf("Warning: Failed to drop database %s: %v", dbName, err)
		}
	}

	if roleName != "" {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP ROLE IF EXISTS %q", roleName)); err != nil {
			t.Logf("Warning: Failed to drop role %s: %v", roleName, err)
		}
	}
}

// GetTestPool creates a connection pool to the specified database for testing.
// The pool is automatically closed when the test completes.
func GetTestPool(t *testing.T, connString, dbName string) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	config, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	config.Database = dbName

	pool, err := pgxpool.New(ctx, db.BuildConnectionString(config))
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}
