// Package manager implements database and role lifecycle operations used by
// the wipe workflow and the idempotent provisioning mode.
package manager

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/drinkbar/pginit/pkg/pginit"
)

const (
	queryDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"
	queryRoleExists     = "SELECT EXISTS(SELECT 1 FROM pg_roles WHERE rolname = $1)"

	queryTerminateConnections = `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`
)

// Manager implements lifecycle operations through the DBConnection
// abstraction. Stateless and safe for concurrent use; thread safety depends
// on the injected DBConnection.
type Manager struct{}

// New creates a new DatabaseManager instance.
func New() pginit.DatabaseManager {
	return &Manager{}
}

// DatabaseExists checks if a database exists.
func (m *Manager) DatabaseExists(ctx context.Context, conn pginit.DBConnection, dbName string) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx, queryDatabaseExists, dbName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

// CreateDatabase creates a new database. CREATE DATABASE cannot run inside a
// transaction, so it is issued on a dedicated connection.
func (m *Manager) CreateDatabase(ctx context.Context, conn pginit.DBConnection, dbName string) error {
	pooledConn, err := conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer pooledConn.Release()

	query := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{dbName}.Sanitize())
	_, err = pooledConn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

// DropDatabase drops the specified database.
func (m *Manager) DropDatabase(ctx context.Context, conn pginit.DBConnection, dbName string) error {
	pooledConn, err := conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer pooledConn.Release()

	query := fmt.Sprintf("DROP DATABASE IF EXISTS %s", pgx.Identifier{dbName}.Sanitize())
	_, err = pooledConn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to drop database %q: %w", dbName, err)
	}
	return nil
}

// RoleExists checks if a role exists.
func (m *Manager) RoleExists(ctx context.Context, conn pginit.DBConnection, roleName string) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx, queryRoleExists, roleName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check role existence: %w", err)
	}
	return exists, nil
}

// DropRole drops the specified role. The role must no longer own objects or
// hold privileges in any remaining database; the wipe workflow drops the
// provisioned databases first for that reason.
func (m *Manager) DropRole(ctx context.Context, conn pginit.DBConnection, roleName string) error {
	query := fmt.Sprintf("DROP ROLE IF EXISTS %s", pgx.Identifier{roleName}.Sanitize())
	_, err := conn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to drop role %q: %w", roleName, err)
	}
	return nil
}

// TerminateConnections terminates all connections to the specified database.
func (m *Manager) TerminateConnections(ctx context.Context, conn pginit.DBConnection, dbName string) error {
	_, err := conn.Exec(ctx, queryTerminateConnections, dbName)
	if err != nil {
		return fmt.Errorf("failed to terminate connections to database %q: %w", dbName, err)
	}
	return nil
}

// Verify Manager implements the DatabaseManager interface at compile time
var _ pginit.DatabaseManager = (*Manager)(nil)
