package pginit

import "context"

// DatabaseManager defines the interface for database and role lifecycle
// operations. Implementations are NOT safe for concurrent use. Create
// separate instances for concurrent operations.
type DatabaseManager interface {
	// DatabaseExists checks if a database exists.
	DatabaseExists(ctx context.Context, conn DBConnection, dbName string) (bool, error)

	// CreateDatabase creates a new database.
	CreateDatabase(ctx context.Context, conn DBConnection, dbName string) error

	// DropDatabase drops the specified database.
	DropDatabase(ctx context.Context, conn DBConnection, dbName string) error

	// RoleExists checks if a role exists.
	RoleExists(ctx context.Context, conn DBConnection, roleName string) (bool, error)

	// DropRole drops the specified role.
	DropRole(ctx context.Context, conn DBConnection, roleName string) error

	// TerminateConnections terminates all connections to the specified
	// database. Used before dropping a database to ensure no active
	// connections remain.
	TerminateConnections(ctx context.Context, conn DBConnection, dbName string) error
}
