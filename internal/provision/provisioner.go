package provision

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/drinkbar/pginit/internal/db"
	"github.com/drinkbar/pginit/pkg/pginit"
)

type adminDBConnFunc func(ctx context.Context, connConfig *pginit.ConnectionConfig, dbName string) (pginit.DBConnection, func(), error)

// Service implements the Provisioner interface.
// Thread-Safety: NOT safe for concurrent Provision() calls on the same
// instance. Create separate instances for concurrent runs.
type Service struct {
	connectorFactory func(*pginit.ConnectionConfig) (pginit.Connector, error)
	approver         pginit.Approver
	logger           pginit.Logger
	dbManager        pginit.DatabaseManager
	adminConnector   adminDBConnFunc
}

// NewService creates a new provisioning Service with all dependencies
// injected.
//
// Panics on nil dependencies: those are programmer errors that should fail
// loudly at startup, not as nil pointer dereferences mid-run. Runtime
// conditions (bad config, unreachable server, rejected statements) are
// returned as errors.
func NewService(
	connectorFactory func(*pginit.ConnectionConfig) (pginit.Connector, error),
	approver pginit.Approver,
	logger pginit.Logger,
	dbManager pginit.DatabaseManager,
) *Service {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if dbManager == nil {
		panic("dbManager cannot be nil")
	}

	svc := &Service{
		connectorFactory: connectorFactory,
		approver:         approver,
		logger:           logger,
		dbManager:        dbManager,
	}
	svc.adminConnector = svc.defaultAdminConnector
	return svc
}

func (s *Service) defaultAdminConnector(ctx context.Context, connConfig *pginit.ConnectionConfig, dbName string) (pginit.DBConnection, func(), error) {
	dbConfig := *connConfig
	dbConfig.Database = dbName

	connector, err := s.connectorFactory(&dbConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database %q: %w", dbName, err)
	}

	dbConn := db.NewPoolAdapter(pool)
	cleanup := func() { pool.Close() }
	return dbConn, cleanup, nil
}

// Provision executes the provisioning workflow: validate, optionally wipe,
// then run the server-level batch against the admin database followed by
// the grant batch against the application database. Fail-fast: the first
// rejected statement aborts the run and later statements never execute.
func (s *Service) Provision(ctx context.Context, config pginit.ProvisionConfig) error {
	connConfig, err := s.validateAndParseConfig(&config)
	if err != nil {
		return err
	}

	if config.Wipe {
		if err := s.handleWipe(ctx, connConfig, &config); err != nil {
			return fmt.Errorf("wipe workflow failed: %w", err)
		}
	}

	plan := BuildPlan(&config)
	total := plan.TotalStatements()

	for _, batch := range plan.Batches {
		if err := s.executeBatch(ctx, connConfig, &config, batch, total); err != nil {
			return err
		}
	}

	s.logger.Info("✓ Provisioning completed successfully (%d statements)", total)
	return nil
}

// validateAndParseConfig validates the configuration and parses the
// connection string.
func (s *Service) validateAndParseConfig(config *pginit.ProvisionConfig) (*pginit.ConnectionConfig, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	runID := uuid.NewString()
	s.logger.Verbose("Starting provisioning run %s", runID)
	s.logger.Verbose("Role: '%s', databases: '%s', '%s'", config.RoleName, config.AuthDatabase, config.AppDatabase)

	connConfig, err := db.ParseConnectionString(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if connConfig.AppName == "" {
		connConfig.AppName = "pginit"
	}
	if config.AdminDatabase != "" {
		connConfig.Database = config.AdminDatabase
	}
	if connConfig.Database == "" {
		connConfig.Database = pginit.DefaultAdminDatabase
	}

	// Apply auth method and cloud credentials from the provisioning config
	connConfig.AuthMethod = config.AuthMethod
	connConfig.AzureTenantID = config.AzureTenantID
	connConfig.AzureClientID = config.AzureClientID
	connConfig.AzureClientSecret = config.AzureClientSecret
	connConfig.AWSRegion = config.AWSRegion
	connConfig.GoogleInstance = config.GoogleInstance

	// Later stages read the admin database name from the config.
	config.AdminDatabase = connConfig.Database

	return connConfig, nil
}

// executeBatch connects to the batch's database and executes its statements
// in order on a single dedicated connection. CREATE DATABASE cannot run
// inside a transaction, so no transaction wraps the batch; partial progress
// on failure is expected and matches the script this tool replaces.
func (s *Service) executeBatch(
	ctx context.Context,
	connConfig *pginit.ConnectionConfig,
	config *pginit.ProvisionConfig,
	batch pginit.Batch,
	total int,
) error {
	s.logger.Verbose("Connecting to database '%s'", batch.Database)

	dbConn, cleanup, err := s.adminConnector(ctx, connConfig, batch.Database)
	if err != nil {
		return err
	}
	defer cleanup()

	pooledConn, err := dbConn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection to database %q: %w", batch.Database, err)
	}
	defer pooledConn.Release()

	for _, stmt := range batch.Statements {
		skip, err := s.shouldSkip(ctx, dbConn, config, stmt)
		if err != nil {
			return err
		}
		if skip {
			s.logger.Info("  [%d/%d] %s: already exists, skipping", stmt.Ordinal, total, stmt.Summary)
			continue
		}

		if _, err := pooledConn.Exec(ctx, stmt.SQL); err != nil {
			return &pginit.StatementError{
				Ordinal:  stmt.Ordinal,
				Total:    total,
				Summary:  stmt.Summary,
				Database: batch.Database,
				Err:      err,
			}
		}
		s.logger.Verbose("  [%d/%d] %s", stmt.Ordinal, total, stmt.Summary)
	}

	return nil
}

// shouldSkip reports whether an idempotent run should skip the statement
// because its object already exists. Grants are always re-issued; they are
// idempotent on the server side.
func (s *Service) shouldSkip(ctx context.Context, dbConn pginit.DBConnection, config *pginit.ProvisionConfig, stmt pginit.Statement) (bool, error) {
	if !config.IfNotExists {
		return false, nil
	}

	switch stmt.Kind {
	case pginit.StatementCreateDatabase:
		exists, err := s.dbManager.DatabaseExists(ctx, dbConn, stmt.Object)
		if err != nil {
			return false, fmt.Errorf("failed to check if database %q exists: %w", stmt.Object, err)
		}
		return exists, nil
	case pginit.StatementCreateRole:
		exists, err := s.dbManager.RoleExists(ctx, dbConn, stmt.Object)
		if err != nil {
			return false, fmt.Errorf("failed to check if role %q exists: %w", stmt.Object, err)
		}
		return exists, nil
	default:
		return false, nil
	}
}

// handleWipe drops the provisioned databases and role so the run starts
// from a clean slate. Destructive, so it goes through the approver first.
func (s *Service) handleWipe(ctx context.Context, connConfig *pginit.ConnectionConfig, config *pginit.ProvisionConfig) error {
	if err := validateWipeTarget(config); err != nil {
		return err
	}

	s.logger.Verbose("Connecting to admin database '%s'", config.AdminDatabase)

	dbConn, cleanup, err := s.adminConnector(ctx, connConfig, config.AdminDatabase)
	if err != nil {
		return err
	}
	defer cleanup()

	approved, err := s.approver.RequestApproval(ctx, config.RoleName)
	if err != nil {
		return fmt.Errorf("approval request failed: %w", err)
	}
	if !approved {
		return pginit.ErrApprovalDenied
	}

	// Databases first: DROP ROLE fails while the role still holds
	// privileges in an existing database.
	for _, dbName := range []string{config.AppDatabase, config.AuthDatabase} {
		s.logger.Verbose("Terminating all connections to database '%s'", dbName)
		if err := s.dbManager.TerminateConnections(ctx, dbConn, dbName); err != nil {
			return fmt.Errorf("failed to terminate connections: %w", err)
		}

		s.logger.Verbose("Dropping database '%s'", dbName)
		if err := s.dbManager.DropDatabase(ctx, dbConn, dbName); err != nil {
			return fmt.Errorf("failed to drop database: %w", err)
		}
	}

	s.logger.Verbose("Dropping role '%s'", config.RoleName)
	if err := s.dbManager.DropRole(ctx, dbConn, config.RoleName); err != nil {
		return fmt.Errorf("failed to drop role: %w", err)
	}

	s.logger.Info("✓ Wiped role '%s' and databases '%s', '%s'", config.RoleName, config.AuthDatabase, config.AppDatabase)
	return nil
}

func validateWipeTarget(config *pginit.ProvisionConfig) error {
	for _, dbName := range []string{config.AuthDatabase, config.AppDatabase} {
		if dbName == config.AdminDatabase {
			return fmt.Errorf(
				"cannot wipe database %q: it is the admin database pginit connects to for server-level operations: %w",
				dbName, pginit.ErrInvalidConfig,
			)
		}
		if pginit.IsTemplateDatabase(dbName) {
			return fmt.Errorf(
				"cannot wipe database %q: PostgreSQL template databases cannot be dropped: %w",
				dbName, pginit.ErrInvalidConfig,
			)
		}
	}
	return nil
}

// Verify Service implements the Provisioner interface at compile time
var _ pginit.Provisioner = (*Service)(nil)
