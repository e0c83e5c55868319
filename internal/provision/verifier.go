package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/drinkbar/pginit/internal/db"
	"github.com/drinkbar/pginit/pkg/pginit"
)

const (
	queryRoleCreateDB = "SELECT rolcreatedb FROM pg_roles WHERE rolname = $1"
	queryCanConnect   = "SELECT has_database_privilege($1, $2, 'CONNECT')"
)

// VerificationService implements the Verifier interface. It checks that a
// previous provisioning run left the server in the expected state: both
// databases exist, the role exists with CREATEDB, and the role can connect
// to the application database.
type VerificationService struct {
	connectorFactory func(*pginit.ConnectionConfig) (pginit.Connector, error)
	logger           pginit.Logger
	dbManager        pginit.DatabaseManager
	adminConnector   adminDBConnFunc
}

// NewVerificationService creates a VerificationService. Panics on nil
// dependencies, same contract as NewService.
func NewVerificationService(
	connectorFactory func(*pginit.ConnectionConfig) (pginit.Connector, error),
	logger pginit.Logger,
	dbManager pginit.DatabaseManager,
) *VerificationService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if dbManager == nil {
		panic("dbManager cannot be nil")
	}

	svc := &VerificationService{
		connectorFactory: connectorFactory,
		logger:           logger,
		dbManager:        dbManager,
	}
	svc.adminConnector = svc.defaultAdminConnector
	return svc
}

func (s *VerificationService) defaultAdminConnector(ctx context.Context, connConfig *pginit.ConnectionConfig, dbName string) (pginit.DBConnection, func(), error) {
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

// Verify runs all checks and aggregates the failures. A single connection
// to the admin database is enough; every check reads from the shared
// catalogs.
func (s *VerificationService) Verify(ctx context.Context, config pginit.VerifyConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	connConfig, err := db.ParseConnectionString(config.ConnectionString)
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}
	if connConfig.AppName == "" {
		connConfig.AppName = "pginit"
	}
	if connConfig.Database == "" {
		connConfig.Database = pginit.DefaultAdminDatabase
	}

	connConfig.AuthMethod = config.AuthMethod
	connConfig.AzureTenantID = config.AzureTenantID
	connConfig.AzureClientID = config.AzureClientID
	connConfig.AzureClientSecret = config.AzureClientSecret
	connConfig.AWSRegion = config.AWSRegion
	connConfig.GoogleInstance = config.GoogleInstance

	dbConn, cleanup, err := s.adminConnector(ctx, connConfig, connConfig.Database)
	if err != nil {
		return err
	}
	defer cleanup()

	var failures []string
	record := func(ok bool, what string) {
		if ok {
			s.logger.Verbose("  ✓ %s", what)
		} else {
			failures = append(failures, what)
		}
	}

	for _, dbName := range []string{config.AuthDatabase, config.AppDatabase} {
		exists, err := s.dbManager.DatabaseExists(ctx, dbConn, dbName)
		if err != nil {
			return err
		}
		record(exists, fmt.Sprintf("database %q exists", dbName))
	}

	roleExists, err := s.dbManager.RoleExists(ctx, dbConn, config.RoleName)
	if err != nil {
		return err
	}
	record(roleExists, fmt.Sprintf("role %q exists", config.RoleName))

	// Role-dependent checks error out server-side when the role is missing,
	// so they only run once it exists.
	if roleExists {
		var createDB bool
		if err := dbConn.QueryRow(ctx, queryRoleCreateDB, config.RoleName).Scan(&createDB); err != nil {
			return fmt.Errorf("failed to check CREATEDB for role %q: %w", config.RoleName, err)
		}
		record(createDB, fmt.Sprintf("role %q has CREATEDB", config.RoleName))

		appExists, err := s.dbManager.DatabaseExists(ctx, dbConn, config.AppDatabase)
		if err != nil {
			return err
		}
		if appExists {
			var canConnect bool
			if err := dbConn.QueryRow(ctx, queryCanConnect, config.RoleName, config.AppDatabase).Scan(&canConnect); err != nil {
				return fmt.Errorf("failed to check CONNECT privilege on %q: %w", config.AppDatabase, err)
			}
			record(canConnect, fmt.Sprintf("role %q can connect to database %q", config.RoleName, config.AppDatabase))
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("%w:\n  - %s", pginit.ErrVerifyFailed, strings.Join(failures, "\n  - "))
	}

	s.logger.Info("✓ Verification passed")
	return nil
}

// Verify VerificationService implements the Verifier interface at compile time
var _ pginit.Verifier = (*VerificationService)(nil)
