package pginit

import "context"

// Provisioner is the main interface for executing a provisioning run.
// Implementations handle the full workflow: connection, the server-level
// statement batch against the admin database, then the grant batch against
// the application database. Strictly sequential, fail-fast.
type Provisioner interface {
	// Provision executes a provisioning run using the provided configuration.
	// It returns an error wrapping ErrStatementFailed (as a *StatementError)
	// if any planned statement is rejected by the server.
	Provision(ctx context.Context, config ProvisionConfig) error
}

// Verifier checks that a previous provisioning run left the expected state:
// both databases present, the role present with CREATEDB, and the role
// holding CONNECT on the application database. Read-only.
type Verifier interface {
	// Verify returns an error wrapping ErrVerifyFailed naming every missing
	// object or privilege, or nil when everything is in place.
	Verify(ctx context.Context, config VerifyConfig) error
}
