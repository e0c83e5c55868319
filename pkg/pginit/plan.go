package pginit

// StatementKind classifies a planned statement so the idempotent mode knows
// whether (and how) it can be skipped.
type StatementKind int

const (
	StatementCreateDatabase StatementKind = iota // skippable when the database exists
	StatementCreateRole                          // skippable when the role exists
	StatementGrant                               // always re-runnable
)

// Statement is one planned SQL statement. The SQL of a CreateRole statement
// embeds the role password, so SQL must never appear in logs or errors;
// Summary is the loggable identity of the statement.
type Statement struct {
	// Ordinal is the 1-based position across the whole plan.
	Ordinal int

	// Kind drives skip decisions in idempotent mode.
	Kind StatementKind

	// Object is the database or role name the statement creates, used for
	// existence probes in idempotent mode. Empty for grants.
	Object string

	// Summary is a short loggable description, e.g. `create database "keycloak"`.
	Summary string

	// SQL is the statement text. May contain the role password.
	SQL string
}

// Batch is an ordered sequence of statements executed against one target
// database in one connection session.
type Batch struct {
	// Database is the batch's connection target.
	Database string

	// Statements run in order; the first failure aborts the run.
	Statements []Statement
}

// Plan is the full provisioning plan: the server-level batch against the
// admin database, then the grant batch against the application database.
// The second batch depends on objects the first creates, so order is fixed.
type Plan struct {
	Batches []Batch
}

// TotalStatements returns the number of statements across all batches.
func (p *Plan) TotalStatements() int {
	n := 0
	for _, b := range p.Batches {
		n += len(b.Statements)
	}
	return n
}
