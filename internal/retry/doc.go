// Package retry provides automatic retry logic with exponential backoff
// for transient database connection failures.
//
// Only the connection phase is retried. Provisioning statements are never
// retried: the run is fail-fast by contract, and a CREATE DATABASE that
// half-succeeded must surface, not be papered over by a second attempt.
//
// # Example Usage
//
//	classifier := retry.NewPostgreSQLErrorClassifier()
//	strategy := retry.NewExponentialBackoff(3)
//	executor := retry.NewExecutor(classifier, strategy)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return connectToDatabase(ctx)
//	})
//
// # Error Classification
//
// The ErrorClassifier interface determines which errors are transient
// (retryable) versus fatal (non-retryable). The PostgreSQLErrorClassifier
// recognizes common transient PostgreSQL errors like connection refused,
// network failures, etc.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. Use WithOnRetry() to
// create independent configurations per goroutine.
package retry
