// Package retry re-runs sink writes that fail for transient reasons.
//
// An Executor combines an hfsrb.ErrorClassifier with an hfsrb.BackoffStrategy:
//
//	executor := retry.NewExecutor(retry.NewPostgresClassifier(), retry.NewExponentialBackoff(3))
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return upsert(ctx, payload)
//	})
//
// PostgresClassifier recognizes connection, resource and lock contention
// failures reported by pgx. SQLiteClassifier recognizes a busy or locked
// database file. Any other error is returned after the first attempt.
//
// Executors are safe for concurrent use; WithOnRetry returns a copy.
package retry
