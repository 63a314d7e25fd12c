package shared

import "context"

// TransactionManager runs a function inside one database transaction.
// Repositories called with the derived context join the same transaction,
// so multi-row operations commit or roll back as a unit.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTransactionManager runs the function without transactional scope.
// Used in tests where repositories are mocked.
type NoopTransactionManager struct{}

// WithinTransaction implements TransactionManager
func (NoopTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
