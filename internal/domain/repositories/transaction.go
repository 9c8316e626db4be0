package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions.
//
// ExecTx is re-entrant: when ctx already carries a transaction, fn joins it
// instead of opening a new one, so an operation that is atomic on its own
// (a revision write) can also be part of a larger one (document creation).
type TransactionManager interface {
	// ExecTx executes a function within a transaction
	ExecTx(ctx context.Context, fn TxFn) error
}
