package domain

import (
	"context"
)

// TransactionFilter narrows List and Count results.
// Empty fields match every transaction.
type TransactionFilter struct {
	Bank      string
	AccountID string
}

// TransactionRepository defines the interface for transaction persistence operations
type TransactionRepository interface {
	// GetByID retrieves a transaction by its source-assigned ID
	// Returns ErrTransactionNotFound if no transaction has that ID
	GetByID(ctx context.Context, id string) (*Transaction, error)

	// Create creates a new transaction
	Create(ctx context.Context, tx *Transaction) error

	// Update overwrites a stored transaction with the same ID
	Update(ctx context.Context, tx *Transaction) error

	// List retrieves a page of transactions ordered by datetime, newest first
	List(ctx context.Context, filter TransactionFilter, limit, offset int) ([]*Transaction, error)

	// Count returns the number of transactions matching the filter
	Count(ctx context.Context, filter TransactionFilter) (int, error)
}
