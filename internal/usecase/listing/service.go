package listing

import (
	"context"
	"fmt"

	"github.com/simaogato/transactions-backend/internal/domain"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Input selects a page of transactions
type Input struct {
	Bank      string
	AccountID string
	Limit     int // Zero or negative means DefaultLimit
	Offset    int
}

// Page is one page of transactions plus the number matching the filter
type Page struct {
	Transactions []*domain.Transaction
	Total        int
	Limit        int
	Offset       int
}

// Service lists stored transactions
type Service struct {
	Repo domain.TransactionRepository
}

// NewService creates a new listing Service
func NewService(repo domain.TransactionRepository) *Service {
	return &Service{Repo: repo}
}

// ListTransactions returns transactions newest first
func (s *Service) ListTransactions(ctx context.Context, input Input) (*Page, error) {
	if input.Offset < 0 {
		return nil, &domain.ValidationError{Field: "offset", Value: fmt.Sprint(input.Offset), Reason: "offset cannot be negative"}
	}

	limit := input.Limit
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	filter := domain.TransactionFilter{Bank: input.Bank, AccountID: input.AccountID}

	transactions, err := s.Repo.List(ctx, filter, limit, input.Offset)
	if err != nil {
		return nil, err
	}

	total, err := s.Repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &Page{
		Transactions: transactions,
		Total:        total,
		Limit:        limit,
		Offset:       input.Offset,
	}, nil
}
