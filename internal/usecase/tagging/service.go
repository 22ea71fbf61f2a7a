package tagging

import (
	"context"
	"fmt"

	"github.com/simaogato/transactions-backend/internal/domain"
	"github.com/simaogato/transactions-backend/internal/logger"
)

// Service classifies stored transactions
type Service struct {
	Repo domain.TransactionRepository
}

// NewService creates a new tagging Service
func NewService(repo domain.TransactionRepository) *Service {
	return &Service{Repo: repo}
}

// TagTransaction replaces the tags of a stored transaction and returns the persisted value.
// Passing empty tags clears the classification.
func (s *Service) TagTransaction(ctx context.Context, id string, tags domain.TransactionTags) (*domain.Transaction, error) {
	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tagged := existing.WithTags(tags)
	if err := tagged.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.Update(ctx, &tagged); err != nil {
		return nil, fmt.Errorf("failed to tag transaction %s: %w", id, err)
	}

	kind := "unclassified"
	if tags.TransactionType != nil {
		kind = string(tags.TransactionType.Kind())
	}
	log := logger.FromContext(ctx)
	log.Info().Str("transaction_id", id).Str("transaction_type", kind).Msg("transaction tagged")

	return &tagged, nil
}
