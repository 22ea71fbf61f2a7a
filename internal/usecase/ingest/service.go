package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/transactions-backend/internal/domain"
	"github.com/simaogato/transactions-backend/internal/logger"
	"github.com/simaogato/transactions-backend/internal/usecase/normalizer"
)

// Record statuses reported by the aggregator
const (
	StatusBooked  = "booked"
	StatusPending = "pending"
)

// Input is one aggregator payload for a single account
type Input struct {
	Bank      string
	AccountID string
	Booked    []normalizer.Record
	Pending   []normalizer.Record
}

// RecordFailure describes a record that could not be normalized
type RecordFailure struct {
	Index         int
	Status        string
	TransactionID string // Empty when the record carried no usable ID
	Err           error
}

// Result summarizes an ingestion run
type Result struct {
	RunID     uuid.UUID
	Inserted  int
	Updated   int
	Unchanged int
	Failures  []RecordFailure
}

// Service normalizes aggregator records and upserts them into storage
type Service struct {
	Repo domain.TransactionRepository
}

// NewService creates a new ingestion Service
func NewService(repo domain.TransactionRepository) *Service {
	return &Service{Repo: repo}
}

// Ingest normalizes booked records, then pending records, and stores each result.
// Records that fail normalization are skipped and reported; repository errors abort the run.
func (s *Service) Ingest(ctx context.Context, input Input) (*Result, error) {
	result := &Result{RunID: uuid.New()}
	log := logger.FromContext(ctx).With().
		Str("run_id", result.RunID.String()).
		Str("bank", input.Bank).
		Str("account_id", input.AccountID).
		Logger()

	batches := []struct {
		status  string
		records []normalizer.Record
	}{
		{StatusBooked, input.Booked},
		{StatusPending, input.Pending},
	}

	for _, batch := range batches {
		for i, record := range batch.records {
			tx, err := normalizer.Normalize(record, input.Bank, input.AccountID)
			if err != nil {
				failure := RecordFailure{Index: i, Status: batch.status, Err: err}
				if id, ok := record[normalizer.FieldTransactionID].(string); ok {
					failure.TransactionID = id
				}
				log.Warn().Err(err).Int("index", i).Str("status", batch.status).Msg("skipping record")
				result.Failures = append(result.Failures, failure)
				continue
			}

			if err := s.store(ctx, tx, result); err != nil {
				log.Error().Err(err).Str("transaction_id", tx.ID).Msg("ingestion aborted")
				return nil, err
			}
		}
	}

	log.Info().
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Int("unchanged", result.Unchanged).
		Int("failed", len(result.Failures)).
		Msg("ingestion finished")

	return result, nil
}

// store creates tx when it is new, otherwise merges it into the stored value
func (s *Service) store(ctx context.Context, tx *domain.Transaction, result *Result) error {
	existing, err := s.Repo.GetByID(ctx, tx.ID)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		if err := s.Repo.Create(ctx, tx); err != nil {
			return fmt.Errorf("failed to create transaction %s: %w", tx.ID, err)
		}
		result.Inserted++
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load transaction %s: %w", tx.ID, err)
	}

	merged, err := existing.ApplyUpdate(*tx)
	if err != nil {
		return fmt.Errorf("failed to merge transaction %s: %w", tx.ID, err)
	}
	if merged.Equal(*existing) {
		result.Unchanged++
		return nil
	}

	if err := s.Repo.Update(ctx, &merged); err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", tx.ID, err)
	}
	result.Updated++
	return nil
}
