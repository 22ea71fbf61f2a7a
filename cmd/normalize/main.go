package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/simaogato/transactions-backend/internal/adapter/interchange"
	"github.com/simaogato/transactions-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/transactions-backend/internal/config"
	"github.com/simaogato/transactions-backend/internal/logger"
	"github.com/simaogato/transactions-backend/internal/usecase/ingest"
	"github.com/simaogato/transactions-backend/internal/usecase/normalizer"
)

type failureOutput struct {
	Index         int    `json:"index"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
	Error         string `json:"error"`
}

func main() {
	// Parse CLI flags
	file := flag.String("file", "", "Path to an aggregator transactions payload (JSON), or - for stdin")
	bank := flag.String("bank", "", "Bank the payload was fetched from")
	account := flag.String("account", "", "Account ID the payload belongs to")
	store := flag.Bool("store", false, "Ingest the normalized transactions into PostgreSQL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Logs go to stderr so stdout stays valid JSON
	log := logger.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, cfg.LogLevel)

	if *file == "" || *bank == "" || *account == "" {
		log.Fatal().Msg("Error: -file, -bank and -account are required")
	}

	data, err := readInput(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read payload")
	}

	booked, pending, err := ingest.DecodePayload(data)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse payload")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	input := ingest.Input{Bank: *bank, AccountID: *account, Booked: booked, Pending: pending}

	var output any
	if *store {
		output, err = storePayload(ctx, cfg, input)
	} else {
		output = normalizePayload(input)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// normalizePayload maps every record without touching storage
func normalizePayload(input ingest.Input) map[string]any {
	transactions := make([]any, 0, len(input.Booked)+len(input.Pending))
	failures := make([]failureOutput, 0)

	batches := []struct {
		status  string
		records []normalizer.Record
	}{
		{ingest.StatusBooked, input.Booked},
		{ingest.StatusPending, input.Pending},
	}
	for _, batch := range batches {
		for i, record := range batch.records {
			tx, err := normalizer.Normalize(record, input.Bank, input.AccountID)
			if err != nil {
				id, _ := record[normalizer.FieldTransactionID].(string)
				failures = append(failures, failureOutput{Index: i, Status: batch.status, TransactionID: id, Error: err.Error()})
				continue
			}
			transactions = append(transactions, interchange.ToWire(interchange.ToMapping(tx)))
		}
	}

	return map[string]any{
		"transactions": transactions,
		"failures":     failures,
	}
}

// storePayload ingests the payload into the configured transactions table
func storePayload(ctx context.Context, cfg *config.Config, input ingest.Input) (map[string]any, error) {
	db, err := postgres.NewDB(cfg.DBConnStr)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx, cfg.TransactionsTable); err != nil {
		return nil, err
	}

	service := ingest.NewService(postgres.NewTransactionRepository(db, cfg.TransactionsTable))
	result, err := service.Ingest(ctx, input)
	if err != nil {
		return nil, err
	}

	failures := make([]failureOutput, 0, len(result.Failures))
	for _, f := range result.Failures {
		failures = append(failures, failureOutput{Index: f.Index, Status: f.Status, TransactionID: f.TransactionID, Error: f.Err.Error()})
	}

	return map[string]any{
		"run_id":    result.RunID.String(),
		"table":     cfg.TransactionsTable,
		"inserted":  result.Inserted,
		"updated":   result.Updated,
		"unchanged": result.Unchanged,
		"failures":  failures,
	}, nil
}
