package grpc

import (
	"context"
	"errors"
	"math"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/transactions-backend/internal/adapter/interchange"
	"github.com/simaogato/transactions-backend/internal/domain"
	"github.com/simaogato/transactions-backend/internal/usecase/ingest"
	"github.com/simaogato/transactions-backend/internal/usecase/listing"
	"github.com/simaogato/transactions-backend/internal/usecase/normalizer"
	"github.com/simaogato/transactions-backend/internal/usecase/tagging"
)

// Request and response keys
const (
	keyRecord       = "record"
	keyBank         = "bank"
	keyAccountID    = "account_id"
	keyTransaction  = "transaction"
	keyTransactions = "transactions"
	keyPayload      = "payload"
	keyID           = "id"
	keyTags         = "tags"
	keyLimit        = "limit"
	keyOffset       = "offset"
	keyTotalCount   = "total_count"
	keyRunID        = "run_id"
	keyInserted     = "inserted"
	keyUpdated      = "updated"
	keyUnchanged    = "unchanged"
	keyFailures     = "failures"
	keyIndex        = "index"
	keyStatus       = "status"
	keyError        = "error"
)

// Server implements TransactionServiceServer
type Server struct {
	IngestService  *ingest.Service
	TaggingService *tagging.Service
	ListingService *listing.Service
}

var _ TransactionServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	ingestService *ingest.Service,
	taggingService *tagging.Service,
	listingService *listing.Service,
) *Server {
	return &Server{
		IngestService:  ingestService,
		TaggingService: taggingService,
		ListingService: listingService,
	}
}

// Normalize handles the Normalize RPC.
// Request: {"record": {...}, "bank": "...", "account_id": "..."}. Response: {"transaction": {...}}.
func (s *Server) Normalize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()

	record, ok := fields[keyRecord].(map[string]any)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be an object", keyRecord)
	}

	tx, err := normalizer.Normalize(normalizer.Record(record), stringField(fields, keyBank), stringField(fields, keyAccountID))
	if err != nil {
		return nil, mapError(err)
	}

	return transactionResponse(tx)
}

// IngestTransactions handles the IngestTransactions RPC.
// The aggregator payload sits under "payload"; booked and pending lists may also be given at the top level.
func (s *Server) IngestTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()

	payload := fields
	if nested, ok := fields[keyPayload].(map[string]any); ok {
		payload = nested
	}

	bank, accountID := stringField(fields, keyBank), stringField(fields, keyAccountID)
	if strings.TrimSpace(bank) == "" {
		return nil, status.Errorf(codes.InvalidArgument, "%s is required", keyBank)
	}
	if strings.TrimSpace(accountID) == "" {
		return nil, status.Errorf(codes.InvalidArgument, "%s is required", keyAccountID)
	}

	booked, pending, err := ingest.RecordsFromPayload(payload)
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.IngestService.Ingest(ctx, ingest.Input{
		Bank:      bank,
		AccountID: accountID,
		Booked:    booked,
		Pending:   pending,
	})
	if err != nil {
		return nil, mapError(err)
	}

	failures := make([]any, 0, len(result.Failures))
	for _, failure := range result.Failures {
		failures = append(failures, map[string]any{
			keyIndex:  failure.Index,
			keyStatus: failure.Status,
			keyID:     failure.TransactionID,
			keyError:  failure.Err.Error(),
		})
	}

	return newResponse(map[string]any{
		keyRunID:     result.RunID.String(),
		keyInserted:  result.Inserted,
		keyUpdated:   result.Updated,
		keyUnchanged: result.Unchanged,
		keyFailures:  failures,
	})
}

// ListTransactions handles the ListTransactions RPC.
// Request: {"bank", "account_id", "limit", "offset"}, all optional.
func (s *Server) ListTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()

	limit, err := intField(fields, keyLimit)
	if err != nil {
		return nil, err
	}
	offset, err := intField(fields, keyOffset)
	if err != nil {
		return nil, err
	}

	page, err := s.ListingService.ListTransactions(ctx, listing.Input{
		Bank:      stringField(fields, keyBank),
		AccountID: stringField(fields, keyAccountID),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, mapError(err)
	}

	transactions := make([]any, 0, len(page.Transactions))
	for _, tx := range page.Transactions {
		transactions = append(transactions, interchange.ToWire(interchange.ToMapping(tx)))
	}

	return newResponse(map[string]any{
		keyTransactions: transactions,
		keyTotalCount:   page.Total,
		keyLimit:        page.Limit,
		keyOffset:       page.Offset,
	})
}

// TagTransaction handles the TagTransaction RPC.
// Request: {"id": "...", "tags": {"transaction_type": null | {...}}}. Response: {"transaction": {...}}.
func (s *Server) TagTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()

	id := stringField(fields, keyID)
	if id == "" {
		return nil, status.Errorf(codes.InvalidArgument, "%s is required", keyID)
	}

	rawTags, ok := fields[keyTags].(map[string]any)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be an object", keyTags)
	}

	tags, err := interchange.TagsFromMapping(rawTags)
	if err != nil {
		return nil, mapError(err)
	}

	tx, err := s.TaggingService.TagTransaction(ctx, id, tags)
	if err != nil {
		return nil, mapError(err)
	}

	return transactionResponse(tx)
}

func transactionResponse(tx *domain.Transaction) (*structpb.Struct, error) {
	return newResponse(map[string]any{
		keyTransaction: interchange.ToWire(interchange.ToMapping(tx)),
	})
}

func newResponse(fields map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to build response: %v", err)
	}
	return resp, nil
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// intField reads an optional whole number; Struct numbers arrive as float64
func intField(fields map[string]any, key string) (int, error) {
	raw, present := fields[key]
	if !present || raw == nil {
		return 0, nil
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a whole number", key)
	}
	return int(f), nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	errorMsg := err.Error()

	var mappingErr *domain.MappingError
	var fieldErr *interchange.FieldError
	var validationErr *domain.ValidationError

	switch {
	case errors.Is(err, domain.ErrTransactionNotFound):
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	case errors.Is(err, domain.ErrTransactionExists):
		return status.Errorf(codes.AlreadyExists, "%s", errorMsg)
	case errors.As(err, &mappingErr),
		errors.As(err, &fieldErr),
		errors.As(err, &validationErr),
		errors.Is(err, ingest.ErrInvalidPayload):
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", errorMsg)
}
