package interchange

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/transactions-backend/internal/domain"
)

// ToWire converts a mapping to plain JSON-compatible values.
// Decimals become strings and timestamps become RFC 3339 strings so that no precision is lost.
func ToWire(m Mapping) Mapping {
	if m == nil {
		return nil
	}
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = wireValue(v)
	}
	return out
}

func wireValue(v any) any {
	switch val := v.(type) {
	case decimal.Decimal:
		return val.String()
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case currency.Unit:
		return val.String()
	case map[string]any:
		return ToWire(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = wireValue(item)
		}
		return out
	default:
		return v
	}
}

// ToStruct converts a transaction to a protobuf Struct
func ToStruct(tx *domain.Transaction) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(ToWire(ToMapping(tx)))
	if err != nil {
		return nil, fmt.Errorf("failed to build struct for transaction %s: %w", tx.ID, err)
	}
	return s, nil
}

// FromStruct rebuilds a transaction from a protobuf Struct
func FromStruct(s *structpb.Struct) (*domain.Transaction, error) {
	return FromMapping(s.AsMap())
}

// EncodeJSON serializes a transaction, keeping absent optionals as explicit nulls
func EncodeJSON(tx *domain.Transaction) ([]byte, error) {
	return json.Marshal(ToWire(ToMapping(tx)))
}

// DecodeJSON parses a transaction serialized by EncodeJSON
func DecodeJSON(data []byte) (*domain.Transaction, error) {
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse transaction: %w", err)
	}
	return FromMapping(m)
}

// EncodeTags serializes tags for storage
func EncodeTags(tags domain.TransactionTags) ([]byte, error) {
	return json.Marshal(ToWire(TagsToMapping(tags)))
}

// DecodeTags parses tags serialized by EncodeTags
func DecodeTags(data []byte) (domain.TransactionTags, error) {
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.TransactionTags{}, fmt.Errorf("failed to parse tags: %w", err)
	}
	return TagsFromMapping(m)
}
