package interchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/simaogato/transactions-backend/internal/domain"
)

// Mapping is the generic key-value view of a value crossing the host boundary
type Mapping = map[string]any

// Transaction keys, in the order FromMapping checks them
const (
	KeyID                  = "id"
	KeyBank                = "bank"
	KeyAccountID           = "account_id"
	KeyTransactionDatetime = "transaction_datetime"
	KeyTransactionAmount   = "transaction_amount"
	KeyCurrencyConversion  = "currency_conversion"
	KeyShortName           = "short_name"
	KeyTags                = "tags"
)

// Nested keys
const (
	KeyAmount          = "amount"
	KeyCurrency        = "currency"
	KeyFromCurrency    = "from_currency"
	KeyToCurrency      = "to_currency"
	KeyRate            = "rate"
	KeyTransactionType = "transaction_type"
	KeyKind            = "kind"
	KeyFromDate        = "from_date"
	KeyToDate          = "to_date"
)

// ErrInvalidValue is wrapped by FieldError when a key is present with an unusable value
var ErrInvalidValue = errors.New("invalid value")

// FieldError names the first missing or mistyped key found by FromMapping.
// Missing keys unwrap to domain.ErrMissingField.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func missing(field string) error {
	return &FieldError{Field: field, Err: domain.ErrMissingField}
}

func invalid(field string, format string, args ...any) error {
	return &FieldError{Field: field, Err: fmt.Errorf("%w: %s", ErrInvalidValue, fmt.Sprintf(format, args...))}
}

// ToMapping converts a transaction to its key-value form.
// Absent optionals are present as nil values, never omitted.
func ToMapping(tx *domain.Transaction) Mapping {
	if tx == nil {
		return nil
	}

	var conversion any
	if tx.CurrencyConversion != nil {
		conversion = Mapping{
			KeyFromCurrency: tx.CurrencyConversion.FromCurrency.String(),
			KeyToCurrency:   tx.CurrencyConversion.ToCurrency.String(),
			KeyRate:         tx.CurrencyConversion.Rate,
		}
	}

	return Mapping{
		KeyID:                  tx.ID,
		KeyBank:                tx.Bank,
		KeyAccountID:           tx.AccountID,
		KeyTransactionDatetime: tx.TransactionDatetime.UTC(),
		KeyTransactionAmount: Mapping{
			KeyAmount:   tx.TransactionAmount.Amount,
			KeyCurrency: tx.TransactionAmount.Currency.String(),
		},
		KeyCurrencyConversion: conversion,
		KeyShortName:          tx.ShortName,
		KeyTags:               TagsToMapping(tx.Tags),
	}
}

// TagsToMapping converts tags to their key-value form
func TagsToMapping(tags domain.TransactionTags) Mapping {
	var transactionType any
	switch tt := tags.TransactionType.(type) {
	case domain.OneOff:
		transactionType = Mapping{KeyKind: string(domain.TransactionTypeOneOff)}
	case domain.Periodic:
		transactionType = Mapping{
			KeyKind:     string(domain.TransactionTypePeriodic),
			KeyFromDate: tt.FromDate.UTC(),
			KeyToDate:   tt.ToDate.UTC(),
		}
	}
	return Mapping{KeyTransactionType: transactionType}
}

// FromMapping rebuilds a transaction from its key-value form.
// Keys are checked in field order and the first problem is returned as a *FieldError.
func FromMapping(m Mapping) (*domain.Transaction, error) {
	if m == nil {
		return nil, missing(KeyID)
	}

	id, err := requireString(m, KeyID, KeyID)
	if err != nil {
		return nil, err
	}
	bank, err := requireString(m, KeyBank, KeyBank)
	if err != nil {
		return nil, err
	}
	accountID, err := requireString(m, KeyAccountID, KeyAccountID)
	if err != nil {
		return nil, err
	}
	datetime, err := requireTime(m, KeyTransactionDatetime, KeyTransactionDatetime)
	if err != nil {
		return nil, err
	}
	amount, err := amountFromMapping(m)
	if err != nil {
		return nil, err
	}
	conversion, err := conversionFromMapping(m)
	if err != nil {
		return nil, err
	}
	shortName, err := requireString(m, KeyShortName, KeyShortName)
	if err != nil {
		return nil, err
	}

	rawTags, present := m[KeyTags]
	if !present {
		return nil, missing(KeyTags)
	}
	tagsMapping, ok := asMapping(rawTags)
	if !ok {
		return nil, invalid(KeyTags, "expected a mapping, got %T", rawTags)
	}
	tags, err := tagsFromMapping(tagsMapping, KeyTags)
	if err != nil {
		return nil, err
	}

	return &domain.Transaction{
		ID:                  id,
		Bank:                bank,
		AccountID:           accountID,
		TransactionDatetime: datetime,
		TransactionAmount:   amount,
		CurrencyConversion:  conversion,
		ShortName:           shortName,
		Tags:                tags,
	}, nil
}

// TagsFromMapping rebuilds tags from their key-value form
func TagsFromMapping(m Mapping) (domain.TransactionTags, error) {
	return tagsFromMapping(m, KeyTags)
}

func amountFromMapping(m Mapping) (domain.CurrencyAmount, error) {
	raw, present := m[KeyTransactionAmount]
	if !present {
		return domain.CurrencyAmount{}, missing(KeyTransactionAmount)
	}
	nested, ok := asMapping(raw)
	if !ok {
		return domain.CurrencyAmount{}, invalid(KeyTransactionAmount, "expected a mapping, got %T", raw)
	}

	value, err := requireDecimal(nested, KeyAmount, KeyTransactionAmount+"."+KeyAmount)
	if err != nil {
		return domain.CurrencyAmount{}, err
	}
	unit, err := requireCurrency(nested, KeyCurrency, KeyTransactionAmount+"."+KeyCurrency)
	if err != nil {
		return domain.CurrencyAmount{}, err
	}

	return domain.CurrencyAmount{Amount: value, Currency: unit}, nil
}

func conversionFromMapping(m Mapping) (*domain.CurrencyConversion, error) {
	raw, present := m[KeyCurrencyConversion]
	if !present {
		return nil, missing(KeyCurrencyConversion)
	}
	if raw == nil {
		return nil, nil
	}
	nested, ok := asMapping(raw)
	if !ok {
		return nil, invalid(KeyCurrencyConversion, "expected a mapping or nil, got %T", raw)
	}

	from, err := requireCurrency(nested, KeyFromCurrency, KeyCurrencyConversion+"."+KeyFromCurrency)
	if err != nil {
		return nil, err
	}
	to, err := requireCurrency(nested, KeyToCurrency, KeyCurrencyConversion+"."+KeyToCurrency)
	if err != nil {
		return nil, err
	}
	rate, err := requireDecimal(nested, KeyRate, KeyCurrencyConversion+"."+KeyRate)
	if err != nil {
		return nil, err
	}

	conversion := domain.CurrencyConversion{FromCurrency: from, ToCurrency: to, Rate: rate}
	if err := conversion.Validate(); err != nil {
		return nil, &FieldError{Field: KeyCurrencyConversion + "." + KeyRate, Err: err}
	}
	return &conversion, nil
}

func tagsFromMapping(m Mapping, path string) (domain.TransactionTags, error) {
	field := path + "." + KeyTransactionType
	raw, present := m[KeyTransactionType]
	if !present {
		return domain.TransactionTags{}, missing(field)
	}
	if raw == nil {
		return domain.TransactionTags{}, nil
	}
	nested, ok := asMapping(raw)
	if !ok {
		return domain.TransactionTags{}, invalid(field, "expected a mapping or nil, got %T", raw)
	}

	kind, err := requireString(nested, KeyKind, field+"."+KeyKind)
	if err != nil {
		return domain.TransactionTags{}, err
	}

	switch domain.TransactionTypeKind(kind) {
	case domain.TransactionTypeOneOff:
		return domain.TransactionTags{TransactionType: domain.OneOff{}}, nil
	case domain.TransactionTypePeriodic:
		from, err := requireTime(nested, KeyFromDate, field+"."+KeyFromDate)
		if err != nil {
			return domain.TransactionTags{}, err
		}
		to, err := requireTime(nested, KeyToDate, field+"."+KeyToDate)
		if err != nil {
			return domain.TransactionTags{}, err
		}
		periodic, err := domain.NewPeriodic(from, to)
		if err != nil {
			return domain.TransactionTags{}, &FieldError{Field: field, Err: err}
		}
		return domain.TransactionTags{TransactionType: periodic}, nil
	default:
		return domain.TransactionTags{}, invalid(field+"."+KeyKind, "unknown transaction type %q", kind)
	}
}

func requireString(m Mapping, key, field string) (string, error) {
	raw, present := m[key]
	if !present {
		return "", missing(field)
	}
	s, ok := raw.(string)
	if !ok {
		return "", invalid(field, "expected a string, got %T", raw)
	}
	if s == "" {
		return "", invalid(field, "string is empty")
	}
	return s, nil
}

func requireTime(m Mapping, key, field string) (time.Time, error) {
	raw, present := m[key]
	if !present {
		return time.Time{}, missing(field)
	}
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), nil
	case *timestamppb.Timestamp:
		if err := v.CheckValid(); err != nil {
			return time.Time{}, invalid(field, "%v", err)
		}
		return v.AsTime(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, invalid(field, "expected an RFC 3339 timestamp, got %q", v)
		}
		return parsed.UTC(), nil
	default:
		return time.Time{}, invalid(field, "expected a timestamp, got %T", raw)
	}
}

func requireDecimal(m Mapping, key, field string) (decimal.Decimal, error) {
	raw, present := m[key]
	if !present || raw == nil {
		return decimal.Decimal{}, missing(field)
	}
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Decimal{}, invalid(field, "expected a decimal, got %q", v)
		}
		return d, nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Decimal{}, invalid(field, "expected a decimal, got %q", v.String())
		}
		return d, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Decimal{}, invalid(field, "decimal must be finite")
		}
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return decimal.Decimal{}, invalid(field, "expected a decimal, got %T", raw)
	}
}

func requireCurrency(m Mapping, key, field string) (currency.Unit, error) {
	raw, present := m[key]
	if !present || raw == nil {
		return currency.Unit{}, missing(field)
	}
	switch v := raw.(type) {
	case currency.Unit:
		return v, nil
	case string:
		unit, err := domain.ParseCurrency(field, v)
		if err != nil {
			return currency.Unit{}, &FieldError{Field: field, Err: err}
		}
		return unit, nil
	default:
		return currency.Unit{}, invalid(field, "expected an ISO-4217 code, got %T", raw)
	}
}

func asMapping(value any) (Mapping, bool) {
	m, ok := value.(map[string]any)
	return m, ok && m != nil
}
