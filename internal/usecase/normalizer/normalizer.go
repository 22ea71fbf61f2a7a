package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/transactions-backend/internal/domain"
)

// Record is one raw transaction object from a bank-aggregator API, as decoded from JSON
type Record map[string]any

// Field names of the aggregator transaction object
const (
	FieldTransactionID     = "transactionId"
	FieldTransactionAmount = "transactionAmount"
	FieldCurrencyExchange  = "currencyExchange"
	FieldAmount            = "amount"
	FieldCurrency          = "currency"
	FieldSourceCurrency    = "sourceCurrency"
	FieldExchangeRate      = "exchangeRate"
)

// Names reported in MappingError for values that are resolved from several candidate fields
const (
	ResolvedShortName           = "short_name"
	ResolvedTransactionDatetime = "transaction_datetime"
)

// ShortNameFields lists the short name candidates, most specific first
var ShortNameFields = []string{
	"creditorName",
	"debtorName",
	"remittanceInformationUnstructured",
	"additionalInformation",
}

// DatetimeFields lists the datetime candidates, most precise first
var DatetimeFields = []string{
	"valueDateTime",
	"bookingDateTime",
	"valueDate",
	"bookingDate",
}

// datetimeLayouts are the ISO-8601 shapes seen in aggregator payloads,
// extended and basic format. Values without an offset are read as UTC.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
	"20060102T150405.999999999Z0700",
	"20060102T150405.999999999Z07",
	"20060102T150405.999999999",
	"20060102T1504",
	"20060102",
}

// Normalize maps a raw aggregator record to a canonical Transaction.
// bank and accountID are not part of the record and must be supplied by the caller.
//
// Requirements are checked in a fixed order and the first unmet one is
// returned as a *domain.MappingError:
//  1. transactionAmount (currency and amount)
//  2. short name waterfall
//  3. transactionId
//  4. currencyExchange, when present
//  5. datetime waterfall
//  6. tags (always unclassified here)
//  7. bank and account id
func Normalize(record Record, bank, accountID string) (*domain.Transaction, error) {
	// 1. Amount
	amount, err := extractAmount(record)
	if err != nil {
		return nil, err
	}

	// 2. Short name
	shortName, ok := firstNonEmptyString(record, ShortNameFields)
	if !ok {
		return nil, domain.NewMissingFieldError(ResolvedShortName)
	}

	// 3. Identifier, kept exactly as received
	id, ok := record[FieldTransactionID].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return nil, domain.NewMissingFieldError(FieldTransactionID)
	}

	// 4. Currency conversion
	conversion, err := extractConversion(record, amount)
	if err != nil {
		return nil, err
	}

	// 5. Datetime
	datetime, err := resolveDatetime(record)
	if err != nil {
		return nil, err
	}

	// 6. Tags: classification is done later by the tagging service
	tags := domain.TransactionTags{TransactionType: nil}

	// 7. Assemble
	if strings.TrimSpace(bank) == "" {
		return nil, domain.NewMissingFieldError("bank")
	}
	if strings.TrimSpace(accountID) == "" {
		return nil, domain.NewMissingFieldError("account_id")
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

// extractAmount reads the nested transactionAmount object
func extractAmount(record Record) (domain.CurrencyAmount, error) {
	raw, ok := asMap(record[FieldTransactionAmount])
	if !ok {
		return domain.CurrencyAmount{}, domain.NewMissingFieldError(FieldTransactionAmount)
	}

	code, ok := nonEmptyString(raw[FieldCurrency])
	if !ok {
		return domain.CurrencyAmount{}, invalidAmount(FieldCurrency, nil)
	}

	value, err := ParseDecimal(raw[FieldAmount])
	if err != nil {
		return domain.CurrencyAmount{}, invalidAmount(FieldAmount, err)
	}

	amount, err := domain.NewCurrencyAmount(value, code)
	if err != nil {
		return domain.CurrencyAmount{}, invalidAmount(FieldCurrency, err)
	}

	return amount, nil
}

// extractConversion reads the optional currencyExchange object.
// The target currency is always the transaction's own currency.
func extractConversion(record Record, amount domain.CurrencyAmount) (*domain.CurrencyConversion, error) {
	value, present := record[FieldCurrencyExchange]
	if !present || value == nil {
		return nil, nil
	}

	raw, ok := asMap(value)
	if !ok {
		return nil, invalidConversion(FieldCurrencyExchange, nil)
	}

	source, ok := nonEmptyString(raw[FieldSourceCurrency])
	if !ok {
		return nil, invalidConversion(FieldSourceCurrency, nil)
	}
	from, err := domain.ParseCurrency("from_currency", source)
	if err != nil {
		return nil, invalidConversion(FieldSourceCurrency, err)
	}

	rate, err := ParseDecimal(raw[FieldExchangeRate])
	if err != nil {
		return nil, invalidConversion(FieldExchangeRate, err)
	}

	conversion := domain.CurrencyConversion{
		FromCurrency: from,
		ToCurrency:   amount.Currency,
		Rate:         rate,
	}
	if err := conversion.Validate(); err != nil {
		return nil, invalidConversion(FieldExchangeRate, err)
	}

	return &conversion, nil
}

// resolveDatetime returns the first candidate field that parses, in UTC
func resolveDatetime(record Record) (time.Time, error) {
	var firstErr error
	for _, field := range DatetimeFields {
		value, present := record[field]
		if !present || value == nil {
			continue
		}

		switch v := value.(type) {
		case time.Time:
			if !v.IsZero() {
				return v.UTC(), nil
			}
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}
			parsed, err := ParseDatetime(v)
			if err == nil {
				return parsed, nil
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", field, err)
			}
		}
	}

	return time.Time{}, &domain.MappingError{
		Kind:  domain.MappingErrorMissingField,
		Field: ResolvedTransactionDatetime,
		Err:   firstErr,
	}
}

// ParseDatetime parses an ISO-8601 timestamp or date and returns it in UTC.
// Date-only values resolve to midnight UTC.
func ParseDatetime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range datetimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised ISO-8601 datetime %q", value)
}

// ParseDecimal converts a loosely-typed JSON value to a finite decimal.
// Aggregators send amounts as strings ("-7.0000") or as numbers.
func ParseDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.Decimal{}, errors.New("value is absent")
	case decimal.Decimal:
		return v, nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Decimal{}, fmt.Errorf("value %v is not finite", v)
		}
		return decimal.NewFromFloat(v), nil
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return decimal.Decimal{}, fmt.Errorf("value %v is not finite", v)
		}
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported value type %T", value)
	}
}

// asMap accepts nested objects decoded from JSON or built as Records
func asMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, v != nil
	case Record:
		return v, v != nil
	}
	return nil, false
}

func firstNonEmptyString(record Record, fields []string) (string, bool) {
	for _, field := range fields {
		if value, ok := nonEmptyString(record[field]); ok {
			return value, true
		}
	}
	return "", false
}

// nonEmptyString returns the trimmed value if it is a string with visible content
func nonEmptyString(value any) (string, bool) {
	s, ok := value.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func invalidAmount(subField string, err error) error {
	return &domain.MappingError{
		Kind:  domain.MappingErrorInvalidAmount,
		Field: FieldTransactionAmount + "." + subField,
		Err:   err,
	}
}

func invalidConversion(subField string, err error) error {
	field := FieldCurrencyExchange
	if subField != FieldCurrencyExchange {
		field += "." + subField
	}
	return &domain.MappingError{
		Kind:  domain.MappingErrorInvalidConversion,
		Field: field,
		Err:   err,
	}
}
