package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// CurrencyAmount represents a monetary value in a single ISO-4217 currency
type CurrencyAmount struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// CurrencyConversion records an exchange rate observed in source data.
// The rate is never applied by this package.
type CurrencyConversion struct {
	FromCurrency currency.Unit
	ToCurrency   currency.Unit
	Rate         decimal.Decimal // Always positive
}

// ParseCurrency parses an ISO-4217 code. field names the offending field in the returned ValidationError.
func ParseCurrency(field, code string) (currency.Unit, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return currency.Unit{}, &ValidationError{
			Field:  field,
			Value:  code,
			Reason: "not a valid ISO-4217 currency code",
		}
	}
	return unit, nil
}

// NewCurrencyAmount creates a CurrencyAmount from a decimal amount and a currency code
func NewCurrencyAmount(amount decimal.Decimal, code string) (CurrencyAmount, error) {
	unit, err := ParseCurrency("currency", code)
	if err != nil {
		return CurrencyAmount{}, err
	}
	return CurrencyAmount{Amount: amount, Currency: unit}, nil
}

// NewCurrencyConversion creates a CurrencyConversion, validating both codes and the rate
func NewCurrencyConversion(fromCode, toCode string, rate decimal.Decimal) (CurrencyConversion, error) {
	from, err := ParseCurrency("from_currency", fromCode)
	if err != nil {
		return CurrencyConversion{}, err
	}
	to, err := ParseCurrency("to_currency", toCode)
	if err != nil {
		return CurrencyConversion{}, err
	}
	conversion := CurrencyConversion{FromCurrency: from, ToCurrency: to, Rate: rate}
	if err := conversion.Validate(); err != nil {
		return CurrencyConversion{}, err
	}
	return conversion, nil
}

// Validate ensures the rate is strictly positive
func (c CurrencyConversion) Validate() error {
	if c.Rate.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{
			Field:  "rate",
			Value:  c.Rate.String(),
			Reason: "conversion rate must be positive",
		}
	}
	return nil
}

// Equal reports whether two amounts hold the same value in the same currency
func (a CurrencyAmount) Equal(other CurrencyAmount) bool {
	return a.Currency == other.Currency && a.Amount.Equal(other.Amount)
}

// Equal reports whether two conversions are structurally equal
func (c CurrencyConversion) Equal(other CurrencyConversion) bool {
	return c.FromCurrency == other.FromCurrency &&
		c.ToCurrency == other.ToCurrency &&
		c.Rate.Equal(other.Rate)
}
