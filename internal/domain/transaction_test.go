package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func validTransaction() Transaction {
	return Transaction{
		ID:                  "tx-1",
		Bank:                "monzo",
		AccountID:           "acc-1",
		TransactionDatetime: time.Date(2024, 11, 29, 14, 10, 21, 0, time.UTC),
		TransactionAmount: CurrencyAmount{
			Amount:   decimal.RequireFromString("-7.00"),
			Currency: currency.GBP,
		},
		ShortName: "Perks",
	}
}

func TestTransaction_Validate(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(tx *Transaction)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "Unclassified transaction without conversion should pass",
			mutate:  func(tx *Transaction) {},
			wantErr: false,
		},
		{
			name: "Transaction with conversion and periodic tag should pass",
			mutate: func(tx *Transaction) {
				tx.CurrencyConversion = &CurrencyConversion{
					FromCurrency: currency.USD,
					ToCurrency:   currency.GBP,
					Rate:         decimal.RequireFromString("0.79"),
				}
				tx.Tags = TransactionTags{TransactionType: Periodic{FromDate: from, ToDate: to}}
			},
			wantErr: false,
		},
		{
			name:    "Empty id should fail",
			mutate:  func(tx *Transaction) { tx.ID = "" },
			wantErr: true,
			errMsg:  "transaction id cannot be empty",
		},
		{
			name:    "Empty bank should fail",
			mutate:  func(tx *Transaction) { tx.Bank = "" },
			wantErr: true,
			errMsg:  "transaction bank cannot be empty",
		},
		{
			name:    "Empty account id should fail",
			mutate:  func(tx *Transaction) { tx.AccountID = "" },
			wantErr: true,
			errMsg:  "transaction account id cannot be empty",
		},
		{
			name:    "Zero datetime should fail",
			mutate:  func(tx *Transaction) { tx.TransactionDatetime = time.Time{} },
			wantErr: true,
			errMsg:  "transaction datetime cannot be empty",
		},
		{
			name:    "Empty short name should fail",
			mutate:  func(tx *Transaction) { tx.ShortName = "" },
			wantErr: true,
			errMsg:  "transaction short name cannot be empty",
		},
		{
			name: "Non-positive conversion rate should fail",
			mutate: func(tx *Transaction) {
				tx.CurrencyConversion = &CurrencyConversion{
					FromCurrency: currency.USD,
					ToCurrency:   currency.GBP,
					Rate:         decimal.Zero,
				}
			},
			wantErr: true,
			errMsg:  "conversion rate must be positive",
		},
		{
			name: "Inverted periodic range should fail",
			mutate: func(tx *Transaction) {
				tx.Tags = TransactionTags{TransactionType: Periodic{FromDate: to, ToDate: from}}
			},
			wantErr: true,
			errMsg:  "periodic from_date must not be after to_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewCurrencyAmount(t *testing.T) {
	amount, err := NewCurrencyAmount(decimal.RequireFromString("15.0000"), "GBP")
	require.NoError(t, err)
	assert.Equal(t, currency.GBP, amount.Currency)
	assert.True(t, amount.Amount.Equal(decimal.NewFromInt(15)))

	_, err = NewCurrencyAmount(decimal.NewFromInt(1), "ZZZ")
	require.Error(t, err)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "currency", validationErr.Field)
	assert.Equal(t, "ZZZ", validationErr.Value)

	_, err = NewCurrencyAmount(decimal.NewFromInt(1), "EURO")
	assert.Error(t, err)
}

func TestNewCurrencyConversion(t *testing.T) {
	conversion, err := NewCurrencyConversion("USD", "EUR", decimal.RequireFromString("1.08"))
	require.NoError(t, err)
	assert.Equal(t, currency.USD, conversion.FromCurrency)
	assert.Equal(t, currency.EUR, conversion.ToCurrency)
	assert.True(t, conversion.Rate.Equal(decimal.RequireFromString("1.08")))

	_, err = NewCurrencyConversion("", "EUR", decimal.NewFromInt(1))
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "from_currency", validationErr.Field)

	_, err = NewCurrencyConversion("USD", "???", decimal.NewFromInt(1))
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "to_currency", validationErr.Field)

	_, err = NewCurrencyConversion("USD", "EUR", decimal.NewFromInt(-1))
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "rate", validationErr.Field)
}

func TestNewPeriodic(t *testing.T) {
	cet := time.FixedZone("CET", 60*60)

	from := time.Date(2024, 3, 1, 1, 0, 0, 0, cet)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	p, err := NewPeriodic(from, to)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, p.FromDate.Location())
	assert.True(t, p.FromDate.Equal(from))
	assert.Equal(t, TransactionTypePeriodic, p.Kind())

	_, err = NewPeriodic(to, from)
	assert.Error(t, err)

	same, err := NewPeriodic(to, to)
	require.NoError(t, err)
	assert.True(t, same.FromDate.Equal(same.ToDate))
}

func TestTransaction_Equal(t *testing.T) {
	a := validTransaction()
	b := validTransaction()
	b.TransactionAmount.Amount = decimal.RequireFromString("-7")
	assert.True(t, a.Equal(b), "decimals with different exponents should compare equal")

	b.CurrencyConversion = &CurrencyConversion{FromCurrency: currency.USD, ToCurrency: currency.GBP, Rate: decimal.NewFromInt(1)}
	assert.False(t, a.Equal(b), "absent conversion differs from present conversion")

	c := validTransaction()
	c.Tags = TransactionTags{TransactionType: OneOff{}}
	assert.False(t, a.Equal(c), "unclassified differs from one-off")
	assert.True(t, c.Equal(c.WithTags(TransactionTags{TransactionType: OneOff{}})))
}

func TestTransaction_WithTags(t *testing.T) {
	original := validTransaction()
	original.CurrencyConversion = &CurrencyConversion{FromCurrency: currency.USD, ToCurrency: currency.GBP, Rate: decimal.NewFromInt(1)}

	tagged := original.WithTags(TransactionTags{TransactionType: OneOff{}})

	assert.Nil(t, original.Tags.TransactionType, "original must not change")
	assert.Equal(t, TransactionTypeOneOff, tagged.Tags.TransactionType.Kind())
	assert.NotSame(t, original.CurrencyConversion, tagged.CurrencyConversion)
}

func TestTransaction_ApplyUpdate(t *testing.T) {
	stored := validTransaction()
	stored.Tags = TransactionTags{TransactionType: OneOff{}}

	incoming := validTransaction()
	incoming.ShortName = "Perks Coffee"
	incoming.TransactionAmount.Amount = decimal.RequireFromString("-7.50")
	incoming.TransactionDatetime = stored.TransactionDatetime.Add(time.Hour)
	incoming.Bank = "other"

	merged, err := stored.ApplyUpdate(incoming)
	require.NoError(t, err)
	assert.Equal(t, "Perks Coffee", merged.ShortName)
	assert.True(t, merged.TransactionAmount.Amount.Equal(decimal.RequireFromString("-7.5")))
	assert.True(t, merged.TransactionDatetime.Equal(incoming.TransactionDatetime))
	assert.Equal(t, "monzo", merged.Bank, "bank is not refreshed")
	assert.Equal(t, TransactionTypeOneOff, merged.Tags.TransactionType.Kind(), "tags are kept")

	incoming.ID = "tx-2"
	_, err = stored.ApplyUpdate(incoming)
	assert.EqualError(t, err, "transaction ids do not match")
}
