package domain

import (
	"errors"
	"time"
)

// TransactionTypeKind names the variants of TransactionType
type TransactionTypeKind string

const (
	TransactionTypeOneOff   TransactionTypeKind = "one_off"
	TransactionTypePeriodic TransactionTypeKind = "periodic"
)

// TransactionType is a closed sum type: OneOff or Periodic.
// Only types in this package can implement it.
type TransactionType interface {
	Kind() TransactionTypeKind
	isTransactionType()
}

// OneOff marks a transaction that happens once
type OneOff struct{}

// Kind returns TransactionTypeOneOff
func (OneOff) Kind() TransactionTypeKind {
	return TransactionTypeOneOff
}

func (OneOff) isTransactionType() {}

// Periodic marks a transaction covering the period [FromDate, ToDate]
type Periodic struct {
	FromDate time.Time
	ToDate   time.Time
}

// Kind returns TransactionTypePeriodic
func (Periodic) Kind() TransactionTypeKind {
	return TransactionTypePeriodic
}

func (Periodic) isTransactionType() {}

// NewPeriodic creates a Periodic transaction type, normalizing both dates to UTC
func NewPeriodic(from, to time.Time) (Periodic, error) {
	p := Periodic{FromDate: from.UTC(), ToDate: to.UTC()}
	if err := p.Validate(); err != nil {
		return Periodic{}, err
	}
	return p, nil
}

// Validate ensures FromDate <= ToDate
func (p Periodic) Validate() error {
	if p.FromDate.After(p.ToDate) {
		return &ValidationError{
			Field:  "transaction_type",
			Reason: "periodic from_date must not be after to_date",
		}
	}
	return nil
}

// TransactionTags holds classification metadata.
// A nil TransactionType means unclassified, not one-off.
type TransactionTags struct {
	TransactionType TransactionType
}

// Equal reports whether two tag sets are structurally equal
func (t TransactionTags) Equal(other TransactionTags) bool {
	switch a := t.TransactionType.(type) {
	case nil:
		return other.TransactionType == nil
	case OneOff:
		_, ok := other.TransactionType.(OneOff)
		return ok
	case Periodic:
		b, ok := other.TransactionType.(Periodic)
		return ok && a.FromDate.Equal(b.FromDate) && a.ToDate.Equal(b.ToDate)
	}
	return false
}

// Transaction is the canonical, bank-independent transaction.
// Values are snapshots: methods that change a field return a new Transaction.
type Transaction struct {
	ID                  string // Opaque, assigned by the source institution
	Bank                string
	AccountID           string
	TransactionDatetime time.Time // Always UTC
	TransactionAmount   CurrencyAmount
	CurrencyConversion  *CurrencyConversion // nil unless the source reports an exchange
	ShortName           string
	Tags                TransactionTags
}

// Validate ensures the transaction is structurally well-formed
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return errors.New("transaction id cannot be empty")
	}
	if t.Bank == "" {
		return errors.New("transaction bank cannot be empty")
	}
	if t.AccountID == "" {
		return errors.New("transaction account id cannot be empty")
	}
	if t.TransactionDatetime.IsZero() {
		return errors.New("transaction datetime cannot be empty")
	}
	if t.ShortName == "" {
		return errors.New("transaction short name cannot be empty")
	}

	if t.CurrencyConversion != nil {
		if err := t.CurrencyConversion.Validate(); err != nil {
			return err
		}
	}

	if p, ok := t.Tags.TransactionType.(Periodic); ok {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Equal reports whether two transactions are structurally equal
func (t Transaction) Equal(other Transaction) bool {
	if t.ID != other.ID ||
		t.Bank != other.Bank ||
		t.AccountID != other.AccountID ||
		t.ShortName != other.ShortName {
		return false
	}
	if !t.TransactionDatetime.Equal(other.TransactionDatetime) {
		return false
	}
	if !t.TransactionAmount.Equal(other.TransactionAmount) {
		return false
	}
	if (t.CurrencyConversion == nil) != (other.CurrencyConversion == nil) {
		return false
	}
	if t.CurrencyConversion != nil && !t.CurrencyConversion.Equal(*other.CurrencyConversion) {
		return false
	}
	return t.Tags.Equal(other.Tags)
}

// WithTags returns a copy of the transaction carrying the given tags
func (t Transaction) WithTags(tags TransactionTags) Transaction {
	out := t.clone()
	out.Tags = tags
	return out
}

// ApplyUpdate merges a fresher snapshot of the same transaction from the source bank.
// Only the datetime, amount and short name are refreshed; tags and conversion are kept.
func (t Transaction) ApplyUpdate(incoming Transaction) (Transaction, error) {
	if t.ID != incoming.ID {
		return Transaction{}, errors.New("transaction ids do not match")
	}
	out := t.clone()
	out.TransactionDatetime = incoming.TransactionDatetime
	out.TransactionAmount = incoming.TransactionAmount
	out.ShortName = incoming.ShortName
	return out, nil
}

// clone copies the transaction so the result shares no pointers with t
func (t Transaction) clone() Transaction {
	out := t
	if t.CurrencyConversion != nil {
		conversion := *t.CurrencyConversion
		out.CurrencyConversion = &conversion
	}
	return out
}
