package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/simaogato/transactions-backend/internal/adapter/interchange"
	"github.com/simaogato/transactions-backend/internal/domain"
)

const uniqueViolation = "23505"

const transactionColumns = `id, bank, account_id, transaction_datetime, transaction_datetime_ns, amount, currency,
	conversion_from, conversion_to, conversion_rate, short_name, tags`

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db    *DB
	table string // Already quoted
}

// NewTransactionRepository creates a new transaction repository backed by the given table
func NewTransactionRepository(db *DB, table string) domain.TransactionRepository {
	return &transactionRepository{db: db, table: pq.QuoteIdentifier(table)}
}

// GetByID retrieves a transaction by its source-assigned ID
func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, transactionColumns, r.table)

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction by ID: %w", err)
	}

	return tx, nil
}

// Create inserts a new transaction
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	args, err := transactionArgs(tx)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, r.table, transactionColumns)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("transaction %s: %w", tx.ID, domain.ErrTransactionExists)
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// Update overwrites every column of a stored transaction
func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	args, err := transactionArgs(tx)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET bank = $2, account_id = $3, transaction_datetime = $4, transaction_datetime_ns = $5,
			amount = $6, currency = $7, conversion_from = $8, conversion_to = $9, conversion_rate = $10,
			short_name = $11, tags = $12
		WHERE id = $1
	`, r.table)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", tx.ID, domain.ErrTransactionNotFound)
	}

	return nil
}

// List retrieves a page of transactions ordered by datetime, newest first
func (r *transactionRepository) List(ctx context.Context, filter domain.TransactionFilter, limit, offset int) ([]*domain.Transaction, error) {
	where, args := filterClause(filter)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		%s
		ORDER BY transaction_datetime DESC, transaction_datetime_ns DESC, id
		LIMIT $%d OFFSET $%d
	`, transactionColumns, r.table, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// Count returns the number of transactions matching the filter
func (r *transactionRepository) Count(ctx context.Context, filter domain.TransactionFilter) (int, error) {
	where, args := filterClause(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, r.table, where)

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

// filterClause builds the WHERE clause and its positional arguments
func filterClause(filter domain.TransactionFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Bank != "" {
		args = append(args, filter.Bank)
		conditions = append(conditions, fmt.Sprintf("bank = $%d", len(args)))
	}
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		conditions = append(conditions, fmt.Sprintf("account_id = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// transactionArgs flattens a transaction into column values, in transactionColumns order
func transactionArgs(tx *domain.Transaction) ([]any, error) {
	tags, err := interchange.EncodeTags(tx.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	var conversionFrom, conversionTo, conversionRate any
	if tx.CurrencyConversion != nil {
		conversionFrom = tx.CurrencyConversion.FromCurrency.String()
		conversionTo = tx.CurrencyConversion.ToCurrency.String()
		conversionRate = tx.CurrencyConversion.Rate.String()
	}

	datetime, nanos := splitDatetime(tx.TransactionDatetime)

	return []any{
		tx.ID,
		tx.Bank,
		tx.AccountID,
		datetime,
		nanos,
		tx.TransactionAmount.Amount.String(),
		tx.TransactionAmount.Currency.String(),
		conversionFrom,
		conversionTo,
		conversionRate,
		tx.ShortName,
		string(tags),
	}, nil
}

// splitDatetime separates the sub-microsecond part that TIMESTAMPTZ cannot hold
func splitDatetime(t time.Time) (time.Time, int64) {
	t = t.UTC()
	micro := t.Truncate(time.Microsecond)
	return micro, int64(t.Sub(micro))
}

// joinDatetime restores a datetime split by splitDatetime
func joinDatetime(micro time.Time, nanos int64) time.Time {
	return micro.UTC().Add(time.Duration(nanos))
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTransaction reads one row selected with transactionColumns
func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var amountStr, currencyCode string
	var datetimeNanos int64
	var conversionFrom, conversionTo, conversionRate sql.NullString
	var tags []byte

	err := row.Scan(
		&tx.ID,
		&tx.Bank,
		&tx.AccountID,
		&tx.TransactionDatetime,
		&datetimeNanos,
		&amountStr,
		&currencyCode,
		&conversionFrom,
		&conversionTo,
		&conversionRate,
		&tx.ShortName,
		&tags,
	)
	if err != nil {
		return nil, err
	}
	tx.TransactionDatetime = joinDatetime(tx.TransactionDatetime, datetimeNanos)

	// Parse amount (NUMERIC)
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	tx.TransactionAmount, err = domain.NewCurrencyAmount(amount, currencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse currency: %w", err)
	}

	// Parse conversion (nullable)
	if conversionFrom.Valid {
		rate, err := decimal.NewFromString(conversionRate.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse conversion_rate: %w", err)
		}
		conversion, err := domain.NewCurrencyConversion(conversionFrom.String, conversionTo.String, rate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse conversion: %w", err)
		}
		tx.CurrencyConversion = &conversion
	}

	tx.Tags, err = interchange.DecodeTags(tags)
	if err != nil {
		return nil, err
	}

	return &tx, nil
}
