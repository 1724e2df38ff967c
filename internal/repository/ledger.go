package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"ledgerd/internal/domain"
)

const ledgerColumns = `id, transaction_id, account_id, entry_type, amount, created_at`

// sumEntriesQuery is the authoritative balance computation: credits minus
// debits over every entry ever written for the account.
const sumEntriesQuery = `SELECT COALESCE(SUM(CASE WHEN entry_type = 'credit' THEN amount ELSE -amount END), 0)
	FROM ledger_entries WHERE account_id = $1`

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts one entry inside tx. Entries are append-only and are never
// updated or deleted once written.
func (r *LedgerRepository) Append(ctx context.Context, tx *sql.Tx, e *domain.LedgerEntry) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO ledger_entries (transaction_id, account_id, entry_type, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.TransactionID, e.AccountID, e.EntryType, e.Amount,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("Append: %w", translateError(err))
	}
	return nil
}

// SumByAccount computes the account balance inside tx, observing entries
// written earlier in the same transaction.
func (r *LedgerRepository) SumByAccount(ctx context.Context, tx *sql.Tx, accountID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := tx.QueryRowContext(ctx, sumEntriesQuery, accountID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("SumByAccount: %w", translateError(err))
	}
	return sum, nil
}

// Balance is the same computation outside any transaction, for plain reads.
func (r *LedgerRepository) Balance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, sumEntriesQuery, accountID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("Balance: %w", translateError(err))
	}
	return sum, nil
}

// ListByAccount returns the account's entries ordered by creation time then
// identifier, with the total entry count for pagination.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]domain.LedgerEntry, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: count: %w", translateError(err))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE account_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: %w", translateError(err))
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListByAccount: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: rows: %w", translateError(err))
	}
	return entries, total, nil
}

// ListByTransaction returns the legs of one transaction in insertion order.
func (r *LedgerRepository) ListByTransaction(ctx context.Context, transactionID int64) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE transaction_id = $1 ORDER BY id`, transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByTransaction: %w", translateError(err))
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByTransaction: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByTransaction: rows: %w", translateError(err))
	}
	return entries, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(&e.ID, &e.TransactionID, &e.AccountID, &e.EntryType, &e.Amount, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
