package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledgerd/internal/domain"
)

const transactionColumns = `id, type, amount, currency, source_account_id,
	destination_account_id, status, description, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts the transaction inside tx and fills in the store-assigned
// identifier and creation timestamp.
func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, txn *domain.Transaction) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO transactions (type, amount, currency, source_account_id, destination_account_id, status, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		txn.Type, txn.Amount, txn.Currency, txn.SourceAccountID, txn.DestinationAccountID, txn.Status, txn.Description,
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", translateError(err))
	}
	return nil
}

// SetStatus finalizes a pending transaction. Finalization is one-way: a row
// that already left pending is never updated again.
func (r *TransactionRepository) SetStatus(ctx context.Context, tx *sql.Tx, id int64, status domain.TransactionStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET status = $1 WHERE id = $2 AND status = $3`,
		status, id, domain.TransactionStatusPending,
	)
	if err != nil {
		return fmt.Errorf("SetStatus: %w", translateError(err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("SetStatus: %w", domain.ErrTransactionFinalized)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", translateError(err))
	}
	return txn, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var source, dest sql.NullInt64

	err := s.Scan(
		&t.ID, &t.Type, &t.Amount, &t.Currency,
		&source, &dest,
		&t.Status, &t.Description, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if source.Valid {
		t.SourceAccountID = &source.Int64
	}
	if dest.Valid {
		t.DestinationAccountID = &dest.Int64
	}
	return &t, nil
}
