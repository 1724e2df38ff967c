package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledgerd/internal/domain"
)

const accountColumns = `id, user_id, type, currency, status`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new active account and returns it with the store-assigned
// identifier.
func (r *AccountRepository) Create(ctx context.Context, ownerID, kind string, currency domain.Currency) (*domain.Account, error) {
	a := &domain.Account{
		UserID:   ownerID,
		Type:     kind,
		Currency: currency,
		Status:   domain.AccountStatusActive,
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (user_id, type, currency, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		a.UserID, a.Type, a.Currency, a.Status,
	).Scan(&a.ID)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", translateError(err))
	}
	return a, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", translateError(err))
	}
	return a, nil
}

// Get reads an account inside the supplied transaction without locking the
// row.
func (r *AccountRepository) Get(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Get: %w", translateError(err))
	}
	return a, nil
}

// GetForUpdate locks the account row exclusively until the surrounding
// transaction commits or rolls back.
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", translateError(err))
	}
	return a, nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(&a.ID, &a.UserID, &a.Type, &a.Currency, &a.Status)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
