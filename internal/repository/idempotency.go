package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

type IdempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Get returns the stored record for key, or nil if the key is unknown or
// expired.
func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*IdempotencyRecord, error) {
	var rec IdempotencyRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT idempotency_key, request_hash, status_code, response_body, created_at, expires_at
		FROM idempotency_keys
		WHERE idempotency_key = $1 AND expires_at > now()`,
		key,
	).Scan(&rec.Key, &rec.RequestHash, &rec.StatusCode, &rec.ResponseBody, &rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", translateError(err))
	}
	return &rec, nil
}

func (r *IdempotencyRepository) Set(ctx context.Context, rec *IdempotencyRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO idempotency_keys (idempotency_key, request_hash, status_code, response_body, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (idempotency_key) DO NOTHING`,
		rec.Key, rec.RequestHash, rec.StatusCode, rec.ResponseBody, rec.CreatedAt, rec.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("Set: %w", translateError(err))
	}
	return nil
}

func (r *IdempotencyRepository) CleanExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_keys WHERE expires_at < now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: %w", translateError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: rows affected: %w", err)
	}
	return n, nil
}
