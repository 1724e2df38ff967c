package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"ledgerd/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

type PoolConfig struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetimeS int
	ConnMaxIdleTimeS int
}

func NewPostgresDB(ctx context.Context, databaseURL string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresDB: open: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeS) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("NewPostgresDB: ping: %w", err)
	}

	return db, nil
}

// translateError maps driver failures onto the domain taxonomy. Lock
// contention, deadlocks, and cancelled statements are retryable conflicts;
// connection-class failures mean the store itself cannot be reached.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%v: %w", err, domain.ErrConflict)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		// serialization_failure, deadlock_detected, lock_not_available,
		// query_canceled, unique_violation
		case "40001", "40P01", "55P03", "57014", "23505":
			return fmt.Errorf("pq %s: %w", pqErr.Code, domain.ErrConflict)
		}
		switch pqErr.Code.Class() {
		// connection exceptions, insufficient resources, operator
		// intervention, system errors
		case "08", "53", "57", "58":
			return fmt.Errorf("pq %s: %w", pqErr.Code, domain.ErrStoreUnavailable)
		}
		return err
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%v: %w", err, domain.ErrStoreUnavailable)
	}

	return err
}
