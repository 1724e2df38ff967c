package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"ledgerd/internal/config"
	"ledgerd/internal/domain"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type accountRepo interface {
	Create(ctx context.Context, ownerID, kind string, currency domain.Currency) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	Get(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error)
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, txn *domain.Transaction) error
	SetStatus(ctx context.Context, tx *sql.Tx, id int64, status domain.TransactionStatus) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
}

type entryRepo interface {
	Append(ctx context.Context, tx *sql.Tx, e *domain.LedgerEntry) error
	SumByAccount(ctx context.Context, tx *sql.Tx, accountID int64) (decimal.Decimal, error)
	Balance(ctx context.Context, accountID int64) (decimal.Decimal, error)
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]domain.LedgerEntry, int, error)
	ListByTransaction(ctx context.Context, transactionID int64) ([]domain.LedgerEntry, error)
}

type Service struct {
	accounts     accountRepo
	transactions transactionRepo
	entries      entryRepo
	db           *sql.DB
	config       *config.Config
}

func NewService(
	accounts accountRepo,
	transactions transactionRepo,
	entries entryRepo,
	db *sql.DB,
	cfg *config.Config,
) *Service {
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		entries:      entries,
		db:           db,
		config:       cfg,
	}
}

// Receipt is the outcome of a committed money movement: the finalized
// transaction and the derived balance of the account whose funds were at
// stake (the credited account for a deposit, the debited account otherwise).
type Receipt struct {
	Transaction *domain.Transaction
	Balance     decimal.Decimal
}

// opContext bounds a money movement so a contended row lock surfaces as a
// retryable conflict instead of blocking the caller indefinitely.
func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(s.config.OpTimeoutS)*time.Second)
}

func validateMovement(amount decimal.Decimal, currency domain.Currency) error {
	if !domain.ValidAmount(amount) {
		return domain.ErrInvalidAmount
	}
	if !currency.IsValid() {
		return domain.ErrInvalidCurrency
	}
	return nil
}

// verifyAccountOperable rejects movements against accounts that are not
// active or whose currency differs from the movement's.
func verifyAccountOperable(acct *domain.Account, currency domain.Currency, role string) error {
	if acct.Status == domain.AccountStatusFrozen {
		return fmt.Errorf("%s: %w", role, domain.ErrAccountFrozen)
	}
	if acct.Status != domain.AccountStatusActive {
		return fmt.Errorf("%s: %w", role, domain.ErrAccountClosed)
	}
	if acct.Currency != currency {
		return fmt.Errorf("%s: %w", role, domain.ErrCurrencyMismatch)
	}
	return nil
}

// lockAccountsInOrder acquires row locks in ascending account id so two
// opposite-direction transfers can never deadlock on each other.
func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountRepo, ids ...int64) (map[int64]*domain.Account, error) {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	slices.Sort(sorted)

	result := make(map[int64]*domain.Account, len(ids))
	for _, id := range sorted {
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockAccountsInOrder: %w", asAccountError(err))
		}
		result[id] = acct
	}
	return result, nil
}

// asAccountError rewrites the repository's generic not-found into the
// operation-level account error.
func asAccountError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrAccountNotFound
	}
	return err
}

// txError maps begin/commit failures onto the domain taxonomy. Statement
// failures inside the transaction are already translated by the repository;
// only the transaction boundary itself is handled here.
func txError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%v: %w", err, domain.ErrConflict)
	}
	return fmt.Errorf("%v: %w", err, domain.ErrStoreUnavailable)
}

func noteOf(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
