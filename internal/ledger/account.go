package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ledgerd/internal/domain"
	"ledgerd/internal/logging"
)

type OpenAccountRequest struct {
	OwnerID  string
	Kind     string
	Currency domain.Currency
}

// OpenAccount creates a new active account with a zero-entry ledger. It
// never touches the ledger itself.
func (s *Service) OpenAccount(ctx context.Context, req OpenAccountRequest) (*domain.Account, error) {
	if req.OwnerID == "" || req.Kind == "" {
		return nil, fmt.Errorf("OpenAccount: %w", domain.ErrInvalidInput)
	}
	if !req.Currency.IsValid() {
		return nil, fmt.Errorf("OpenAccount: %w", domain.ErrInvalidCurrency)
	}

	acct, err := s.accounts.Create(ctx, req.OwnerID, req.Kind, req.Currency)
	if err != nil {
		return nil, fmt.Errorf("OpenAccount: %w", err)
	}

	logging.FromContext(ctx).Info("account opened",
		"account_id", acct.ID,
		"user_id", acct.UserID,
		"type", acct.Type,
		"currency", acct.Currency,
	)

	return acct, nil
}

// GetBalance derives the account's balance from its entries. The account row
// itself is returned alongside so callers can report its currency.
func (s *Service) GetBalance(ctx context.Context, accountID int64) (*domain.Account, decimal.Decimal, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("GetBalance: %w", asAccountError(err))
	}

	balance, err := s.entries.Balance(ctx, accountID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("GetBalance: %w", err)
	}

	return acct, balance, nil
}

// ListLedger returns one page of the account's entries, oldest first, along
// with the total entry count.
func (s *Service) ListLedger(ctx context.Context, accountID int64, limit, offset int) ([]domain.LedgerEntry, int, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, 0, fmt.Errorf("ListLedger: %w", asAccountError(err))
	}

	entries, total, err := s.entries.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListLedger: %w", err)
	}

	return entries, total, nil
}

// GetTransaction returns a committed transaction with its ledger legs.
func (s *Service) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, []domain.LedgerEntry, error) {
	txn, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("GetTransaction: %w", err)
	}

	entries, err := s.entries.ListByTransaction(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("GetTransaction: %w", err)
	}

	return txn, entries, nil
}
