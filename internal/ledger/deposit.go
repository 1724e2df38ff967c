package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ledgerd/internal/domain"
	"ledgerd/internal/logging"
)

type DepositRequest struct {
	AccountID   int64
	Amount      decimal.Decimal
	Currency    domain.Currency
	Description string
}

// Deposit credits the account with a single ledger entry. A credit cannot
// drive the balance below zero, so no balance check and no row lock apply;
// the account is still read inside the transaction so a concurrent status
// change is observed.
func (s *Service) Deposit(ctx context.Context, req DepositRequest) (*Receipt, error) {
	if err := validateMovement(req.Amount, req.Currency); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Deposit: begin tx: %w", txError(err))
	}
	defer tx.Rollback()

	acct, err := s.accounts.Get(ctx, tx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", asAccountError(err))
	}
	if err := verifyAccountOperable(acct, req.Currency, "destination"); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	txn := &domain.Transaction{
		Type:                 domain.TransactionTypeDeposit,
		Amount:               req.Amount,
		Currency:             req.Currency,
		DestinationAccountID: &req.AccountID,
		Status:               domain.TransactionStatusPending,
		Description:          noteOf(req.Description),
	}
	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("Deposit: create transaction: %w", err)
	}

	credit := &domain.LedgerEntry{
		TransactionID: txn.ID,
		AccountID:     req.AccountID,
		EntryType:     domain.EntryTypeCredit,
		Amount:        req.Amount,
	}
	if err := s.entries.Append(ctx, tx, credit); err != nil {
		return nil, fmt.Errorf("Deposit: append credit: %w", err)
	}

	balance, err := s.entries.SumByAccount(ctx, tx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	if err := s.transactions.SetStatus(ctx, tx, txn.ID, domain.TransactionStatusCompleted); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}
	txn.Status = domain.TransactionStatusCompleted

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Deposit: commit: %w", txError(err))
	}

	logging.FromContext(ctx).Info("deposit completed",
		"transaction_id", txn.ID,
		"account_id", req.AccountID,
		"amount", req.Amount,
		"currency", req.Currency,
		"balance", balance,
	)

	return &Receipt{Transaction: txn, Balance: balance}, nil
}
