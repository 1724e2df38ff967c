package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ledgerd/internal/domain"
	"ledgerd/internal/logging"
)

type WithdrawRequest struct {
	AccountID   int64
	Amount      decimal.Decimal
	Currency    domain.Currency
	Description string
}

// Withdraw debits the account with a single ledger entry. The account row is
// locked for the duration of the transaction, the debit is appended, and the
// balance is recomputed from the entries; a negative result aborts the whole
// attempt, leaving no trace of the transaction or its entry.
func (s *Service) Withdraw(ctx context.Context, req WithdrawRequest) (*Receipt, error) {
	if err := validateMovement(req.Amount, req.Currency); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: begin tx: %w", txError(err))
	}
	defer tx.Rollback()

	acct, err := s.accounts.GetForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", asAccountError(err))
	}
	if err := verifyAccountOperable(acct, req.Currency, "source"); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	txn := &domain.Transaction{
		Type:            domain.TransactionTypeWithdrawal,
		Amount:          req.Amount,
		Currency:        req.Currency,
		SourceAccountID: &req.AccountID,
		Status:          domain.TransactionStatusPending,
		Description:     noteOf(req.Description),
	}
	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("Withdraw: create transaction: %w", err)
	}

	debit := &domain.LedgerEntry{
		TransactionID: txn.ID,
		AccountID:     req.AccountID,
		EntryType:     domain.EntryTypeDebit,
		Amount:        req.Amount,
	}
	if err := s.entries.Append(ctx, tx, debit); err != nil {
		return nil, fmt.Errorf("Withdraw: append debit: %w", err)
	}

	balance, err := s.entries.SumByAccount(ctx, tx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	if balance.IsNegative() {
		return nil, fmt.Errorf("Withdraw: %w", domain.ErrInsufficientFunds)
	}

	if err := s.transactions.SetStatus(ctx, tx, txn.ID, domain.TransactionStatusCompleted); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	txn.Status = domain.TransactionStatusCompleted

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Withdraw: commit: %w", txError(err))
	}

	logging.FromContext(ctx).Info("withdrawal completed",
		"transaction_id", txn.ID,
		"account_id", req.AccountID,
		"amount", req.Amount,
		"currency", req.Currency,
		"balance", balance,
	)

	return &Receipt{Transaction: txn, Balance: balance}, nil
}
