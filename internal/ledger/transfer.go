package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ledgerd/internal/domain"
	"ledgerd/internal/logging"
)

type TransferRequest struct {
	SourceID      int64
	DestinationID int64
	Amount        decimal.Decimal
	Currency      domain.Currency
	Description   string
}

// Transfer moves funds between two accounts as one transaction with exactly
// two legs: a debit against the source and a credit against the destination,
// identical amounts. Both account rows are locked in ascending id order, the
// source balance is recomputed after the debit, and a negative result aborts
// the whole attempt with nothing persisted.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*Receipt, error) {
	if err := validateMovement(req.Amount, req.Currency); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if req.SourceID == req.DestinationID {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrSelfTransfer)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Transfer: begin tx: %w", txError(err))
	}
	defer tx.Rollback()

	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, req.SourceID, req.DestinationID)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	source, destination := locked[req.SourceID], locked[req.DestinationID]

	if err := verifyAccountOperable(source, req.Currency, "source"); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if err := verifyAccountOperable(destination, req.Currency, "destination"); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	txn := &domain.Transaction{
		Type:                 domain.TransactionTypeTransfer,
		Amount:               req.Amount,
		Currency:             req.Currency,
		SourceAccountID:      &req.SourceID,
		DestinationAccountID: &req.DestinationID,
		Status:               domain.TransactionStatusPending,
		Description:          noteOf(req.Description),
	}
	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("Transfer: create transaction: %w", err)
	}

	debit := &domain.LedgerEntry{
		TransactionID: txn.ID,
		AccountID:     req.SourceID,
		EntryType:     domain.EntryTypeDebit,
		Amount:        req.Amount,
	}
	if err := s.entries.Append(ctx, tx, debit); err != nil {
		return nil, fmt.Errorf("Transfer: append debit: %w", err)
	}

	credit := &domain.LedgerEntry{
		TransactionID: txn.ID,
		AccountID:     req.DestinationID,
		EntryType:     domain.EntryTypeCredit,
		Amount:        req.Amount,
	}
	if err := s.entries.Append(ctx, tx, credit); err != nil {
		return nil, fmt.Errorf("Transfer: append credit: %w", err)
	}

	// Only the debited side can underflow; the destination balance is never
	// checked.
	balance, err := s.entries.SumByAccount(ctx, tx, req.SourceID)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if balance.IsNegative() {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrInsufficientFunds)
	}

	if err := s.transactions.SetStatus(ctx, tx, txn.ID, domain.TransactionStatusCompleted); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	txn.Status = domain.TransactionStatusCompleted

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Transfer: commit: %w", txError(err))
	}

	logging.FromContext(ctx).Info("transfer completed",
		"transaction_id", txn.ID,
		"source_account", req.SourceID,
		"destination_account", req.DestinationID,
		"amount", req.Amount,
		"currency", req.Currency,
		"source_balance", balance,
	)

	return &Receipt{Transaction: txn, Balance: balance}, nil
}
