package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"ledgerd/internal/domain"
	"ledgerd/internal/event"
	"ledgerd/internal/ledger"
	"ledgerd/internal/logging"
)

type transactionService interface {
	Deposit(ctx context.Context, req ledger.DepositRequest) (*ledger.Receipt, error)
	Withdraw(ctx context.Context, req ledger.WithdrawRequest) (*ledger.Receipt, error)
	Transfer(ctx context.Context, req ledger.TransferRequest) (*ledger.Receipt, error)
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, []domain.LedgerEntry, error)
}

type TransactionHandler struct {
	ledger    transactionService
	publisher event.Publisher
}

func NewTransactionHandler(ledger transactionService, publisher event.Publisher) *TransactionHandler {
	return &TransactionHandler{ledger: ledger, publisher: publisher}
}

type movementRequest struct {
	AccountID   int64           `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

func (r movementRequest) Validate() []FieldError {
	var errs []FieldError

	if r.AccountID <= 0 {
		errs = append(errs, FieldError{Field: "account_id", Message: "required"})
	}

	errs = append(errs, validateAmountCurrency(r.Amount, r.Currency)...)

	return errs
}

type transferRequest struct {
	SourceAccountID      int64           `json:"source_account_id"`
	DestinationAccountID int64           `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Description          string          `json:"description"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError

	if r.SourceAccountID <= 0 {
		errs = append(errs, FieldError{Field: "source_account_id", Message: "required"})
	}

	if r.DestinationAccountID <= 0 {
		errs = append(errs, FieldError{Field: "destination_account_id", Message: "required"})
	}

	errs = append(errs, validateAmountCurrency(r.Amount, r.Currency)...)

	return errs
}

func validateAmountCurrency(amount decimal.Decimal, currency string) []FieldError {
	var errs []FieldError

	if !domain.ValidAmount(amount) {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0 with at most 2 decimal places"})
	}

	if currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	} else if !domain.Currency(currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be USD, EUR, or GBP"})
	}

	return errs
}

type transactionDTO struct {
	ID                   int64     `json:"id"`
	Type                 string    `json:"type"`
	Amount               string    `json:"amount"`
	Currency             string    `json:"currency"`
	SourceAccountID      *int64    `json:"source_account_id,omitempty"`
	DestinationAccountID *int64    `json:"destination_account_id,omitempty"`
	Status               string    `json:"status"`
	Description          *string   `json:"description,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:                   t.ID,
		Type:                 string(t.Type),
		Amount:               t.Amount.StringFixed(2),
		Currency:             string(t.Currency),
		SourceAccountID:      t.SourceAccountID,
		DestinationAccountID: t.DestinationAccountID,
		Status:               string(t.Status),
		Description:          t.Description,
		CreatedAt:            t.CreatedAt,
	}
}

type receiptDTO struct {
	Transaction transactionDTO `json:"transaction"`
	Balance     string         `json:"balance"`
}

func toReceiptDTO(rec *ledger.Receipt) receiptDTO {
	return receiptDTO{
		Transaction: toTransactionDTO(rec.Transaction),
		Balance:     rec.Balance.StringFixed(2),
	}
}

type transactionDetailDTO struct {
	Transaction transactionDTO   `json:"transaction"`
	Entries     []ledgerEntryDTO `json:"entries"`
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	receipt, err := h.ledger.Deposit(r.Context(), ledger.DepositRequest{
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Currency:    domain.Currency(req.Currency),
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("deposit failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	h.publishCompleted(r.Context(), receipt.Transaction)

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%d", receipt.Transaction.ID))
	RespondSuccess(w, http.StatusCreated, toReceiptDTO(receipt))
}

func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	receipt, err := h.ledger.Withdraw(r.Context(), ledger.WithdrawRequest{
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Currency:    domain.Currency(req.Currency),
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("withdrawal failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	h.publishCompleted(r.Context(), receipt.Transaction)

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%d", receipt.Transaction.ID))
	RespondSuccess(w, http.StatusCreated, toReceiptDTO(receipt))
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	receipt, err := h.ledger.Transfer(r.Context(), ledger.TransferRequest{
		SourceID:      req.SourceAccountID,
		DestinationID: req.DestinationAccountID,
		Amount:        req.Amount,
		Currency:      domain.Currency(req.Currency),
		Description:   req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("transfer failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	h.publishCompleted(r.Context(), receipt.Transaction)

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%d", receipt.Transaction.ID))
	RespondSuccess(w, http.StatusCreated, toReceiptDTO(receipt))
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	txn, entries, err := h.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction lookup failed", "error", err, "transaction_id", id)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]ledgerEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = toLedgerEntryDTO(&entries[i])
	}

	RespondSuccess(w, http.StatusOK, transactionDetailDTO{
		Transaction: toTransactionDTO(txn),
		Entries:     dtos,
	})
}

// publishCompleted emits the post-commit event for a finalized transaction.
// Delivery failures are logged, never surfaced: the committed ledger rows
// are the source of truth.
func (h *TransactionHandler) publishCompleted(ctx context.Context, txn *domain.Transaction) {
	err := h.publisher.Publish(ctx, event.TransactionCompleted{
		TransactionID:        txn.ID,
		Type:                 txn.Type,
		Amount:               txn.Amount,
		Currency:             txn.Currency,
		SourceAccountID:      txn.SourceAccountID,
		DestinationAccountID: txn.DestinationAccountID,
		OccurredAt:           txn.CreatedAt,
	})
	if err != nil {
		logging.FromContext(ctx).Error("failed to publish transaction event",
			"error", err,
			"transaction_id", txn.ID,
		)
	}
}
