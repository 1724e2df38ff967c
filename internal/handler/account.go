package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"ledgerd/internal/domain"
	"ledgerd/internal/ledger"
	"ledgerd/internal/logging"
)

type accountService interface {
	OpenAccount(ctx context.Context, req ledger.OpenAccountRequest) (*domain.Account, error)
	GetBalance(ctx context.Context, accountID int64) (*domain.Account, decimal.Decimal, error)
	ListLedger(ctx context.Context, accountID int64, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type openAccountRequest struct {
	UserID   string `json:"user_id"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
}

func (r openAccountRequest) Validate() []FieldError {
	var errs []FieldError

	if r.UserID == "" {
		errs = append(errs, FieldError{Field: "user_id", Message: "required"})
	}

	if r.Type == "" {
		errs = append(errs, FieldError{Field: "type", Message: "required"})
	}

	if r.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	} else if !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be USD, EUR, or GBP"})
	}

	return errs
}

type accountDTO struct {
	ID       int64  `json:"id"`
	UserID   string `json:"user_id"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:       a.ID,
		UserID:   a.UserID,
		Type:     a.Type,
		Currency: string(a.Currency),
		Status:   string(a.Status),
	}
}

type balanceDTO struct {
	AccountID int64  `json:"account_id"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
}

type ledgerEntryDTO struct {
	ID            int64     `json:"id"`
	TransactionID int64     `json:"transaction_id"`
	AccountID     int64     `json:"account_id"`
	EntryType     string    `json:"entry_type"`
	Amount        string    `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
}

func toLedgerEntryDTO(e *domain.LedgerEntry) ledgerEntryDTO {
	return ledgerEntryDTO{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		AccountID:     e.AccountID,
		EntryType:     string(e.EntryType),
		Amount:        e.Amount.StringFixed(2),
		CreatedAt:     e.CreatedAt,
	}
}

type ledgerPageDTO struct {
	Entries []ledgerEntryDTO `json:"entries"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.OpenAccount(r.Context(), ledger.OpenAccountRequest{
		OwnerID:  req.UserID,
		Kind:     req.Type,
		Currency: domain.Currency(req.Currency),
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to open account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	account, balance, err := h.accounts.GetBalance(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("balance lookup failed", "error", err, "account_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, balanceDTO{
		AccountID: account.ID,
		Currency:  string(account.Currency),
		Balance:   balance.StringFixed(2),
	})
}

func (h *AccountHandler) ListLedger(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	entries, total, err := h.accounts.ListLedger(r.Context(), id, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Warn("ledger listing failed", "error", err, "account_id", id)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]ledgerEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = toLedgerEntryDTO(&entries[i])
	}

	RespondSuccess(w, http.StatusOK, ledgerPageDTO{
		Entries: dtos,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}
