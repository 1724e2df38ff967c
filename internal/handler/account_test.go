package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerd/internal/domain"
	"ledgerd/internal/ledger"
)

type mockAccountService struct {
	account *domain.Account
	balance decimal.Decimal
	entries []domain.LedgerEntry
	total   int
	err     error

	openReq    *ledger.OpenAccountRequest
	listLimit  int
	listOffset int
}

func (m *mockAccountService) OpenAccount(_ context.Context, req ledger.OpenAccountRequest) (*domain.Account, error) {
	m.openReq = &req
	return m.account, m.err
}

func (m *mockAccountService) GetBalance(_ context.Context, _ int64) (*domain.Account, decimal.Decimal, error) {
	return m.account, m.balance, m.err
}

func (m *mockAccountService) ListLedger(_ context.Context, _ int64, limit, offset int) ([]domain.LedgerEntry, int, error) {
	m.listLimit = limit
	m.listOffset = offset
	return m.entries, m.total, m.err
}

func activeUSDAccount() *domain.Account {
	return &domain.Account{
		ID:       7,
		UserID:   "user-1",
		Type:     "checking",
		Currency: domain.CurrencyUSD,
		Status:   domain.AccountStatusActive,
	}
}

func TestCreateAccountHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "valid request",
			body:       `{"user_id": "user-1", "type": "checking", "currency": "USD"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed JSON",
			body:       `{"user_id": `,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "missing user id",
			body:       `{"type": "checking", "currency": "USD"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "missing type",
			body:       `{"user_id": "user-1", "currency": "USD"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "unsupported currency",
			body:       `{"user_id": "user-1", "type": "checking", "currency": "JPY"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "store unavailable",
			body:       `{"user_id": "user-1", "type": "checking", "currency": "USD"}`,
			svcErr:     fmt.Errorf("OpenAccount: %w", domain.ErrStoreUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "STORE_UNAVAILABLE",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockAccountService{account: activeUSDAccount(), err: tc.svcErr}
			h := NewAccountHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()

			h.Create(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

			if tc.wantCode == "" {
				assert.True(t, resp.Success)
				require.NotNil(t, svc.openReq)
				assert.Equal(t, "user-1", svc.openReq.OwnerID)
				assert.Equal(t, "checking", svc.openReq.Kind)
				assert.Equal(t, domain.CurrencyUSD, svc.openReq.Currency)
			} else {
				assert.False(t, resp.Success)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestGetBalanceHandler(t *testing.T) {
	tests := []struct {
		name       string
		pathID     string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "found",
			pathID:     "7",
			wantStatus: http.StatusOK,
		},
		{
			name:       "non-numeric id",
			pathID:     "abc",
			wantStatus: http.StatusNotFound,
			wantCode:   "RESOURCE_NOT_FOUND",
		},
		{
			name:       "zero id",
			pathID:     "0",
			wantStatus: http.StatusNotFound,
			wantCode:   "RESOURCE_NOT_FOUND",
		},
		{
			name:       "unknown account",
			pathID:     "99",
			svcErr:     fmt.Errorf("GetBalance: %w", domain.ErrAccountNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "ACCOUNT_NOT_FOUND",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockAccountService{
				account: activeUSDAccount(),
				balance: decimal.RequireFromString("123.45"),
				err:     tc.svcErr,
			}
			h := NewAccountHandler(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+tc.pathID+"/balance", nil)
			req = mux.SetURLVars(req, map[string]string{"id": tc.pathID})
			rr := httptest.NewRecorder()

			h.GetBalance(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)

			if tc.wantCode != "" {
				var resp APIResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
				return
			}

			var resp struct {
				Data balanceDTO `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, int64(7), resp.Data.AccountID)
			assert.Equal(t, "USD", resp.Data.Currency)
			assert.Equal(t, "123.45", resp.Data.Balance)
		})
	}
}

func TestListLedgerHandler(t *testing.T) {
	entries := []domain.LedgerEntry{
		{ID: 1, TransactionID: 10, AccountID: 7, EntryType: domain.EntryTypeCredit, Amount: decimal.RequireFromString("100.00")},
		{ID: 2, TransactionID: 11, AccountID: 7, EntryType: domain.EntryTypeDebit, Amount: decimal.RequireFromString("40.00")},
	}

	svc := &mockAccountService{entries: entries, total: 6}
	h := NewAccountHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/7/ledger?limit=2&offset=4", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "7"})
	rr := httptest.NewRecorder()

	h.ListLedger(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, svc.listLimit)
	assert.Equal(t, 4, svc.listOffset)

	var resp struct {
		Data ledgerPageDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Limit)
	assert.Equal(t, 4, resp.Data.Offset)
	require.Len(t, resp.Data.Entries, 2)
	assert.Equal(t, "100.00", resp.Data.Entries[0].Amount)
	assert.Equal(t, "credit", resp.Data.Entries[0].EntryType)
	assert.Equal(t, "40.00", resp.Data.Entries[1].Amount)
}

func TestListLedgerHandler_Defaults(t *testing.T) {
	svc := &mockAccountService{}
	h := NewAccountHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/7/ledger", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "7"})
	rr := httptest.NewRecorder()

	h.ListLedger(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 50, svc.listLimit)
	assert.Equal(t, 0, svc.listOffset)
}

func TestListLedgerHandler_UnknownAccount(t *testing.T) {
	svc := &mockAccountService{err: fmt.Errorf("ListLedger: %w", domain.ErrAccountNotFound)}
	h := NewAccountHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/99/ledger", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "99"})
	rr := httptest.NewRecorder()

	h.ListLedger(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", resp.Error.Code)
}
