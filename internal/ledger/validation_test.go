package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"ledgerd/internal/domain"
)

func account(currency domain.Currency, status domain.AccountStatus) *domain.Account {
	return &domain.Account{
		ID:       1,
		UserID:   "user-1",
		Type:     "checking",
		Currency: currency,
		Status:   status,
	}
}

func TestValidateMovement(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		currency domain.Currency
		wantErr  error
	}{
		{
			name:     "whole amount",
			amount:   decimal.NewFromInt(100),
			currency: domain.CurrencyUSD,
		},
		{
			name:     "two decimal places",
			amount:   decimal.RequireFromString("99.99"),
			currency: domain.CurrencyEUR,
		},
		{
			name:     "smallest unit",
			amount:   decimal.RequireFromString("0.01"),
			currency: domain.CurrencyGBP,
		},
		{
			name:     "one decimal place",
			amount:   decimal.RequireFromString("10.5"),
			currency: domain.CurrencyUSD,
		},
		{
			name:     "zero amount",
			amount:   decimal.Zero,
			currency: domain.CurrencyUSD,
			wantErr:  domain.ErrInvalidAmount,
		},
		{
			name:     "negative amount",
			amount:   decimal.RequireFromString("-5.00"),
			currency: domain.CurrencyUSD,
			wantErr:  domain.ErrInvalidAmount,
		},
		{
			name:     "three decimal places",
			amount:   decimal.RequireFromString("1.005"),
			currency: domain.CurrencyUSD,
			wantErr:  domain.ErrInvalidAmount,
		},
		{
			name:     "unknown currency",
			amount:   decimal.NewFromInt(10),
			currency: domain.Currency("XYZ"),
			wantErr:  domain.ErrInvalidCurrency,
		},
		{
			name:     "empty currency",
			amount:   decimal.NewFromInt(10),
			currency: domain.Currency(""),
			wantErr:  domain.ErrInvalidCurrency,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateMovement(tc.amount, tc.currency)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestVerifyAccountOperable(t *testing.T) {
	tests := []struct {
		name     string
		acct     *domain.Account
		currency domain.Currency
		wantErr  error
	}{
		{
			name:     "active matching currency",
			acct:     account(domain.CurrencyUSD, domain.AccountStatusActive),
			currency: domain.CurrencyUSD,
		},
		{
			name:     "frozen account",
			acct:     account(domain.CurrencyUSD, domain.AccountStatusFrozen),
			currency: domain.CurrencyUSD,
			wantErr:  domain.ErrAccountFrozen,
		},
		{
			name:     "closed account",
			acct:     account(domain.CurrencyUSD, domain.AccountStatusClosed),
			currency: domain.CurrencyUSD,
			wantErr:  domain.ErrAccountClosed,
		},
		{
			name:     "currency mismatch",
			acct:     account(domain.CurrencyEUR, domain.AccountStatusActive),
			currency: domain.CurrencyUSD,
			wantErr:  domain.ErrCurrencyMismatch,
		},
		{
			// Status is checked before currency.
			name:     "frozen account with mismatched currency",
			acct:     account(domain.CurrencyEUR, domain.AccountStatusFrozen),
			currency: domain.CurrencyUSD,
			wantErr:  domain.ErrAccountFrozen,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := verifyAccountOperable(tc.acct, tc.currency, "source")

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestOpenAccountValidation(t *testing.T) {
	svc := &Service{}
	ctx := context.Background()

	tests := []struct {
		name    string
		req     OpenAccountRequest
		wantErr error
	}{
		{
			name:    "missing owner",
			req:     OpenAccountRequest{OwnerID: "", Kind: "checking", Currency: domain.CurrencyUSD},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "missing kind",
			req:     OpenAccountRequest{OwnerID: "user-1", Kind: "", Currency: domain.CurrencyUSD},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "unknown currency",
			req:     OpenAccountRequest{OwnerID: "user-1", Kind: "checking", Currency: "ZWL"},
			wantErr: domain.ErrInvalidCurrency,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.OpenAccount(ctx, tc.req)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

// Money movements must be rejected before any store access; a zero-value
// Service has no database, so reaching the store would panic the test.
func TestMovementValidation(t *testing.T) {
	svc := &Service{}
	ctx := context.Background()

	_, err := svc.Deposit(ctx, DepositRequest{AccountID: 1, Amount: decimal.Zero, Currency: domain.CurrencyUSD})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Withdraw(ctx, WithdrawRequest{AccountID: 1, Amount: decimal.NewFromInt(10), Currency: "ZZZ"})
	require.ErrorIs(t, err, domain.ErrInvalidCurrency)

	_, err = svc.Transfer(ctx, TransferRequest{SourceID: 7, DestinationID: 7, Amount: decimal.NewFromInt(10), Currency: domain.CurrencyUSD})
	require.ErrorIs(t, err, domain.ErrSelfTransfer)
}
