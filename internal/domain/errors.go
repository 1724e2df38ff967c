package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrAccountNotFound      = errors.New("account not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidAmount        = errors.New("amount must be positive with at most two decimal places")
	ErrInvalidCurrency      = errors.New("invalid currency")
	ErrInvalidInput         = errors.New("invalid input")
	ErrSelfTransfer         = errors.New("source and destination accounts must differ")
	ErrCurrencyMismatch     = errors.New("currency mismatch")
	ErrAccountFrozen        = errors.New("account frozen")
	ErrAccountClosed        = errors.New("account closed")
	ErrConflict             = errors.New("concurrent conflict, safe to retry")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrTransactionFinalized = errors.New("transaction already finalized")
)
