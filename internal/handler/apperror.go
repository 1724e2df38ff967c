package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount   = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero with at most two decimal places"}
	ErrInvalidCurrency = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrSelfTransfer    = &AppError{http.StatusBadRequest, "SELF_TRANSFER_NOT_ALLOWED", "Cannot transfer to the same account"}

	ErrAccountNotFound   = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrInsufficientFunds = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrAccountFrozen     = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_FROZEN", "Account is frozen"}
	ErrAccountClosed     = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_CLOSED", "Account is closed"}
	ErrCurrencyMismatch  = &AppError{http.StatusUnprocessableEntity, "CURRENCY_MISMATCH", "Currency mismatch"}

	ErrConflict         = &AppError{http.StatusConflict, "CONFLICT", "Operation conflicted with a concurrent request, please retry"}
	ErrStoreUnavailable = &AppError{http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Storage backend is unavailable"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
