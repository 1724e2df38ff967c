package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is one logical money operation. Source and destination are
// nullable per type: a deposit has only a destination, a withdrawal only a
// source, a transfer both.
type Transaction struct {
	ID                   int64
	Type                 TransactionType
	Amount               decimal.Decimal
	Currency             Currency
	SourceAccountID      *int64
	DestinationAccountID *int64
	Status               TransactionStatus
	Description          *string
	CreatedAt            time.Time
}

// ValidAmount reports whether d is a usable monetary amount: strictly
// positive with at most two fractional digits.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Exponent() >= -2
}
