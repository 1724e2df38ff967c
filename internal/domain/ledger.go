package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

// LedgerEntry is one immutable leg of a transaction. Entries are append-only;
// an account's balance is the sum of its credits minus the sum of its debits.
type LedgerEntry struct {
	ID            int64
	TransactionID int64
	AccountID     int64
	EntryType     EntryType
	Amount        decimal.Decimal
	CreatedAt     time.Time
}
