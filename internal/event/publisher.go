package event

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ledgerd/internal/domain"
)

// TransactionCompleted is emitted after a money movement commits. It is
// informational only; the ledger rows remain the source of truth.
type TransactionCompleted struct {
	TransactionID        int64                  `json:"transaction_id"`
	Type                 domain.TransactionType `json:"type"`
	Amount               decimal.Decimal        `json:"amount"`
	Currency             domain.Currency        `json:"currency"`
	SourceAccountID      *int64                 `json:"source_account_id,omitempty"`
	DestinationAccountID *int64                 `json:"destination_account_id,omitempty"`
	OccurredAt           time.Time              `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event TransactionCompleted) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TransactionCompleted) error { return nil }
