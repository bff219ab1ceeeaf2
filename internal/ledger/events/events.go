// Package events defines the domain events the ledger publishes after a
// unit commits, plus the delivery implementations. Delivery is fire and
// forget: a failing sink never fails the ledger operation that produced the
// event.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Event names, matching the realtime channel vocabulary.
const (
	EventUserFunded         = "user:funded"
	EventBalanceAdjusted    = "user:balance_adjusted"
	EventDepositApproved    = "deposit:approved"
	EventDepositCreated     = "deposit:created"
	EventKYCApproved        = "kyc:approved"
	EventKYCRejected        = "kyc:rejected"
	EventKYCSubmitted       = "kyc:submitted"
	EventTransactionRetried = "transaction:retrying"
)

// Event is a tagged notification describing a committed state change.
type Event struct {
	Name          string           `json:"event"`
	UserID        int64            `json:"user_id,omitempty"`
	AccountID     int64            `json:"account_id,omitempty"`
	TransactionID int64            `json:"transaction_id,omitempty"`
	DepositID     int64            `json:"deposit_id,omitempty"`
	SubmissionID  int64            `json:"submission_id,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	NewBalance    *decimal.Decimal `json:"new_balance,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// Notifier delivers events to an external channel. Publish returns nothing:
// implementations own their failure handling.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// LogNotifier writes events to the structured log. It is the default sink
// and doubles as the development transport.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.WarnContext(ctx, "failed to encode domain event", "event", event.Name, "error", err)
		return
	}
	n.logger.InfoContext(ctx, "domain event", "event", event.Name, "payload", string(payload))
}

// Fanout delivers each event to every configured sink.
type Fanout []Notifier

func (f Fanout) Publish(ctx context.Context, event Event) {
	for _, n := range f {
		n.Publish(ctx, event)
	}
}
