package domain

import "time"

// TransactionStatus represents the lifecycle state of a settled payment.
type TransactionStatus string

const (
	TransactionStatusSucceeded TransactionStatus = "succeeded"
)

// SettlementTransaction is a materialized payment: the durable record the
// consumer writes when it processes a SETTLEMENT_REQUESTED event. The ID is
// the upstream payment ID when the event carries one, so redelivered events
// collapse onto the same row.
type SettlementTransaction struct {
	ID          string            `json:"id"`
	MerchantID  string            `json:"merchant_id"`
	Amount      int64             `json:"amount"` // smallest currency unit
	Currency    string            `json:"currency"`
	Status      TransactionStatus `json:"status"`
	Description string            `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	SettledAt   time.Time         `json:"settled_at"`
}

// IsSettled reports whether the transaction can back a withdrawal.
func (t *SettlementTransaction) IsSettled() bool {
	return t.Status == TransactionStatusSucceeded
}
