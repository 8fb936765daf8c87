package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// WithdrawalStatus represents the lifecycle state of a withdrawal.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusSucceeded WithdrawalStatus = "succeeded"
	WithdrawalStatusFailed    WithdrawalStatus = "failed"
	WithdrawalStatusCanceled  WithdrawalStatus = "canceled"
)

// Withdrawal is a debit of a merchant's available balance tied to a settled
// source transaction. Created as pending; moves to succeeded only after the
// conditional ledger decrement succeeds, to failed when the decrement is
// rejected, and to canceled only from pending.
type Withdrawal struct {
	ID                  string            `json:"id"`
	SourceTransactionID string            `json:"source_transaction_id"`
	MerchantID          string            `json:"merchant_id"`
	Amount              int64             `json:"amount"` // smallest currency unit
	Currency            string            `json:"currency"`
	Status              WithdrawalStatus  `json:"status"`
	Reason              string            `json:"reason"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// CanCancel reports whether the withdrawal may still be canceled.
// Only pending withdrawals qualify; funds are not debited while pending.
func (w *Withdrawal) CanCancel() bool {
	return w.Status == WithdrawalStatusPending
}

// IsTerminal reports whether the withdrawal is in a final state.
func (w *Withdrawal) IsTerminal() bool {
	return w.Status == WithdrawalStatusSucceeded ||
		w.Status == WithdrawalStatusFailed ||
		w.Status == WithdrawalStatusCanceled
}

// NewWithdrawalID generates a withdrawal identifier.
func NewWithdrawalID() string {
	return "wd_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
