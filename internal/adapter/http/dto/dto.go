package dto

import (
	"time"

	"merchant-settlement-service/internal/core/domain"
)

// CreateSettlementRequest is the payload of POST /api/v1/settlements.
type CreateSettlementRequest struct {
	PaymentID   string            `json:"payment_id"`
	MerchantID  string            `json:"merchant_id" binding:"required"`
	Amount      int64             `json:"amount" binding:"required,gt=0"`
	Currency    string            `json:"currency" binding:"required,len=3"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

// ToDomain converts the request to a domain settlement request.
func (r CreateSettlementRequest) ToDomain() domain.SettlementRequest {
	return domain.SettlementRequest{
		PaymentID:   r.PaymentID,
		MerchantID:  r.MerchantID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Description: r.Description,
		Metadata:    r.Metadata,
	}
}

// SettlementAcceptedResponse acknowledges a durably enqueued settlement.
type SettlementAcceptedResponse struct {
	EntryID   string `json:"entry_id"`
	PaymentID string `json:"payment_id,omitempty"`
	Status    string `json:"status"`
	Admission string `json:"admission"`
}

// CreateWithdrawalRequest is the payload of POST /api/v1/withdrawals.
type CreateWithdrawalRequest struct {
	SourceTransactionID string            `json:"source_transaction_id" binding:"required"`
	Amount              int64             `json:"amount" binding:"required,gt=0"`
	Reason              string            `json:"reason"`
	Metadata            map[string]string `json:"metadata"`
}

// WithdrawalResponse is the client view of a withdrawal.
type WithdrawalResponse struct {
	ID                  string            `json:"id"`
	SourceTransactionID string            `json:"source_transaction_id"`
	MerchantID          string            `json:"merchant_id"`
	Amount              int64             `json:"amount"`
	Currency            string            `json:"currency"`
	Status              string            `json:"status"`
	Reason              string            `json:"reason,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// NewWithdrawalResponse maps a domain withdrawal to its client view.
func NewWithdrawalResponse(w *domain.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		ID:                  w.ID,
		SourceTransactionID: w.SourceTransactionID,
		MerchantID:          w.MerchantID,
		Amount:              w.Amount,
		Currency:            w.Currency,
		Status:              string(w.Status),
		Reason:              w.Reason,
		Metadata:            w.Metadata,
		CreatedAt:           w.CreatedAt,
		UpdatedAt:           w.UpdatedAt,
	}
}

// BalanceResponse is the client view of a merchant balance.
type BalanceResponse struct {
	MerchantID       string    `json:"merchant_id"`
	AvailableBalance int64     `json:"available_balance"`
	PendingBalance   int64     `json:"pending_balance"`
	TotalWithdrawn   int64     `json:"total_withdrawn"`
	Currency         string    `json:"currency,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewBalanceResponse maps a domain balance to its client view.
func NewBalanceResponse(b *domain.MerchantBalance) BalanceResponse {
	return BalanceResponse{
		MerchantID:       b.MerchantID,
		AvailableBalance: b.AvailableBalance,
		PendingBalance:   b.PendingBalance,
		TotalWithdrawn:   b.TotalWithdrawn,
		Currency:         b.Currency,
		UpdatedAt:        b.UpdatedAt,
	}
}
