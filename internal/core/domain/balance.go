package domain

import "time"

// MerchantBalance holds a merchant's accumulated funds. Rows are created
// lazily with zero balances the first time a merchant is credited; absence
// of a row is equivalent to all-zero balances.
//
// Invariant: AvailableBalance >= 0 at all times. The balance is mutated only
// through atomic conditional statements in the ledger store, never via
// read-modify-write at this layer.
type MerchantBalance struct {
	MerchantID       string    `json:"merchant_id"`
	AvailableBalance int64     `json:"available_balance"` // smallest currency unit
	PendingBalance   int64     `json:"pending_balance"`
	TotalWithdrawn   int64     `json:"total_withdrawn"`
	Currency         string    `json:"currency"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ZeroBalance returns the default balance for a merchant without a ledger row.
func ZeroBalance(merchantID string) *MerchantBalance {
	return &MerchantBalance{MerchantID: merchantID}
}
