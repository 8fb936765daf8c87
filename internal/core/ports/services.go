package ports

import (
	"context"
	"time"

	"merchant-settlement-service/internal/core/domain"
)

// ClaimStore is the idempotency store boundary: a shared key-value store
// supporting an atomic set-if-absent with TTL. A claim is a presence marker,
// not a cache of the response body.
type ClaimStore interface {
	// SetIfAbsent claims the key with the given TTL. Returns true if the key
	// was absent (request admitted), false if it already exists.
	SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// EventProducer appends settlement requests to the Event Log. Success means
// "durably appended", not "processed".
type EventProducer interface {
	// PublishSettlementRequested serializes the request and appends one
	// SETTLEMENT_REQUESTED entry, returning the log-assigned entry ID.
	// A serialization failure is captured into the entry itself rather than
	// returned, so a producer-side encoding bug never blocks admission.
	PublishSettlementRequested(ctx context.Context, req domain.SettlementRequest) (string, error)
}

// SettlementService materializes an approved payment into a persisted
// transaction and credits the merchant's balance.
type SettlementService interface {
	// Settle is idempotent: processing the same logical event again (by
	// payment ID, or by entry ID when the payment carries none) is a no-op.
	Settle(ctx context.Context, req domain.SettlementRequest, entryID string) error
}

// WithdrawalRequest holds validated input for creating a withdrawal.
type WithdrawalRequest struct {
	SourceTransactionID string
	Amount              int64
	Reason              string
	Metadata            map[string]string
}

// WithdrawalService defines withdrawal business logic.
type WithdrawalService interface {
	CreateWithdrawal(ctx context.Context, req WithdrawalRequest) (*domain.Withdrawal, error)
	CancelWithdrawal(ctx context.Context, id string) (*domain.Withdrawal, error)
	GetWithdrawal(ctx context.Context, id string) (*domain.Withdrawal, error)
	ListWithdrawals(ctx context.Context, merchantID string, status *domain.WithdrawalStatus) ([]domain.Withdrawal, error)
	GetBalance(ctx context.Context, merchantID string) (*domain.MerchantBalance, error)
}

// TokenService handles JWT token operations. Token issuance lives upstream;
// this service validates bearer tokens on merchant-facing endpoints.
type TokenService interface {
	Generate(merchantID string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	MerchantID string
}
