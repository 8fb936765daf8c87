package ports

import (
	"context"

	"merchant-settlement-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// BalanceRepository defines the ledger store boundary. All mutations are
// single atomic conditional statements in the backing store.
type BalanceRepository interface {
	// Increment atomically adds amount to the merchant's available balance,
	// creating a zero-balance row first if absent. Runs inside the given
	// database transaction so it can be tied to the settlement insert.
	Increment(ctx context.Context, tx pgx.Tx, merchantID string, amount int64, currency string) error
	// Decrement atomically subtracts amount from the available balance only
	// if availableBalance >= amount, returning the number of rows affected
	// (0 or 1). A 0-row result is the sole signal of insufficient funds.
	Decrement(ctx context.Context, merchantID string, amount int64) (int64, error)
	// GetByMerchant returns nil, nil when no row exists; callers treat
	// absence as zero balances.
	GetByMerchant(ctx context.Context, merchantID string) (*domain.MerchantBalance, error)
}

// TransactionRepository defines persistence for materialized settlements.
type TransactionRepository interface {
	// CreateIfAbsent inserts the transaction unless a row with the same ID
	// already exists. Returns false when the row was already present, which
	// is how redelivered events collapse to a single effect.
	CreateIfAbsent(ctx context.Context, tx pgx.Tx, txn *domain.SettlementTransaction) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.SettlementTransaction, error)
}

// WithdrawalRepository defines persistence for withdrawals.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *domain.Withdrawal) error
	GetByID(ctx context.Context, id string) (*domain.Withdrawal, error)
	// UpdateStatus transitions a withdrawal from one status to another.
	// Returns false when the row was not in the expected `from` status,
	// so concurrent transitions cannot race each other.
	UpdateStatus(ctx context.Context, id string, from, to domain.WithdrawalStatus) (bool, error)
	// SumSucceededBySource returns the total amount of succeeded withdrawals
	// against the given source transaction.
	SumSucceededBySource(ctx context.Context, sourceTransactionID string) (int64, error)
	ListByMerchant(ctx context.Context, merchantID string, status *domain.WithdrawalStatus) ([]domain.Withdrawal, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
