package postgres

import (
	"context"
	"errors"
	"fmt"

	"merchant-settlement-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// BalanceRepo implements ports.BalanceRepository. Both mutations are single
// atomic statements; the non-negativity invariant lives in the WHERE clause
// of Decrement, never in application-level read-modify-write.
type BalanceRepo struct {
	pool Pool
}

// NewBalanceRepo creates a new BalanceRepo.
func NewBalanceRepo(pool Pool) *BalanceRepo {
	return &BalanceRepo{pool: pool}
}

// Increment adds amount to the merchant's available balance, lazily creating
// a zero-initialized row on first reference. Runs within the caller's
// transaction so settlement insert and credit commit together.
func (r *BalanceRepo) Increment(ctx context.Context, tx pgx.Tx, merchantID string, amount int64, currency string) error {
	query := `INSERT INTO merchant_balances (merchant_id, available_balance, pending_balance, total_withdrawn, currency, updated_at)
		VALUES ($1, $2, 0, 0, $3, NOW())
		ON CONFLICT (merchant_id) DO UPDATE
		SET available_balance = merchant_balances.available_balance + EXCLUDED.available_balance,
		    updated_at = NOW()`

	_, err := tx.Exec(ctx, query, merchantID, amount, currency)
	if err != nil {
		return fmt.Errorf("increment balance: %w", err)
	}
	return nil
}

// Decrement subtracts amount from the available balance only when the
// balance covers it, and returns the number of rows affected. Zero rows is
// the sole signal of insufficient funds.
func (r *BalanceRepo) Decrement(ctx context.Context, merchantID string, amount int64) (int64, error) {
	query := `UPDATE merchant_balances
		SET available_balance = available_balance - $2,
		    total_withdrawn = total_withdrawn + $2,
		    updated_at = NOW()
		WHERE merchant_id = $1 AND available_balance >= $2`

	tag, err := r.pool.Exec(ctx, query, merchantID, amount)
	if err != nil {
		return 0, fmt.Errorf("decrement balance: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetByMerchant fetches a merchant's balance row. Absence is a valid state
// and returns nil, nil.
func (r *BalanceRepo) GetByMerchant(ctx context.Context, merchantID string) (*domain.MerchantBalance, error) {
	query := `SELECT merchant_id, available_balance, pending_balance, total_withdrawn, currency, updated_at
		FROM merchant_balances WHERE merchant_id = $1`

	b := &domain.MerchantBalance{}
	err := r.pool.QueryRow(ctx, query, merchantID).Scan(
		&b.MerchantID, &b.AvailableBalance, &b.PendingBalance,
		&b.TotalWithdrawn, &b.Currency, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get balance by merchant: %w", err)
	}
	return b, nil
}
