package postgres

import (
	"context"
	"errors"
	"fmt"

	"merchant-settlement-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// CreateIfAbsent inserts the settlement transaction unless one with the same
// ID exists. The ON CONFLICT guard is what makes redelivered settlement
// events produce exactly one materialized transaction.
func (r *TransactionRepo) CreateIfAbsent(ctx context.Context, tx pgx.Tx, txn *domain.SettlementTransaction) (bool, error) {
	query := `INSERT INTO settlement_transactions (id, merchant_id, amount, currency, status, description, created_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`

	tag, err := tx.Exec(ctx, query,
		txn.ID, txn.MerchantID, txn.Amount, txn.Currency,
		txn.Status, txn.Description, txn.CreatedAt, txn.SettledAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert settlement transaction: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID fetches a settlement transaction by ID.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*domain.SettlementTransaction, error) {
	query := `SELECT id, merchant_id, amount, currency, status, description, created_at, settled_at
		FROM settlement_transactions WHERE id = $1`

	t := &domain.SettlementTransaction{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.MerchantID, &t.Amount, &t.Currency,
		&t.Status, &t.Description, &t.CreatedAt, &t.SettledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settlement transaction: %w", err)
	}
	return t, nil
}
