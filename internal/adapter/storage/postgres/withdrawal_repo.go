package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"merchant-settlement-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// WithdrawalRepo implements ports.WithdrawalRepository.
type WithdrawalRepo struct {
	pool Pool
}

// NewWithdrawalRepo creates a new WithdrawalRepo.
func NewWithdrawalRepo(pool Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

// Create inserts a new withdrawal.
func (r *WithdrawalRepo) Create(ctx context.Context, w *domain.Withdrawal) error {
	metadata, err := marshalMetadata(w.Metadata)
	if err != nil {
		return fmt.Errorf("marshal withdrawal metadata: %w", err)
	}

	query := `INSERT INTO withdrawals (id, source_transaction_id, merchant_id, amount, currency, status, reason, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	// Pass an untyped nil for absent metadata; a typed nil []byte encodes the
	// same NULL but does not compare equal to nil in argument matchers.
	var metadataArg any
	if metadata != nil {
		metadataArg = metadata
	}

	_, err = r.pool.Exec(ctx, query,
		w.ID, w.SourceTransactionID, w.MerchantID, w.Amount, w.Currency,
		w.Status, w.Reason, metadataArg, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert withdrawal: %w", err)
	}
	return nil
}

// GetByID fetches a withdrawal by ID.
func (r *WithdrawalRepo) GetByID(ctx context.Context, id string) (*domain.Withdrawal, error) {
	query := `SELECT id, source_transaction_id, merchant_id, amount, currency, status, reason, metadata, created_at, updated_at
		FROM withdrawals WHERE id = $1`

	w, err := scanWithdrawal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get withdrawal: %w", err)
	}
	return w, nil
}

// UpdateStatus transitions a withdrawal from one status to another. The
// current status is part of the WHERE clause so racing transitions cannot
// both win; false means the row was not in the expected status.
func (r *WithdrawalRepo) UpdateStatus(ctx context.Context, id string, from, to domain.WithdrawalStatus) (bool, error) {
	query := `UPDATE withdrawals SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	tag, err := r.pool.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("update withdrawal status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SumSucceededBySource returns the total amount already withdrawn (status
// succeeded) against the given source transaction.
func (r *WithdrawalRepo) SumSucceededBySource(ctx context.Context, sourceTransactionID string) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM withdrawals
		WHERE source_transaction_id = $1 AND status = $2`

	var total int64
	err := r.pool.QueryRow(ctx, query, sourceTransactionID, domain.WithdrawalStatusSucceeded).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum succeeded withdrawals: %w", err)
	}
	return total, nil
}

// ListByMerchant fetches a merchant's withdrawals, optionally filtered by status.
func (r *WithdrawalRepo) ListByMerchant(ctx context.Context, merchantID string, status *domain.WithdrawalStatus) ([]domain.Withdrawal, error) {
	query := `SELECT id, source_transaction_id, merchant_id, amount, currency, status, reason, metadata, created_at, updated_at
		FROM withdrawals WHERE merchant_id = $1`
	args := []any{merchantID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	var result []domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return result, nil
}

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	w := &domain.Withdrawal{}
	var metadata []byte
	err := row.Scan(
		&w.ID, &w.SourceTransactionID, &w.MerchantID, &w.Amount, &w.Currency,
		&w.Status, &w.Reason, &metadata, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &w.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal withdrawal metadata: %w", err)
		}
	}
	return w, nil
}

func marshalMetadata(m map[string]string) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}
