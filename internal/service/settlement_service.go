package service

import (
	"context"
	"fmt"
	"time"

	"merchant-settlement-service/internal/core/domain"
	"merchant-settlement-service/internal/core/ports"

	"github.com/rs/zerolog"
)

// SettlementServiceImpl implements ports.SettlementService: it materializes
// an approved payment into a settlement transaction and credits the
// merchant's balance in one database transaction.
type SettlementServiceImpl struct {
	txRepo      ports.TransactionRepository
	balanceRepo ports.BalanceRepository
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	txRepo ports.TransactionRepository,
	balanceRepo ports.BalanceRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		txRepo:      txRepo,
		balanceRepo: balanceRepo,
		transactor:  transactor,
		log:         log,
	}
}

// Settle deduplicates by transaction ID: the payment ID when the request
// carries one, otherwise the log entry ID, which is stable across
// redeliveries of the same entry. At-least-once delivery therefore yields
// exactly one transaction row and exactly one balance credit.
func (s *SettlementServiceImpl) Settle(ctx context.Context, req domain.SettlementRequest, entryID string) error {
	if req.MerchantID == "" {
		return fmt.Errorf("settlement request without merchant id (entry %s)", entryID)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("settlement request with non-positive amount %d (entry %s)", req.Amount, entryID)
	}

	txnID := req.PaymentID
	if txnID == "" {
		txnID = "evt-" + entryID
	}

	now := time.Now().UTC()
	txn := &domain.SettlementTransaction{
		ID:          txnID,
		MerchantID:  req.MerchantID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Status:      domain.TransactionStatusSucceeded,
		Description: req.Description,
		CreatedAt:   now,
		SettledAt:   now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	inserted, err := s.txRepo.CreateIfAbsent(ctx, dbTx, txn)
	if err != nil {
		return fmt.Errorf("create settlement transaction: %w", err)
	}
	if !inserted {
		s.log.Debug().
			Str("transaction_id", txnID).
			Str("entry_id", entryID).
			Msg("settlement already materialized, skipping")
		return nil
	}

	if err := s.balanceRepo.Increment(ctx, dbTx, req.MerchantID, req.Amount, req.Currency); err != nil {
		return fmt.Errorf("credit merchant balance: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.log.Info().
		Str("transaction_id", txnID).
		Str("merchant_id", req.MerchantID).
		Int64("amount", req.Amount).
		Msg("settlement materialized")

	return nil
}
