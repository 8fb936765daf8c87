package service

import (
	"context"
	"fmt"
	"time"

	"merchant-settlement-service/internal/core/domain"
	"merchant-settlement-service/internal/core/ports"
	"merchant-settlement-service/pkg/apperror"

	"github.com/rs/zerolog"
)

const defaultWithdrawalReason = "withdrawal"

// WithdrawalServiceImpl implements ports.WithdrawalService.
type WithdrawalServiceImpl struct {
	wdRepo      ports.WithdrawalRepository
	txRepo      ports.TransactionRepository
	balanceRepo ports.BalanceRepository
	log         zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalServiceImpl.
func NewWithdrawalService(
	wdRepo ports.WithdrawalRepository,
	txRepo ports.TransactionRepository,
	balanceRepo ports.BalanceRepository,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		wdRepo:      wdRepo,
		txRepo:      txRepo,
		balanceRepo: balanceRepo,
		log:         log,
	}
}

// CreateWithdrawal validates the request against the source transaction's
// remaining capacity, records a pending withdrawal, then settles it against
// the ledger. The ledger decrement is the only gate on funds: a 0-row result
// fails the withdrawal with InsufficientBalance, and concurrent withdrawals
// cannot over-draw the balance because the condition and the subtraction are
// one atomic statement.
func (s *WithdrawalServiceImpl) CreateWithdrawal(ctx context.Context, req ports.WithdrawalRequest) (*domain.Withdrawal, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	txn, err := s.txRepo.GetByID(ctx, req.SourceTransactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find source transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("source transaction")
	}
	if !txn.IsSettled() {
		return nil, apperror.ErrInvalidState(string(txn.Status))
	}
	if req.Amount > txn.Amount {
		return nil, apperror.ErrInvalidAmount()
	}

	alreadyWithdrawn, err := s.wdRepo.SumSucceededBySource(ctx, txn.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sum prior withdrawals: %w", err))
	}
	if req.Amount > txn.Amount-alreadyWithdrawn {
		return nil, apperror.ErrExceedsAvailable()
	}

	reason := req.Reason
	if reason == "" {
		reason = defaultWithdrawalReason
	}

	now := time.Now().UTC()
	w := &domain.Withdrawal{
		ID:                  domain.NewWithdrawalID(),
		SourceTransactionID: txn.ID,
		MerchantID:          txn.MerchantID,
		Amount:              req.Amount,
		Currency:            txn.Currency,
		Status:              domain.WithdrawalStatusPending,
		Reason:              reason,
		Metadata:            req.Metadata,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.wdRepo.Create(ctx, w); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create withdrawal: %w", err))
	}

	rows, err := s.balanceRepo.Decrement(ctx, txn.MerchantID, req.Amount)
	if err != nil {
		// Ledger unreachable: the withdrawal stays pending and can be canceled.
		s.log.Error().Err(err).Str("withdrawal_id", w.ID).Msg("ledger decrement failed")
		return nil, apperror.ErrDownstreamUnavailable(fmt.Errorf("decrement balance: %w", err))
	}
	if rows == 0 {
		if _, err := s.wdRepo.UpdateStatus(ctx, w.ID, domain.WithdrawalStatusPending, domain.WithdrawalStatusFailed); err != nil {
			s.log.Error().Err(err).Str("withdrawal_id", w.ID).Msg("failed to mark withdrawal failed")
		}
		return nil, apperror.ErrInsufficientBalance()
	}

	ok, err := s.wdRepo.UpdateStatus(ctx, w.ID, domain.WithdrawalStatusPending, domain.WithdrawalStatusSucceeded)
	if err != nil || !ok {
		// Funds are debited but the terminal status did not persist; surface
		// the error so the caller does not treat the state as settled.
		s.log.Error().Err(err).Str("withdrawal_id", w.ID).Msg("failed to mark withdrawal succeeded after debit")
		return nil, apperror.InternalError(fmt.Errorf("persist withdrawal status: %w", err))
	}
	w.Status = domain.WithdrawalStatusSucceeded
	w.UpdatedAt = time.Now().UTC()

	s.log.Info().
		Str("withdrawal_id", w.ID).
		Str("merchant_id", w.MerchantID).
		Str("source_transaction_id", txn.ID).
		Int64("amount", w.Amount).
		Msg("withdrawal succeeded")

	return w, nil
}

// CancelWithdrawal cancels a withdrawal still in pending. Pending
// withdrawals have not debited the ledger, so there is nothing to restore;
// the guarded status transition is the whole operation.
func (s *WithdrawalServiceImpl) CancelWithdrawal(ctx context.Context, id string) (*domain.Withdrawal, error) {
	w, err := s.wdRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find withdrawal: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("withdrawal")
	}
	if !w.CanCancel() {
		return nil, apperror.ErrInvalidState(string(w.Status))
	}

	ok, err := s.wdRepo.UpdateStatus(ctx, id, domain.WithdrawalStatusPending, domain.WithdrawalStatusCanceled)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("cancel withdrawal: %w", err))
	}
	if !ok {
		// Lost a race against a concurrent transition out of pending.
		current, gerr := s.wdRepo.GetByID(ctx, id)
		if gerr == nil && current != nil {
			return nil, apperror.ErrInvalidState(string(current.Status))
		}
		return nil, apperror.ErrInvalidState(string(w.Status))
	}

	w.Status = domain.WithdrawalStatusCanceled
	w.UpdatedAt = time.Now().UTC()

	s.log.Info().Str("withdrawal_id", id).Msg("withdrawal canceled")
	return w, nil
}

// GetWithdrawal fetches a withdrawal by ID.
func (s *WithdrawalServiceImpl) GetWithdrawal(ctx context.Context, id string) (*domain.Withdrawal, error) {
	w, err := s.wdRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find withdrawal: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("withdrawal")
	}
	return w, nil
}

// ListWithdrawals fetches a merchant's withdrawals, optionally by status.
func (s *WithdrawalServiceImpl) ListWithdrawals(ctx context.Context, merchantID string, status *domain.WithdrawalStatus) ([]domain.Withdrawal, error) {
	list, err := s.wdRepo.ListByMerchant(ctx, merchantID, status)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list withdrawals: %w", err))
	}
	return list, nil
}

// GetBalance fetches a merchant's balance; an absent row reads as zero balances.
func (s *WithdrawalServiceImpl) GetBalance(ctx context.Context, merchantID string) (*domain.MerchantBalance, error) {
	b, err := s.balanceRepo.GetByMerchant(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get balance: %w", err))
	}
	if b == nil {
		return domain.ZeroBalance(merchantID), nil
	}
	return b, nil
}
