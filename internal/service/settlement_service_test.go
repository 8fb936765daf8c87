package service

import (
	"context"
	"errors"
	"testing"

	"merchant-settlement-service/internal/core/domain"
	"merchant-settlement-service/internal/core/ports/mocks"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// stubTx satisfies pgx.Tx for the service layer, which only ever commits or
// rolls back; the repositories it hands the tx to are mocked.
type stubTx struct {
	pgx.Tx
	commits   int
	rollbacks int
	commitErr error
}

func (t *stubTx) Commit(ctx context.Context) error {
	t.commits++
	return t.commitErr
}

func (t *stubTx) Rollback(ctx context.Context) error {
	t.rollbacks++
	return nil
}

type settlementFixture struct {
	svc        *SettlementServiceImpl
	txRepo     *mocks.MockTransactionRepository
	balances   *mocks.MockBalanceRepository
	transactor *mocks.MockDBTransactor
}

func newSettlementFixture(t *testing.T) settlementFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	balances := mocks.NewMockBalanceRepository(ctrl)
	transactor := mocks.NewMockDBTransactor(ctrl)
	return settlementFixture{
		svc:        NewSettlementService(txRepo, balances, transactor, zerolog.Nop()),
		txRepo:     txRepo,
		balances:   balances,
		transactor: transactor,
	}
}

func TestSettle_CreatesTransactionAndCreditsBalance(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	tx := &stubTx{}

	req := domain.SettlementRequest{PaymentID: "pay_1", MerchantID: "merchant-1", Amount: 5000, Currency: "USD"}

	f.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	f.txRepo.EXPECT().
		CreateIfAbsent(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, txn *domain.SettlementTransaction) (bool, error) {
			assert.Equal(t, "pay_1", txn.ID)
			assert.Equal(t, "merchant-1", txn.MerchantID)
			assert.Equal(t, int64(5000), txn.Amount)
			assert.Equal(t, domain.TransactionStatusSucceeded, txn.Status)
			return true, nil
		})
	f.balances.EXPECT().Increment(ctx, tx, "merchant-1", int64(5000), "USD").Return(nil)

	err := f.svc.Settle(ctx, req, "1-0")
	require.NoError(t, err)
	assert.Equal(t, 1, tx.commits)
}

func TestSettle_DuplicateTransactionIsANoOp(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	tx := &stubTx{}

	req := domain.SettlementRequest{PaymentID: "pay_1", MerchantID: "merchant-1", Amount: 5000, Currency: "USD"}

	f.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	f.txRepo.EXPECT().CreateIfAbsent(ctx, tx, gomock.Any()).Return(false, nil)
	// No Increment: a redelivered event must not credit the balance twice.

	err := f.svc.Settle(ctx, req, "1-0")
	require.NoError(t, err)
	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 1, tx.rollbacks)
}

func TestSettle_FallsBackToEntryIDWhenPaymentIDAbsent(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	tx := &stubTx{}

	req := domain.SettlementRequest{MerchantID: "merchant-1", Amount: 100, Currency: "USD"}

	f.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	f.txRepo.EXPECT().
		CreateIfAbsent(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, txn *domain.SettlementTransaction) (bool, error) {
			// The entry ID is stable across redeliveries, so it can stand in
			// as the dedup key.
			assert.Equal(t, "evt-9-3", txn.ID)
			return true, nil
		})
	f.balances.EXPECT().Increment(ctx, tx, "merchant-1", int64(100), "USD").Return(nil)

	require.NoError(t, f.svc.Settle(ctx, req, "9-3"))
}

func TestSettle_RejectsInvalidRequests(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	err := f.svc.Settle(ctx, domain.SettlementRequest{Amount: 100}, "1-0")
	require.Error(t, err)

	err = f.svc.Settle(ctx, domain.SettlementRequest{MerchantID: "merchant-1", Amount: 0}, "1-0")
	require.Error(t, err)

	err = f.svc.Settle(ctx, domain.SettlementRequest{MerchantID: "merchant-1", Amount: -5}, "1-0")
	require.Error(t, err)
}

func TestSettle_IncrementFailureRollsBack(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	tx := &stubTx{}

	req := domain.SettlementRequest{PaymentID: "pay_1", MerchantID: "merchant-1", Amount: 5000, Currency: "USD"}

	f.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	f.txRepo.EXPECT().CreateIfAbsent(ctx, tx, gomock.Any()).Return(true, nil)
	f.balances.EXPECT().Increment(ctx, tx, "merchant-1", int64(5000), "USD").Return(errors.New("deadlock"))

	err := f.svc.Settle(ctx, req, "1-0")
	require.Error(t, err)
	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 1, tx.rollbacks)
}

func TestSettle_BeginFailure(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	f.transactor.EXPECT().Begin(ctx).Return(nil, errors.New("pool exhausted"))

	err := f.svc.Settle(ctx, domain.SettlementRequest{MerchantID: "m", Amount: 1, Currency: "USD"}, "1-0")
	require.Error(t, err)
}

func TestSettle_CommitFailure(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	tx := &stubTx{commitErr: errors.New("connection lost")}

	req := domain.SettlementRequest{PaymentID: "pay_1", MerchantID: "merchant-1", Amount: 5000, Currency: "USD"}

	f.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	f.txRepo.EXPECT().CreateIfAbsent(ctx, tx, gomock.Any()).Return(true, nil)
	f.balances.EXPECT().Increment(ctx, tx, "merchant-1", int64(5000), "USD").Return(nil)

	err := f.svc.Settle(ctx, req, "1-0")
	require.Error(t, err)
}
