package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"merchant-settlement-service/internal/core/domain"
	"merchant-settlement-service/internal/core/ports"
	"merchant-settlement-service/internal/core/ports/mocks"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestWorker(t *testing.T) (*Worker, *mocks.MockEventStream, *mocks.MockSettlementService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	stream := mocks.NewMockEventStream(ctrl)
	settler := mocks.NewMockSettlementService(ctrl)

	w := New(stream, settler, Config{
		Group:     "settlement-consumers",
		Consumer:  "test-consumer",
		BatchSize: 10,
		Block:     -1,
	}, NewMetrics(prometheus.NewRegistry()), zerolog.Nop())

	return w, stream, settler
}

func settlementEntry(t *testing.T, id string, req domain.SettlementRequest) ports.StreamEntry {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	return ports.StreamEntry{
		ID: id,
		Values: map[string]string{
			domain.FieldEventType: domain.EventTypeSettlementRequested,
			domain.FieldPayload:   string(payload),
		},
	}
}

func TestRunCycle_SettlesAndAcks(t *testing.T) {
	w, stream, settler := newTestWorker(t)
	ctx := context.Background()

	req := domain.SettlementRequest{PaymentID: "pay_1", MerchantID: "merchant-1", Amount: 5000, Currency: "USD"}
	entry := settlementEntry(t, "1-0", req)

	stream.EXPECT().
		ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
		Return([]ports.StreamEntry{entry}, nil)
	settler.EXPECT().Settle(ctx, req, "1-0").Return(nil)
	stream.EXPECT().Ack(ctx, "settlement-consumers", "1-0").Return(nil)

	w.RunCycle(ctx)
}

func TestRunCycle_BootstrapsMissingGroupAndRetriesOnce(t *testing.T) {
	w, stream, settler := newTestWorker(t)
	ctx := context.Background()

	req := domain.SettlementRequest{PaymentID: "pay_2", MerchantID: "merchant-1", Amount: 1200, Currency: "USD"}
	entry := settlementEntry(t, "2-0", req)

	gomock.InOrder(
		stream.EXPECT().
			ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
			Return(nil, fmt.Errorf("%w: NOGROUP", ports.ErrNoGroup)),
		stream.EXPECT().CreateGroup(ctx, "settlement-consumers").Return(nil),
		stream.EXPECT().
			ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
			Return([]ports.StreamEntry{entry}, nil),
	)
	settler.EXPECT().Settle(ctx, req, "2-0").Return(nil)
	stream.EXPECT().Ack(ctx, "settlement-consumers", "2-0").Return(nil)

	w.RunCycle(ctx)
}

func TestRunCycle_BootstrapFailureAbortsCycle(t *testing.T) {
	w, stream, _ := newTestWorker(t)
	ctx := context.Background()

	gomock.InOrder(
		stream.EXPECT().
			ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
			Return(nil, fmt.Errorf("%w: NOGROUP", ports.ErrNoGroup)),
		stream.EXPECT().CreateGroup(ctx, "settlement-consumers").Return(errors.New("redis down")),
	)
	// No retried read, no ack.

	w.RunCycle(ctx)
}

func TestRunCycle_RetriedReadFailureAbortsCycle(t *testing.T) {
	w, stream, _ := newTestWorker(t)
	ctx := context.Background()

	gomock.InOrder(
		stream.EXPECT().
			ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
			Return(nil, fmt.Errorf("%w: NOGROUP", ports.ErrNoGroup)),
		stream.EXPECT().CreateGroup(ctx, "settlement-consumers").Return(nil),
		stream.EXPECT().
			ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
			Return(nil, errors.New("connection reset")),
	)

	w.RunCycle(ctx)
}

func TestRunCycle_ReadErrorAbortsCycle(t *testing.T) {
	w, stream, _ := newTestWorker(t)
	ctx := context.Background()

	stream.EXPECT().
		ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
		Return(nil, errors.New("connection reset"))

	w.RunCycle(ctx)
}

func TestRunCycle_SettlementFailureLeavesEntryUnacked(t *testing.T) {
	w, stream, settler := newTestWorker(t)
	ctx := context.Background()

	req := domain.SettlementRequest{PaymentID: "pay_3", MerchantID: "merchant-1", Amount: 700, Currency: "USD"}
	entry := settlementEntry(t, "3-0", req)

	stream.EXPECT().
		ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
		Return([]ports.StreamEntry{entry}, nil)
	settler.EXPECT().Settle(ctx, req, "3-0").Return(errors.New("db unavailable"))
	// No Ack expectation: the entry must stay pending for redelivery.

	w.RunCycle(ctx)
}

func TestRunCycle_FailedEntryDoesNotBlockOthers(t *testing.T) {
	w, stream, settler := newTestWorker(t)
	ctx := context.Background()

	bad := domain.SettlementRequest{PaymentID: "pay_bad", MerchantID: "merchant-1", Amount: 100, Currency: "USD"}
	good := domain.SettlementRequest{PaymentID: "pay_good", MerchantID: "merchant-1", Amount: 200, Currency: "USD"}

	stream.EXPECT().
		ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
		Return([]ports.StreamEntry{
			settlementEntry(t, "4-0", bad),
			settlementEntry(t, "4-1", good),
		}, nil)
	settler.EXPECT().Settle(ctx, bad, "4-0").Return(errors.New("db unavailable"))
	settler.EXPECT().Settle(ctx, good, "4-1").Return(nil)
	stream.EXPECT().Ack(ctx, "settlement-consumers", "4-1").Return(nil)

	w.RunCycle(ctx)
}

func TestRunCycle_SerializationErrorEntryStaysPending(t *testing.T) {
	w, stream, _ := newTestWorker(t)
	ctx := context.Background()

	stream.EXPECT().
		ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
		Return([]ports.StreamEntry{{
			ID: "5-0",
			Values: map[string]string{
				domain.FieldEventType:                 domain.EventTypeSettlementRequested,
				domain.FieldPayload:                   "SettlementRequest{...}",
				domain.FieldPayloadSerializationError: "true",
			},
		}}, nil)
	// No Settle, no Ack: the entry needs manual reconciliation.

	w.RunCycle(ctx)
}

func TestRunCycle_MalformedPayloadStaysPending(t *testing.T) {
	w, stream, _ := newTestWorker(t)
	ctx := context.Background()

	stream.EXPECT().
		ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
		Return([]ports.StreamEntry{{
			ID: "6-0",
			Values: map[string]string{
				domain.FieldEventType: domain.EventTypeSettlementRequested,
				domain.FieldPayload:   "{not json",
			},
		}}, nil)

	w.RunCycle(ctx)
}

func TestRunCycle_UnknownEventTypeIsAckedWithoutSettling(t *testing.T) {
	w, stream, _ := newTestWorker(t)
	ctx := context.Background()

	stream.EXPECT().
		ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
		Return([]ports.StreamEntry{{
			ID: "7-0",
			Values: map[string]string{
				domain.FieldEventType: "REFUND_REQUESTED",
				domain.FieldPayload:   "{}",
			},
		}}, nil)
	stream.EXPECT().Ack(ctx, "settlement-consumers", "7-0").Return(nil)

	w.RunCycle(ctx)
}

func TestRunCycle_EmptyPayloadIsAcked(t *testing.T) {
	w, stream, _ := newTestWorker(t)
	ctx := context.Background()

	stream.EXPECT().
		ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
		Return([]ports.StreamEntry{{
			ID: "8-0",
			Values: map[string]string{
				domain.FieldEventType: domain.EventTypeSettlementRequested,
			},
		}}, nil)
	stream.EXPECT().Ack(ctx, "settlement-consumers", "8-0").Return(nil)

	w.RunCycle(ctx)
}

func TestRunCycle_EmptyReadDoesNothing(t *testing.T) {
	w, stream, _ := newTestWorker(t)
	ctx := context.Background()

	stream.EXPECT().
		ReadGroup(ctx, "settlement-consumers", "test-consumer", int64(10), gomock.Any()).
		Return(nil, nil)

	w.RunCycle(ctx)
}

func TestNew_GeneratesConsumerNameWhenUnset(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := New(
		mocks.NewMockEventStream(ctrl),
		mocks.NewMockSettlementService(ctrl),
		Config{Group: "g"},
		NewMetrics(prometheus.NewRegistry()),
		zerolog.Nop(),
	)
	assert.NotEmpty(t, w.ConsumerName())

	w2 := New(
		mocks.NewMockEventStream(ctrl),
		mocks.NewMockSettlementService(ctrl),
		Config{Group: "g"},
		NewMetrics(prometheus.NewRegistry()),
		zerolog.Nop(),
	)
	assert.NotEqual(t, w.ConsumerName(), w2.ConsumerName())
}
