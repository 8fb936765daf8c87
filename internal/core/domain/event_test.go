package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventFromValues(t *testing.T) {
	ev := EventFromValues(map[string]string{
		FieldEventType:  EventTypeSettlementRequested,
		FieldOccurredAt: "1700000000000",
		FieldPaymentID:  "pay_1",
		FieldPayload:    `{"merchant_id":"merchant-1"}`,
	})

	assert.Equal(t, EventTypeSettlementRequested, ev.Type)
	assert.Equal(t, "pay_1", ev.PaymentID)
	assert.Equal(t, `{"merchant_id":"merchant-1"}`, ev.Payload)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), ev.OccurredAt)
	assert.False(t, ev.PayloadSerializationError)
}

func TestEventFromValues_SerializationErrorFlag(t *testing.T) {
	ev := EventFromValues(map[string]string{
		FieldEventType:                 EventTypeSettlementRequested,
		FieldPayloadSerializationError: "true",
	})
	assert.True(t, ev.PayloadSerializationError)
}

func TestEventFromValues_ToleratesMalformedFields(t *testing.T) {
	ev := EventFromValues(map[string]string{
		FieldOccurredAt:                "not-a-number",
		FieldPayloadSerializationError: "not-a-bool",
	})
	assert.True(t, ev.OccurredAt.IsZero())
	assert.False(t, ev.PayloadSerializationError)
}

func TestEventFromValues_EmptyMap(t *testing.T) {
	ev := EventFromValues(map[string]string{})
	assert.Empty(t, ev.Type)
	assert.Empty(t, ev.Payload)
}
