package domain

import (
	"strconv"
	"time"
)

// Event types carried on the settlement stream.
const (
	EventTypeSettlementRequested = "SETTLEMENT_REQUESTED"
)

// Field names of a stream entry. The Event Log boundary works on flat
// field/value maps, so these are the wire format.
const (
	FieldEventType                 = "eventType"
	FieldOccurredAt                = "occurredAt"
	FieldPaymentID                 = "paymentId"
	FieldPayload                   = "payload"
	FieldPayloadSerializationError = "payloadSerializationError"
)

// SettlementRequest is the payload of a SETTLEMENT_REQUESTED event: an
// approved payment to be materialized into a transaction and credited to
// the merchant's balance. PaymentID is optional; when present it doubles
// as the downstream transaction ID for deduplication.
type SettlementRequest struct {
	PaymentID   string            `json:"payment_id,omitempty"`
	MerchantID  string            `json:"merchant_id"`
	Amount      int64             `json:"amount"` // smallest currency unit
	Currency    string            `json:"currency"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SettlementEvent is the decoded form of a stream entry. Entries are
// immutable once appended; the log assigns the monotonic entry ID.
type SettlementEvent struct {
	Type                      string
	OccurredAt                time.Time
	PaymentID                 string
	Payload                   string
	PayloadSerializationError bool
}

// EventFromValues decodes the flat field map of a stream entry.
// Unknown or malformed fields are tolerated: the consumer decides what a
// partially decoded event means.
func EventFromValues(values map[string]string) SettlementEvent {
	ev := SettlementEvent{
		Type:      values[FieldEventType],
		PaymentID: values[FieldPaymentID],
		Payload:   values[FieldPayload],
	}
	if ms, err := strconv.ParseInt(values[FieldOccurredAt], 10, 64); err == nil {
		ev.OccurredAt = time.UnixMilli(ms).UTC()
	}
	if flag, err := strconv.ParseBool(values[FieldPayloadSerializationError]); err == nil {
		ev.PayloadSerializationError = flag
	}
	return ev
}
