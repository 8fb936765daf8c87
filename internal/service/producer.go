package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"merchant-settlement-service/internal/core/domain"
	"merchant-settlement-service/internal/core/ports"
	"merchant-settlement-service/pkg/apperror"

	"github.com/rs/zerolog"
)

// ProducerImpl implements ports.EventProducer on the Event Log.
type ProducerImpl struct {
	stream ports.EventStream
	log    zerolog.Logger
}

// NewProducer creates a new ProducerImpl.
func NewProducer(stream ports.EventStream, log zerolog.Logger) *ProducerImpl {
	return &ProducerImpl{stream: stream, log: log}
}

// PublishSettlementRequested appends one SETTLEMENT_REQUESTED entry.
// Append success means "durably appended", not "processed". A payload
// serialization failure is captured into the entry itself (the consumer
// treats such entries as terminal failures for manual reconciliation), so
// an encoding bug never blocks admission.
func (p *ProducerImpl) PublishSettlementRequested(ctx context.Context, req domain.SettlementRequest) (string, error) {
	values := map[string]interface{}{
		domain.FieldEventType:  domain.EventTypeSettlementRequested,
		domain.FieldOccurredAt: time.Now().UnixMilli(),
	}
	if req.PaymentID != "" {
		values[domain.FieldPaymentID] = req.PaymentID
	}

	payload, err := json.Marshal(req)
	if err != nil {
		p.log.Error().Err(err).
			Str("merchant_id", req.MerchantID).
			Msg("settlement payload serialization failed, capturing error into event")
		values[domain.FieldPayload] = fmt.Sprintf("%+v", req)
		values[domain.FieldPayloadSerializationError] = "true"
	} else {
		values[domain.FieldPayload] = string(payload)
	}

	entryID, err := p.stream.Append(ctx, values)
	if err != nil {
		return "", apperror.ErrDownstreamUnavailable(fmt.Errorf("appending settlement event: %w", err))
	}

	p.log.Info().
		Str("entry_id", entryID).
		Str("merchant_id", req.MerchantID).
		Int64("amount", req.Amount).
		Msg("settlement event appended")

	return entryID, nil
}
