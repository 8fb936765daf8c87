package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"merchant-settlement-service/internal/core/domain"
	"merchant-settlement-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds the worker's polling parameters.
type Config struct {
	Group        string
	Consumer     string // empty = hostname + random suffix
	BatchSize    int64
	Block        time.Duration
	PollInterval time.Duration
}

// Worker polls the Event Log under a named consumer group and settles each
// delivered entry. Entries are acknowledged only after the settlement
// operation succeeds; failed entries stay pending and are redelivered.
// Multiple worker replicas in the same group each receive a disjoint subset
// of entries per the log's consumer-group fan-out.
type Worker struct {
	stream   ports.EventStream
	settler  ports.SettlementService
	group    string
	consumer string
	batch    int64
	block    time.Duration
	interval time.Duration
	metrics  *Metrics
	log      zerolog.Logger
}

// New creates a Worker. The consumer name is resolved once: the configured
// name when set, otherwise hostname plus a random suffix so replicas in the
// same group register as distinct consumers.
func New(stream ports.EventStream, settler ports.SettlementService, cfg Config, metrics *Metrics, log zerolog.Logger) *Worker {
	consumer := cfg.Consumer
	if consumer == "" {
		consumer = resolveConsumerName()
	}

	w := &Worker{
		stream:   stream,
		settler:  settler,
		group:    cfg.Group,
		consumer: consumer,
		batch:    cfg.BatchSize,
		block:    cfg.Block,
		interval: cfg.PollInterval,
		metrics:  metrics,
		log:      log,
	}

	log.Info().
		Str("group", w.group).
		Str("consumer", w.consumer).
		Msg("settlement consumer initialized")

	return w
}

// ConsumerName returns the resolved consumer identity.
func (w *Worker) ConsumerName() string {
	return w.consumer
}

// Run polls at a fixed interval until the context is canceled. Cycle
// errors are logged and the loop keeps going; the process degrades, it
// does not halt.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.RunCycle(ctx)

		select {
		case <-ctx.Done():
			w.log.Info().Msg("settlement consumer stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle performs one read-process-ack cycle.
//
// Group bootstrap is an explicit two-state sequence: when the first read
// fails with a missing group, the group is created at the stream's origin
// and the read is retried exactly once. Any further failure aborts the
// cycle.
func (w *Worker) RunCycle(ctx context.Context) {
	entries, err := w.stream.ReadGroup(ctx, w.group, w.consumer, w.batch, w.block)
	if err != nil {
		if !errors.Is(err, ports.ErrNoGroup) {
			w.metrics.ReadErrors.Inc()
			w.log.Error().Err(err).Msg("reading from stream")
			return
		}

		w.log.Warn().
			Str("group", w.group).
			Msg("consumer group missing, creating at stream origin")
		if cerr := w.stream.CreateGroup(ctx, w.group); cerr != nil {
			w.metrics.BootstrapFailures.Inc()
			w.log.Error().Err(cerr).Str("group", w.group).Msg("consumer group bootstrap failed")
			return
		}
		w.metrics.BootstrapRecoveries.Inc()

		entries, err = w.stream.ReadGroup(ctx, w.group, w.consumer, w.batch, w.block)
		if err != nil {
			w.metrics.ReadErrors.Inc()
			w.log.Error().Err(err).Msg("reading from stream after group bootstrap")
			return
		}
	}

	for _, entry := range entries {
		w.metrics.EntriesRead.Inc()

		if err := w.handleEntry(ctx, entry); err != nil {
			w.metrics.EntriesFailed.Inc()
			w.log.Error().Err(err).
				Str("entry_id", entry.ID).
				Msg("processing failed, entry left pending for redelivery")
			continue
		}

		if err := w.stream.Ack(ctx, w.group, entry.ID); err != nil {
			w.log.Error().Err(err).Str("entry_id", entry.ID).Msg("acknowledging entry")
			continue
		}
		w.metrics.EntriesAcked.Inc()
	}
}

// handleEntry settles one delivered entry. A nil return means the entry may
// be acknowledged; an error leaves it pending.
func (w *Worker) handleEntry(ctx context.Context, entry ports.StreamEntry) error {
	ev := domain.EventFromValues(entry.Values)

	if ev.Type != domain.EventTypeSettlementRequested {
		w.metrics.EntriesSkipped.Inc()
		w.log.Warn().
			Str("entry_id", entry.ID).
			Str("event_type", ev.Type).
			Msg("ignoring entry with unexpected event type")
		return nil
	}

	if ev.PayloadSerializationError {
		return fmt.Errorf("entry %s carries a producer-side serialization error, manual reconciliation required", entry.ID)
	}
	if ev.Payload == "" {
		w.metrics.EntriesSkipped.Inc()
		w.log.Warn().Str("entry_id", entry.ID).Msg("settlement event without payload")
		return nil
	}

	var req domain.SettlementRequest
	if err := json.Unmarshal([]byte(ev.Payload), &req); err != nil {
		return fmt.Errorf("decoding settlement payload of entry %s: %w", entry.ID, err)
	}

	if err := w.settler.Settle(ctx, req, entry.ID); err != nil {
		return fmt.Errorf("settling entry %s: %w", entry.ID, err)
	}
	w.metrics.EntriesSettled.Inc()
	return nil
}

func resolveConsumerName() string {
	host, err := os.Hostname()
	if err != nil {
		return "consumer-" + uuid.New().String()
	}
	return host + "-" + uuid.New().String()
}
