package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"merchant-settlement-service/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

// Stream implements ports.EventStream on a Redis Stream with consumer
// groups. Unacknowledged entries stay in the group's pending list and are
// redelivered, giving at-least-once semantics.
type Stream struct {
	client *goredis.Client
	key    string
}

// NewStream creates a Redis-backed event stream.
func NewStream(client *goredis.Client, key string) *Stream {
	return &Stream{client: client, key: key}
}

// Key returns the underlying stream key.
func (s *Stream) Key() string {
	return s.key
}

// Append appends one entry via XADD and returns the log-assigned ID.
func (s *Stream) Append(ctx context.Context, values map[string]interface{}) (string, error) {
	id, err := s.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.key,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", s.key, err)
	}
	return id, nil
}

// ReadGroup reads up to count new entries for the group via XREADGROUP.
// Returns nil, nil when the block window elapses without entries.
func (s *Stream) ReadGroup(ctx context.Context, group, consumer string, count int64, block time.Duration) ([]ports.StreamEntry, error) {
	res, err := s.client.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{s.key, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		if isNoGroup(err) {
			return nil, fmt.Errorf("%w: xreadgroup %s/%s: %v", ports.ErrNoGroup, s.key, group, err)
		}
		return nil, fmt.Errorf("xreadgroup %s/%s: %w", s.key, group, err)
	}

	var entries []ports.StreamEntry
	for _, stream := range res {
		for _, msg := range stream.Messages {
			entries = append(entries, ports.StreamEntry{
				ID:     msg.ID,
				Values: stringValues(msg.Values),
			})
		}
	}
	return entries, nil
}

// Ack acknowledges one delivered entry via XACK.
func (s *Stream) Ack(ctx context.Context, group, entryID string) error {
	if err := s.client.XAck(ctx, s.key, group, entryID).Err(); err != nil {
		return fmt.Errorf("xack %s/%s %s: %w", s.key, group, entryID, err)
	}
	return nil
}

// CreateGroup creates the consumer group at the stream's origin ("0"),
// creating the stream if absent. An already-existing group is not an error.
func (s *Stream) CreateGroup(ctx context.Context, group string) error {
	err := s.client.XGroupCreateMkStream(ctx, s.key, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("xgroup create %s/%s: %w", s.key, group, err)
	}
	return nil
}

// isNoGroup detects the NOGROUP reply returned when reading from a group
// that has not been created yet.
func isNoGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "NOGROUP")
}

func stringValues(values map[string]interface{}) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
