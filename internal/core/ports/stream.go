package ports

import (
	"context"
	"errors"
	"time"
)

// ErrNoGroup marks a group read against a consumer group that does not
// exist yet. The worker reacts by bootstrapping the group at the stream's
// origin and retrying the read exactly once.
var ErrNoGroup = errors.New("consumer group does not exist")

// StreamEntry is one delivered Event Log entry. The ID is assigned by the
// log and is monotonic within the stream.
type StreamEntry struct {
	ID     string
	Values map[string]string
}

// EventStream is the Event Log boundary: an append-only stream with
// consumer-group fan-out, per-entry acknowledgment and at-least-once
// redelivery of unacknowledged entries. The group cursor is owned by the
// log; this interface only observes it through reads and acks.
type EventStream interface {
	// Append durably appends one entry and returns its log-assigned ID.
	Append(ctx context.Context, values map[string]interface{}) (string, error)
	// ReadGroup requests up to count new entries for the named group and
	// consumer, blocking up to block (block < 0 returns immediately).
	// Returns nil, nil when no entries arrived within the window, and an
	// error wrapping ErrNoGroup when the group has not been created.
	ReadGroup(ctx context.Context, group, consumer string, count int64, block time.Duration) ([]StreamEntry, error)
	// Ack acknowledges a delivered entry for the group.
	Ack(ctx context.Context, group, entryID string) error
	// CreateGroup creates the consumer group positioned at the stream's
	// origin, creating the stream itself if absent. Creating a group that
	// already exists is not an error.
	CreateGroup(ctx context.Context, group string) error
}
