package redis

import (
	"context"
	"errors"
	"testing"

	"merchant-settlement-service/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_AppendAndReadGroup(t *testing.T) {
	client, _ := newTestClient(t)
	stream := NewStream(client, "test:events")
	ctx := context.Background()

	require.NoError(t, stream.CreateGroup(ctx, "workers"))

	entryID, err := stream.Append(ctx, map[string]interface{}{
		"eventType": "SETTLEMENT_REQUESTED",
		"payload":   `{"merchant_id":"merchant-1"}`,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entryID)

	entries, err := stream.ReadGroup(ctx, "workers", "consumer-1", 10, -1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entryID, entries[0].ID)
	assert.Equal(t, "SETTLEMENT_REQUESTED", entries[0].Values["eventType"])
	assert.Equal(t, `{"merchant_id":"merchant-1"}`, entries[0].Values["payload"])
}

func TestStream_ReadGroupWithoutGroupReturnsErrNoGroup(t *testing.T) {
	client, _ := newTestClient(t)
	stream := NewStream(client, "test:events")
	ctx := context.Background()

	_, err := stream.Append(ctx, map[string]interface{}{"eventType": "SETTLEMENT_REQUESTED"})
	require.NoError(t, err)

	_, err = stream.ReadGroup(ctx, "nonexistent", "consumer-1", 10, -1)
	assert.True(t, errors.Is(err, ports.ErrNoGroup))
}

func TestStream_CreateGroupIsIdempotent(t *testing.T) {
	client, _ := newTestClient(t)
	stream := NewStream(client, "test:events")
	ctx := context.Background()

	require.NoError(t, stream.CreateGroup(ctx, "workers"))
	require.NoError(t, stream.CreateGroup(ctx, "workers"))
}

func TestStream_GroupCreatedAtOriginSeesEarlierEntries(t *testing.T) {
	client, _ := newTestClient(t)
	stream := NewStream(client, "test:events")
	ctx := context.Background()

	// Entry appended before the group exists.
	entryID, err := stream.Append(ctx, map[string]interface{}{"eventType": "SETTLEMENT_REQUESTED"})
	require.NoError(t, err)

	require.NoError(t, stream.CreateGroup(ctx, "workers"))

	entries, err := stream.ReadGroup(ctx, "workers", "consumer-1", 10, -1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entryID, entries[0].ID)
}

func TestStream_UnackedEntriesAreNotRedeliveredAsNew(t *testing.T) {
	client, _ := newTestClient(t)
	stream := NewStream(client, "test:events")
	ctx := context.Background()

	require.NoError(t, stream.CreateGroup(ctx, "workers"))
	_, err := stream.Append(ctx, map[string]interface{}{"eventType": "SETTLEMENT_REQUESTED"})
	require.NoError(t, err)

	entries, err := stream.ReadGroup(ctx, "workers", "consumer-1", 10, -1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// The ">" cursor only yields entries never delivered to the group; the
	// unacked entry sits in the pending list instead.
	entries, err = stream.ReadGroup(ctx, "workers", "consumer-1", 10, -1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStream_AckRemovesFromPending(t *testing.T) {
	client, _ := newTestClient(t)
	stream := NewStream(client, "test:events")
	ctx := context.Background()

	require.NoError(t, stream.CreateGroup(ctx, "workers"))
	entryID, err := stream.Append(ctx, map[string]interface{}{"eventType": "SETTLEMENT_REQUESTED"})
	require.NoError(t, err)

	entries, err := stream.ReadGroup(ctx, "workers", "consumer-1", 10, -1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, stream.Ack(ctx, "workers", entryID))

	pending, err := client.XPending(ctx, "test:events", "workers").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestStream_GroupFanOutIsDisjoint(t *testing.T) {
	client, _ := newTestClient(t)
	stream := NewStream(client, "test:events")
	ctx := context.Background()

	require.NoError(t, stream.CreateGroup(ctx, "workers"))
	first, err := stream.Append(ctx, map[string]interface{}{"n": "1"})
	require.NoError(t, err)
	second, err := stream.Append(ctx, map[string]interface{}{"n": "2"})
	require.NoError(t, err)

	got1, err := stream.ReadGroup(ctx, "workers", "consumer-1", 1, -1)
	require.NoError(t, err)
	got2, err := stream.ReadGroup(ctx, "workers", "consumer-2", 1, -1)
	require.NoError(t, err)

	require.Len(t, got1, 1)
	require.Len(t, got2, 1)
	assert.Equal(t, first, got1[0].ID)
	assert.Equal(t, second, got2[0].ID)
}
