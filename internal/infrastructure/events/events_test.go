package events_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/events"
)

func TestMemoryBus(t *testing.T) {
	bus := events.NewMemoryBus()

	bus.Emit("COLLECTIONS_EXTRACTED", map[string]any{"transaction_id": "TX-1"})
	bus.Emit("COLLECTIONS_CONFIRMED", nil)

	recorded := bus.Events()
	require.Len(t, recorded, 2)
	assert.Equal(t, "COLLECTIONS_EXTRACTED", recorded[0].Name)
	assert.Equal(t, "TX-1", recorded[0].Payload["transaction_id"])
	assert.NotEmpty(t, recorded[0].ID)
	assert.False(t, recorded[0].At.IsZero())
}

func TestMemorySink(t *testing.T) {
	t.Run("records entries", func(t *testing.T) {
		sink := events.NewMemorySink()

		entry := events.NewAuditEntry("system", "PAYROLL_RECONCILED", "reconciliation_item", "item-1", nil)
		require.NoError(t, sink.Append(entry))

		entries := sink.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, entry.ID, entries[0].ID)
	})

	t.Run("fails when configured to", func(t *testing.T) {
		sink := events.NewMemorySink()
		sink.FailWith = errors.New("disk full")

		err := sink.Append(events.NewAuditEntry("system", "X", "y", "z", nil))
		assert.Error(t, err)
		assert.Empty(t, sink.Entries())
	})
}

func TestNewAuditEntry(t *testing.T) {
	entry := events.NewAuditEntry("alice", "COLLECTIONS_RECONCILED", "reconciliation_item", "item-1",
		map[string]any{"record_id": "AR-1"})

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.At.IsZero())
	assert.Equal(t, "alice", entry.Actor)
	assert.Equal(t, "COLLECTIONS_RECONCILED", entry.Action)
	assert.Equal(t, "reconciliation_item", entry.EntityType)
	assert.Equal(t, "item-1", entry.EntityID)
	assert.Equal(t, "AR-1", entry.Payload["record_id"])
}
