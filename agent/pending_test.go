package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingStoreLifecycle(t *testing.T) {
	store := NewPendingStore(time.Minute)

	actions := []map[string]any{{"action": "delete_file", "file_id": "f1"}}
	id := store.Stage("alice", "delete the old draft", actions)
	require.NotEmpty(t, id)

	// Wrong user cannot confirm.
	_, ok := store.Confirm(id, "mallory")
	assert.False(t, ok)

	action, ok := store.Confirm(id, "alice")
	require.True(t, ok)
	assert.Equal(t, "delete the old draft", action.Command)
	assert.Equal(t, actions, action.Actions)

	// Confirm pops the entry.
	_, ok = store.Confirm(id, "alice")
	assert.False(t, ok)
}

func TestPendingStoreReject(t *testing.T) {
	store := NewPendingStore(time.Minute)

	id := store.Stage("alice", "delete everything", nil)
	assert.False(t, store.Reject(id, "bob"))
	assert.True(t, store.Reject(id, "alice"))
	assert.False(t, store.Reject(id, "alice"))
}

func TestPendingStoreExpiry(t *testing.T) {
	store := NewPendingStore(15 * time.Minute)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	id := store.Stage("alice", "delete the archive", nil)

	// Just inside the TTL it is still confirmable.
	current = current.Add(14 * time.Minute)
	_, ok := store.Confirm(id, "alice")
	require.True(t, ok)

	id = store.Stage("alice", "delete the archive", nil)
	current = current.Add(16 * time.Minute)
	_, ok = store.Confirm(id, "alice")
	assert.False(t, ok)
}

func TestPreviewDestructive(t *testing.T) {
	runner := &fakeRunner{}
	a, _ := newTestAgent(t, runner)

	actions := []map[string]any{{"action": "delete_file", "file_id": "f9"}}
	preview := a.PreviewDestructive("delete old notes", actions)

	assert.Equal(t, "confirmation_required", preview["status"])
	require.NotEmpty(t, preview["action_id"])

	actionID := preview["action_id"].(string)
	staged, ok := a.ConfirmAction(actionID)
	require.True(t, ok)
	assert.Equal(t, "delete old notes", staged.Command)

	preview = a.PreviewDestructive("delete old notes", actions)
	assert.True(t, a.RejectAction(preview["action_id"].(string)))
}
