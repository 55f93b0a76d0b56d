package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type (
	// PendingAction is a staged destructive plan awaiting confirmation.
	PendingAction struct {
		UserID  string           `json:"user_id"`
		Command string           `json:"command"`
		Actions []map[string]any `json:"actions"`
	}

	pendingEntry struct {
		action   PendingAction
		stagedAt time.Time
	}

	// PendingStore holds staged actions in process memory. Entries
	// expire after the TTL so a forgotten confirmation cannot fire
	// days later.
	PendingStore struct {
		mtx     sync.Mutex
		ttl     time.Duration
		entries map[string]pendingEntry

		now func() time.Time
	}
)

const DefaultPendingTTL = 15 * time.Minute

func NewPendingStore(ttl time.Duration) *PendingStore {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &PendingStore{
		ttl:     ttl,
		entries: map[string]pendingEntry{},
		now:     time.Now,
	}
}

// Stage stores the plan and returns an action ID for confirmation.
func (s *PendingStore) Stage(userID, command string, actions []map[string]any) string {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.sweepLocked()

	id := uuid.NewString()
	s.entries[id] = pendingEntry{
		action: PendingAction{
			UserID:  userID,
			Command: command,
			Actions: actions,
		},
		stagedAt: s.now(),
	}

	return id
}

// Confirm pops and returns the pending action if it belongs to userID
// and has not expired.
func (s *PendingStore) Confirm(actionID, userID string) (*PendingAction, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.sweepLocked()

	entry, ok := s.entries[actionID]
	if !ok || entry.action.UserID != userID {
		return nil, false
	}
	delete(s.entries, actionID)

	return &entry.action, true
}

// Reject discards a pending action. Returns true when the action
// existed and belonged to userID.
func (s *PendingStore) Reject(actionID, userID string) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.sweepLocked()

	entry, ok := s.entries[actionID]
	if !ok || entry.action.UserID != userID {
		return false
	}
	delete(s.entries, actionID)

	return true
}

func (s *PendingStore) sweepLocked() {
	cutoff := s.now().Add(-s.ttl)
	for id, entry := range s.entries {
		if entry.stagedAt.Before(cutoff) {
			delete(s.entries, id)
		}
	}
}

// PreviewDestructive stages a destructive plan and returns the payload
// the client needs to confirm or reject it.
func (a *Agent) PreviewDestructive(command string, actions []map[string]any) map[string]any {
	actionID := a.pending.Stage(a.userID, command, actions)
	return map[string]any{
		"status":    "confirmation_required",
		"action_id": actionID,
		"preview":   actions,
		"message":   "The following actions require your confirmation before they are executed.",
	}
}

// ConfirmAction pops the staged plan if it belongs to this agent's user.
func (a *Agent) ConfirmAction(actionID string) (*PendingAction, bool) {
	return a.pending.Confirm(actionID, a.userID)
}

// RejectAction discards the staged plan.
func (a *Agent) RejectAction(actionID string) bool {
	return a.pending.Reject(actionID, a.userID)
}
