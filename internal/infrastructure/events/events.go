// Package events defines the domain event bus and the append-only audit
// sink. Both are fire-and-forget from the engine's perspective: a failing
// sink is logged and monitored, never rolled back into reconciliation state.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a domain event, e.g. COLLECTIONS_RECONCILED.
type Event struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Bus publishes domain events to external consumers.
type Bus interface {
	Emit(name string, payload map[string]any)
}

// AuditEntry is one append-only audit record.
type AuditEntry struct {
	ID         string         `json:"id"`
	At         time.Time      `json:"at"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// AuditSink appends audit entries. The engine only appends; it never reads
// audit data back for logic.
type AuditSink interface {
	Append(entry AuditEntry) error
}

// NewAuditEntry builds an entry with a fresh ID and timestamp.
func NewAuditEntry(actor, action, entityType, entityID string, payload map[string]any) AuditEntry {
	return AuditEntry{
		ID:         uuid.NewString(),
		At:         time.Now().UTC(),
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    payload,
	}
}

// LogBus emits events to the structured log. Suitable as the default bus
// when no external consumer is wired.
type LogBus struct {
	logger *slog.Logger
}

// NewLogBus creates a log-backed event bus.
func NewLogBus(logger *slog.Logger) *LogBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogBus{logger: logger}
}

// Emit logs the event.
func (b *LogBus) Emit(name string, payload map[string]any) {
	b.logger.Info("domain event", "event", name, "payload", payload)
}

// MemoryBus records events in memory for tests and local inspection.
type MemoryBus struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryBus creates an in-memory event bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Emit records the event.
func (b *MemoryBus) Emit(name string, payload map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Event{
		ID:      uuid.NewString(),
		Name:    name,
		At:      time.Now().UTC(),
		Payload: payload,
	})
}

// Events returns a copy of the recorded events.
func (b *MemoryBus) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// MemorySink records audit entries in memory for tests. FailWith forces
// Append to return an error, for exercising best-effort audit paths.
type MemorySink struct {
	mu       sync.Mutex
	entries  []AuditEntry
	FailWith error
}

// NewMemorySink creates an in-memory audit sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append records the entry, or fails when FailWith is set.
func (s *MemorySink) Append(entry AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a copy of the recorded entries.
func (s *MemorySink) Entries() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
