package publisher

import (
	"context"
	"sync"

	audit "fundmatch/pkg/platform/audit"
)

// Memory collects published events in memory. Used by worker tests and as
// the sink when Kafka is not configured.
type Memory struct {
	mu     sync.Mutex
	events []audit.Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(_ context.Context, event audit.PendingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event.Event)
	return nil
}

// Events returns published events in delivery order.
func (m *Memory) Events() []audit.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.Event, len(m.events))
	copy(out, m.events)
	return out
}
