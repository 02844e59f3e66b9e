package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	audit "fundmatch/pkg/platform/audit"
)

// Store is an in-memory outbox for development and tests. Rows live until
// the worker marks them published.
type Store struct {
	mu     sync.Mutex
	events []entry
}

type entry struct {
	pending   audit.PendingEvent
	published bool
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, entry{pending: audit.PendingEvent{
		ID:      uuid.NewString(),
		Event:   event,
		Payload: payload,
	}})
	return nil
}

func (s *Store) FetchPending(_ context.Context, limit int) ([]audit.PendingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []audit.PendingEvent
	for _, e := range s.events {
		if e.published {
			continue
		}
		out = append(out, e.pending)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkPublished(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := make(map[string]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	for i := range s.events {
		if marked[s.events[i].pending.ID] {
			s.events[i].published = true
		}
	}
	return nil
}

// Events returns all appended events in order. Test helper.
func (s *Store) Events() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]audit.Event, len(s.events))
	for i, e := range s.events {
		out[i] = e.pending.Event
	}
	return out
}
