package platform

import (
	"context"
	"sync"

	"fundmatch/internal/funding/models"
	"fundmatch/pkg/platform/sentinel"
)

// InMemory holds the singleton platform record. Development and unit-test
// backend.
type InMemory struct {
	mu       sync.RWMutex
	platform *models.Platform
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

// Create stores the record if no platform exists yet.
func (s *InMemory) Create(_ context.Context, p *models.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.platform != nil {
		return sentinel.ErrConflict
	}
	cp := *p
	s.platform = &cp
	return nil
}

// Get returns a copy of the platform record.
func (s *InMemory) Get(_ context.Context) (*models.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.platform == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.platform
	return &cp, nil
}

// Execute runs validate then mutate while holding the store lock, the
// atomic validate-then-mutate pattern services rely on for counters.
func (s *InMemory) Execute(_ context.Context, validate func(*models.Platform) error, mutate func(*models.Platform)) (*models.Platform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.platform == nil {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(s.platform); err != nil {
			return nil, err
		}
	}
	mutate(s.platform)
	cp := *s.platform
	return &cp, nil
}
