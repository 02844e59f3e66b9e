package campaign

import (
	"context"
	"sync"

	"fundmatch/internal/funding/models"
	"fundmatch/pkg/domain"
	"fundmatch/pkg/platform/sentinel"
)

// InMemory keeps campaigns keyed by id. Development and unit-test backend.
type InMemory struct {
	mu        sync.RWMutex
	campaigns map[domain.CampaignID]*models.Campaign
}

func NewInMemory() *InMemory {
	return &InMemory{campaigns: make(map[domain.CampaignID]*models.Campaign)}
}

func (s *InMemory) Create(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.campaigns[c.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *c
	s.campaigns[c.ID] = &cp
	return nil
}

func (s *InMemory) Get(_ context.Context, id domain.CampaignID) (*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, exists := s.campaigns[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// Execute runs validate then mutate while holding the store lock. The
// returned campaign is a copy of the post-mutation state.
func (s *InMemory) Execute(_ context.Context, id domain.CampaignID, validate func(*models.Campaign) error, mutate func(*models.Campaign) error) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, exists := s.campaigns[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(c); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		// Mutate against a scratch copy so a failed mutation leaves the
		// stored record untouched.
		scratch := *c
		if err := mutate(&scratch); err != nil {
			return nil, err
		}
		*c = scratch
	}
	cp := *c
	return &cp, nil
}
