package donation

import (
	"context"
	"sort"
	"sync"

	"fundmatch/internal/funding/models"
	"fundmatch/pkg/domain"
	"fundmatch/pkg/platform/sentinel"
)

// InMemory keeps the immutable donation ledger keyed by record address.
type InMemory struct {
	mu         sync.RWMutex
	donations  map[domain.Address]*models.Donation
	byCampaign map[domain.CampaignID][]*models.Donation
}

func NewInMemory() *InMemory {
	return &InMemory{
		donations:  make(map[domain.Address]*models.Donation),
		byCampaign: make(map[domain.CampaignID][]*models.Donation),
	}
}

func (s *InMemory) Create(_ context.Context, d *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr := d.Address()
	if _, exists := s.donations[addr]; exists {
		return sentinel.ErrConflict
	}
	cp := *d
	s.donations[addr] = &cp
	s.byCampaign[d.CampaignID] = append(s.byCampaign[d.CampaignID], &cp)
	return nil
}

func (s *InMemory) Get(_ context.Context, addr domain.Address) (*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, exists := s.donations[addr]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// ListByCampaign returns a campaign's donations in sequence order.
func (s *InMemory) ListByCampaign(_ context.Context, id domain.CampaignID) ([]*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.byCampaign[id]
	out := make([]*models.Donation, len(list))
	for i, d := range list {
		cp := *d
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceIndex < out[j].SequenceIndex })
	return out, nil
}
