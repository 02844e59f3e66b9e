package account

import (
	"context"
	"sync"

	"fundmatch/internal/funding/models"
	"fundmatch/pkg/domain"
	"fundmatch/pkg/platform/sentinel"
)

// InMemory keeps custodied balances keyed by account address.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[domain.Address]*models.Account
}

func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[domain.Address]*models.Account)}
}

// Ensure creates the account if absent. Existing accounts are untouched.
func (s *InMemory) Ensure(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[a.Address]; exists {
		return nil
	}
	cp := *a
	s.accounts[a.Address] = &cp
	return nil
}

func (s *InMemory) Get(_ context.Context, addr domain.Address) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, exists := s.accounts[addr]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// Credit adds to an account's balance.
func (s *InMemory) Credit(_ context.Context, addr domain.Address, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, exists := s.accounts[addr]
	if !exists {
		return sentinel.ErrNotFound
	}
	balance, err := models.CheckedAdd(a.Balance, amount)
	if err != nil {
		return err
	}
	a.Balance = balance
	return nil
}

// Debit removes from an account's balance. The presented authority must
// match the account's authority capability; this is how vault custody is
// enforced — nothing without the derived capability can move escrowed funds.
func (s *InMemory) Debit(_ context.Context, addr domain.Address, amount uint64, authority domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, exists := s.accounts[addr]
	if !exists {
		return sentinel.ErrNotFound
	}
	if a.Authority != authority {
		return sentinel.ErrForbidden
	}
	if a.Balance < amount {
		return sentinel.ErrInsufficientFunds
	}
	a.Balance -= amount
	return nil
}
