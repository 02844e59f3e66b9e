package store

import (
	"context"

	"fundmatch/internal/funding/models"
	"fundmatch/pkg/domain"
)

// AccountSeeder is the slice of the account store seeding needs.
type AccountSeeder interface {
	Ensure(ctx context.Context, a *models.Account) error
	Credit(ctx context.Context, addr domain.Address, amount uint64) error
}

// SeedHoldingAccounts funds holding accounts for development use. Funding
// real accounts is an external collaborator's job; this stands in for it
// when running against the memory backend.
func SeedHoldingAccounts(ctx context.Context, accounts AccountSeeder, balance uint64, owners ...domain.Identity) error {
	for _, owner := range owners {
		holding := models.NewHoldingAccount(owner)
		if err := accounts.Ensure(ctx, holding); err != nil {
			return err
		}
		if err := accounts.Credit(ctx, holding.Address, balance); err != nil {
			return err
		}
	}
	return nil
}
