package models

import (
	"fundmatch/pkg/domain"
)

// Account is a custodied token balance: an identity's holding account, a
// campaign vault, or the platform fee account. Debits must present the
// account's authority capability; the account store enforces the match, and
// the service decides who may derive which authority.
type Account struct {
	Address   domain.Address  `json:"address"`
	Owner     domain.Identity `json:"owner"`
	Authority domain.Address  `json:"authority"`
	Balance   uint64          `json:"balance"`
}

// NewHoldingAccount constructs an identity's holding account with a zero
// balance. The holding authority is derived from the identity itself, so
// only the owner's authenticated requests can spend from it.
func NewHoldingAccount(owner domain.Identity) *Account {
	return &Account{
		Address:   domain.HoldingAddress(owner),
		Owner:     owner,
		Authority: domain.HoldingAuthority(owner),
	}
}

// NewVaultAccount constructs the empty escrow account for a campaign. Its
// authority is the derived vault capability, which only settlement derives.
func NewVaultAccount(id domain.CampaignID, creator domain.Identity) *Account {
	return &Account{
		Address:   domain.VaultAddress(id),
		Owner:     creator,
		Authority: domain.VaultAuthority(id),
	}
}

// NewPlatformFeeAccount constructs the fee-collection account. Fee debits
// are outside the engine's operation surface, so the authority is scoped to
// the admin's holding capability.
func NewPlatformFeeAccount(admin domain.Identity) *Account {
	return &Account{
		Address:   domain.PlatformFeeAddress(),
		Owner:     admin,
		Authority: domain.HoldingAuthority(admin),
	}
}
