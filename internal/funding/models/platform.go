package models

import (
	"time"

	"fundmatch/pkg/domain"
)

const (
	// DefaultFeeRateBps is the platform fee in basis points (250 = 2.5%),
	// fixed at initialization and immutable thereafter.
	DefaultFeeRateBps uint32 = 250

	// FeeScale is the basis-point denominator for the platform fee.
	FeeScale uint64 = 10_000
)

// Platform is the singleton engine configuration plus its running counters.
//
// Invariants:
//   - Admin and FeeRateBps are immutable after initialization
//   - TotalCampaigns increments by exactly one per campaign creation and is
//     the id assigned to the next campaign
//   - TotalRaised is monotonic non-decreasing
type Platform struct {
	Admin          domain.Identity `json:"admin"`
	FeeRateBps     uint32          `json:"fee_rate_bps"`
	TotalCampaigns uint64          `json:"total_campaigns"`
	TotalRaised    uint64          `json:"total_raised"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewPlatform constructs the singleton record at initialization time.
func NewPlatform(admin domain.Identity, now time.Time) *Platform {
	return &Platform{
		Admin:      admin,
		FeeRateBps: DefaultFeeRateBps,
		CreatedAt:  now,
	}
}

// Address returns the platform record's deterministic address.
func (p *Platform) Address() domain.Address {
	return domain.PlatformAddress()
}

// NextCampaignID is the id the next created campaign will be assigned.
func (p *Platform) NextCampaignID() domain.CampaignID {
	return domain.CampaignID(p.TotalCampaigns)
}

// SplitFee computes the settlement split for a vault balance:
// fee = balance * FeeRateBps / 10000, payout = balance - fee.
func (p *Platform) SplitFee(balance uint64) (payout, fee uint64, err error) {
	scaled, err := CheckedMul(balance, uint64(p.FeeRateBps))
	if err != nil {
		return 0, 0, err
	}
	fee = scaled / FeeScale
	return balance - fee, fee, nil
}
