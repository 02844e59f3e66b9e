package models

import (
	"time"

	"fundmatch/pkg/domain"
)

// Donation is an immutable ledger entry. Created on a successful donate
// call; never mutated or deleted. The sequence index is the campaign's donor
// counter at donation time and is part of the record's address.
type Donation struct {
	CampaignID     domain.CampaignID `json:"campaign_id"`
	Donor          domain.Identity   `json:"donor"`
	SequenceIndex  uint64            `json:"sequence_index"`
	Amount         uint64            `json:"amount"`
	MatchingAmount uint64            `json:"matching_amount"`
	TotalAmount    uint64            `json:"total_amount"`
	Timestamp      time.Time         `json:"timestamp"`
}

// Address returns the donation record's deterministic address.
func (d *Donation) Address() domain.Address {
	return domain.DonationAddress(d.CampaignID, d.Donor, d.SequenceIndex)
}
