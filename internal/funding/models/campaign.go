package models

import (
	"time"

	"fundmatch/pkg/domain"
	dErrors "fundmatch/pkg/domain-errors"
)

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500

	// MatchingRatioScale fixes the ratio convention: the ratio is a percent
	// of the donation, so matching = amount * ratio / 100 and ratio 100 is a
	// 1:1 match. This is the convention the original engine's tests exercise;
	// the platform fee stays in true basis points over 10000.
	MatchingRatioScale uint64 = 100

	MinMatchingRatio uint32 = 1
	MaxMatchingRatio uint32 = 200
)

// Campaign is a fundraising campaign with per-campaign escrow.
//
// Invariants:
//   - RaisedAmount == sum(amount + matchingAmount) over its donations
//   - MatchingPoolRemaining == MatchingPoolTotal - sum(matchingAmount disbursed)
//   - TotalDonors == count of donation records == next sequence index
//   - no donation is accepted while !IsActive or after withdrawal
//   - a campaign is finalized (IsActive=false) the moment RaisedAmount
//     reaches GoalAmount
type Campaign struct {
	ID                    domain.CampaignID `json:"id"`
	Creator               domain.Identity   `json:"creator"`
	GoalAmount            uint64            `json:"goal_amount"`
	RaisedAmount          uint64            `json:"raised_amount"`
	MatchingPoolTotal     uint64            `json:"matching_pool_total"`
	MatchingPoolRemaining uint64            `json:"matching_pool_remaining"`
	MatchingRatio         uint32            `json:"matching_ratio"`
	Title                 string            `json:"title"`
	Description           string            `json:"description"`
	DurationSeconds       int64             `json:"duration_seconds"`
	CreatedAt             time.Time         `json:"created_at"`
	EndTime               time.Time         `json:"end_time"`
	IsActive              bool              `json:"is_active"`
	IsWithdrawn           bool              `json:"is_withdrawn"`
	TotalDonors           uint64            `json:"total_donors"`
}

// CampaignParams are the caller-supplied fields of createCampaign.
type CampaignParams struct {
	GoalAmount         uint64
	MatchingPoolTarget uint64
	DurationSeconds    int64
	Title              string
	Description        string
	MatchingRatio      uint32
}

// NewCampaign validates params and constructs a campaign in its initial
// state. The id is the platform's campaign counter at creation time.
func NewCampaign(id domain.CampaignID, creator domain.Identity, p CampaignParams, now time.Time) (*Campaign, error) {
	if p.GoalAmount == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidGoal, "Invalid goal amount")
	}
	if p.MatchingRatio < MinMatchingRatio || p.MatchingRatio > MaxMatchingRatio {
		return nil, dErrors.New(dErrors.CodeInvalidMatchingRatio, "Invalid matching ratio")
	}
	if p.DurationSeconds <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidDuration, "Invalid duration")
	}
	if len(p.Title) > MaxTitleLen {
		return nil, dErrors.New(dErrors.CodeTitleTooLong, "Title too long")
	}
	if len(p.Description) > MaxDescriptionLen {
		return nil, dErrors.New(dErrors.CodeDescriptionTooLong, "Description too long")
	}

	return &Campaign{
		ID:                    id,
		Creator:               creator,
		GoalAmount:            p.GoalAmount,
		MatchingPoolTotal:     p.MatchingPoolTarget,
		MatchingPoolRemaining: p.MatchingPoolTarget,
		MatchingRatio:         p.MatchingRatio,
		Title:                 p.Title,
		Description:           p.Description,
		DurationSeconds:       p.DurationSeconds,
		CreatedAt:             now,
		EndTime:               now.Add(time.Duration(p.DurationSeconds) * time.Second),
		IsActive:              true,
	}, nil
}

// Address returns the campaign record's deterministic address.
func (c *Campaign) Address() domain.Address {
	return domain.CampaignAddress(c.ID)
}

// VaultAddress returns the campaign's escrow account address.
func (c *Campaign) VaultAddress() domain.Address {
	return domain.VaultAddress(c.ID)
}

// Expired reports whether the campaign's recorded duration has elapsed.
func (c *Campaign) Expired(now time.Time) bool {
	return now.After(c.EndTime)
}

// CanDonate checks the donation guards. Expiry is only enforced when the
// deployment opts in; the observed engine recorded duration without acting
// on it.
func (c *Campaign) CanDonate(now time.Time, enforceExpiry bool) error {
	if c.IsWithdrawn || !c.IsActive {
		return dErrors.New(dErrors.CodeCampaignInactive, "Campaign is inactive")
	}
	if enforceExpiry && c.Expired(now) {
		return dErrors.New(dErrors.CodeCampaignExpired, "Campaign has expired")
	}
	return nil
}

// MatchingFor computes the matched contribution for a donation:
// min(amount * ratio / scale, remaining pool). Never exceeds the unspent
// pool, so the vault always covers the amounts counted toward RaisedAmount.
func (c *Campaign) MatchingFor(amount uint64) (uint64, error) {
	scaled, err := CheckedMul(amount, uint64(c.MatchingRatio))
	if err != nil {
		return 0, err
	}
	theoretical := scaled / MatchingRatioScale
	return min(theoretical, c.MatchingPoolRemaining), nil
}

// ApplyDonation advances the running totals for an accepted donation and
// finalizes the campaign if the goal is reached. Callers validate with
// CanDonate and compute matching with MatchingFor first.
func (c *Campaign) ApplyDonation(amount, matching uint64) (goalReached bool, err error) {
	total, err := CheckedAdd(amount, matching)
	if err != nil {
		return false, err
	}
	raised, err := CheckedAdd(c.RaisedAmount, total)
	if err != nil {
		return false, err
	}
	remaining, err := CheckedSub(c.MatchingPoolRemaining, matching)
	if err != nil {
		return false, err
	}
	donors, err := CheckedAdd(c.TotalDonors, 1)
	if err != nil {
		return false, err
	}

	c.RaisedAmount = raised
	c.MatchingPoolRemaining = remaining
	c.TotalDonors = donors
	if c.RaisedAmount >= c.GoalAmount {
		c.IsActive = false
		return true, nil
	}
	return false, nil
}

// CanAddMatching checks the matching-fund deposit guards.
func (c *Campaign) CanAddMatching(allowWhilePaused bool) error {
	if c.IsWithdrawn {
		return dErrors.New(dErrors.CodeCampaignInactive, "Campaign is inactive")
	}
	if !c.IsActive && !allowWhilePaused {
		return dErrors.New(dErrors.CodeCampaignInactive, "Campaign is inactive")
	}
	return nil
}

// ApplyMatchingFunds enlarges the matching pool.
func (c *Campaign) ApplyMatchingFunds(amount uint64) error {
	total, err := CheckedAdd(c.MatchingPoolTotal, amount)
	if err != nil {
		return err
	}
	remaining, err := CheckedAdd(c.MatchingPoolRemaining, amount)
	if err != nil {
		return err
	}
	c.MatchingPoolTotal = total
	c.MatchingPoolRemaining = remaining
	return nil
}

// CanWithdraw checks the settlement guards for the given caller.
func (c *Campaign) CanWithdraw(caller domain.Identity) error {
	if caller != c.Creator {
		return dErrors.New(dErrors.CodeUnauthorized, "Unauthorized withdrawal")
	}
	if c.IsWithdrawn {
		return dErrors.New(dErrors.CodeAlreadyWithdrawn, "Already withdrawn")
	}
	if c.RaisedAmount < c.GoalAmount {
		return dErrors.New(dErrors.CodeGoalNotReached, "Goal not reached")
	}
	return nil
}

// ApplyWithdrawal marks the campaign settled.
func (c *Campaign) ApplyWithdrawal() {
	c.IsWithdrawn = true
}

// ApplyPause deactivates the campaign. Pausing an already-paused campaign is
// a no-op; returns whether the flag changed.
func (c *Campaign) ApplyPause() bool {
	if !c.IsActive {
		return false
	}
	c.IsActive = false
	return true
}

// CanResume checks whether a paused campaign may be reactivated. Settled and
// goal-reached campaigns stay finalized.
func (c *Campaign) CanResume() error {
	if c.IsWithdrawn {
		return dErrors.New(dErrors.CodeAlreadyWithdrawn, "Already withdrawn")
	}
	if c.RaisedAmount >= c.GoalAmount {
		return dErrors.New(dErrors.CodeConflict, "campaign is finalized")
	}
	return nil
}

// ApplyResume reactivates the campaign; returns whether the flag changed.
func (c *Campaign) ApplyResume() bool {
	if c.IsActive {
		return false
	}
	c.IsActive = true
	return true
}
