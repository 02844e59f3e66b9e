package handler

import "fundmatch/internal/funding/models"

// CreateCampaignRequest is the JSON body of POST /campaigns.
type CreateCampaignRequest struct {
	GoalAmount         uint64 `json:"goal_amount"`
	MatchingPoolTarget uint64 `json:"matching_pool_target"`
	DurationSeconds    int64  `json:"duration_seconds"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	MatchingRatio      uint32 `json:"matching_ratio"`
}

func (r CreateCampaignRequest) Params() models.CampaignParams {
	return models.CampaignParams{
		GoalAmount:         r.GoalAmount,
		MatchingPoolTarget: r.MatchingPoolTarget,
		DurationSeconds:    r.DurationSeconds,
		Title:              r.Title,
		Description:        r.Description,
		MatchingRatio:      r.MatchingRatio,
	}
}

// AmountRequest is the JSON body of donation and matching-fund deposits.
type AmountRequest struct {
	Amount uint64 `json:"amount"`
}
