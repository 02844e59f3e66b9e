// Package cache provides a Redis read-through cache for campaign lookups.
// The engine's write paths invalidate; reads fill. Cache failures degrade to
// store reads, never to errors.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"fundmatch/internal/funding/models"
	"fundmatch/pkg/domain"
)

type CampaignCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCampaignCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *CampaignCache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CampaignCache{client: client, ttl: ttl, logger: logger}
}

func key(id domain.CampaignID) string {
	return "fundmatch:campaign:" + id.String()
}

func (c *CampaignCache) Get(ctx context.Context, id domain.CampaignID) (*models.Campaign, bool) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "campaign cache read failed", "error", err, "campaign_id", id.String())
		}
		return nil, false
	}

	var campaign models.Campaign
	if err := json.Unmarshal(data, &campaign); err != nil {
		// A malformed entry is stale garbage; drop it.
		c.client.Del(ctx, key(id))
		return nil, false
	}
	return &campaign, true
}

func (c *CampaignCache) Set(ctx context.Context, campaign *models.Campaign) {
	data, err := json.Marshal(campaign)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(campaign.ID), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "campaign cache write failed", "error", err, "campaign_id", campaign.ID.String())
	}
}

func (c *CampaignCache) Invalidate(ctx context.Context, id domain.CampaignID) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.logger.WarnContext(ctx, "campaign cache invalidation failed", "error", err, "campaign_id", id.String())
	}
}
