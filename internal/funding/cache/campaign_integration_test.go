//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundmatch/internal/funding/cache"
	"fundmatch/internal/funding/models"
	"fundmatch/pkg/testutil/containers"
)

func newCampaign(t *testing.T) *models.Campaign {
	t.Helper()
	c, err := models.NewCampaign(7, "creator", models.CampaignParams{
		GoalAmount:         1_000_000,
		MatchingPoolTarget: 500_000,
		DurationSeconds:    3600,
		Title:              "cache me",
		MatchingRatio:      100,
	}, time.Now().UTC().Truncate(time.Second))
	require.NoError(t, err)
	return c
}

func TestCampaignCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(ctx))

	c := cache.NewCampaignCache(rc.Client, time.Minute, nil)
	campaign := newCampaign(t)

	t.Run("miss on empty cache", func(t *testing.T) {
		_, ok := c.Get(ctx, campaign.ID)
		assert.False(t, ok)
	})

	t.Run("set then get round trips", func(t *testing.T) {
		c.Set(ctx, campaign)

		got, ok := c.Get(ctx, campaign.ID)
		require.True(t, ok)
		assert.Equal(t, campaign.ID, got.ID)
		assert.Equal(t, campaign.GoalAmount, got.GoalAmount)
		assert.Equal(t, campaign.Title, got.Title)
		assert.True(t, got.EndTime.Equal(campaign.EndTime))
	})

	t.Run("invalidate removes the entry", func(t *testing.T) {
		c.Invalidate(ctx, campaign.ID)
		_, ok := c.Get(ctx, campaign.ID)
		assert.False(t, ok)
	})

	t.Run("entries expire with the ttl", func(t *testing.T) {
		short := cache.NewCampaignCache(rc.Client, 50*time.Millisecond, nil)
		short.Set(ctx, campaign)

		_, ok := short.Get(ctx, campaign.ID)
		require.True(t, ok)

		time.Sleep(100 * time.Millisecond)
		_, ok = short.Get(ctx, campaign.ID)
		assert.False(t, ok)
	})

	t.Run("malformed entries are dropped", func(t *testing.T) {
		require.NoError(t, rc.Client.Set(ctx, "fundmatch:campaign:7", "not json", time.Minute).Err())
		_, ok := c.Get(ctx, campaign.ID)
		assert.False(t, ok)

		exists, err := rc.Client.Exists(ctx, "fundmatch:campaign:7").Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})
}
