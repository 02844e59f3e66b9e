package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundmatch/internal/funding/models"
	"fundmatch/pkg/domain"
	"fundmatch/pkg/platform/sentinel"
)

func testCampaign(id domain.CampaignID) *models.Campaign {
	c, err := models.NewCampaign(
		id,
		"creator",
		models.CampaignParams{
			GoalAmount:         1_000,
			MatchingPoolTarget: 500,
			DurationSeconds:    3600,
			Title:              "t",
			Description:        "d",
			MatchingRatio:      100,
		},
		time.Now(),
	)
	if err != nil {
		panic(err)
	}
	return c
}

func TestInMemory_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	c := testCampaign(0)
	require.NoError(t, s.Create(ctx, c))

	t.Run("duplicate id conflicts", func(t *testing.T) {
		assert.ErrorIs(t, s.Create(ctx, testCampaign(0)), sentinel.ErrConflict)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := s.Get(ctx, c.ID)
		require.NoError(t, err)
		got.RaisedAmount = 999

		again, err := s.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Zero(t, again.RaisedAmount)
	})

	t.Run("missing campaign", func(t *testing.T) {
		_, err := s.Get(ctx, 42)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemory_Execute(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	require.NoError(t, s.Create(ctx, testCampaign(0)))

	t.Run("validate failure leaves record untouched", func(t *testing.T) {
		boom := errors.New("nope")
		_, err := s.Execute(ctx, 0,
			func(c *models.Campaign) error { return boom },
			func(c *models.Campaign) error { c.RaisedAmount = 123; return nil },
		)
		assert.ErrorIs(t, err, boom)

		got, err := s.Get(ctx, 0)
		require.NoError(t, err)
		assert.Zero(t, got.RaisedAmount)
	})

	t.Run("mutate failure leaves record untouched", func(t *testing.T) {
		boom := errors.New("overflow")
		_, err := s.Execute(ctx, 0, nil,
			func(c *models.Campaign) error { c.RaisedAmount = 123; return boom },
		)
		assert.ErrorIs(t, err, boom)

		got, err := s.Get(ctx, 0)
		require.NoError(t, err)
		assert.Zero(t, got.RaisedAmount)
	})

	t.Run("successful mutation persists", func(t *testing.T) {
		updated, err := s.Execute(ctx, 0, nil,
			func(c *models.Campaign) error {
				_, err := c.ApplyDonation(100, 100)
				return err
			},
		)
		require.NoError(t, err)
		assert.Equal(t, uint64(200), updated.RaisedAmount)
		assert.Equal(t, uint64(1), updated.TotalDonors)
	})
}
