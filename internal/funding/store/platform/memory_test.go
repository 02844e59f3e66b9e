package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundmatch/internal/funding/models"
	"fundmatch/pkg/platform/sentinel"
)

func TestInMemory_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	t.Run("get before create", func(t *testing.T) {
		_, err := s.Get(ctx)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	p := models.NewPlatform("admin", time.Now())
	require.NoError(t, s.Create(ctx, p))

	t.Run("second create conflicts", func(t *testing.T) {
		assert.ErrorIs(t, s.Create(ctx, models.NewPlatform("other", time.Now())), sentinel.ErrConflict)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := s.Get(ctx)
		require.NoError(t, err)
		got.TotalCampaigns = 99

		again, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Zero(t, again.TotalCampaigns)
	})
}

func TestInMemory_Execute(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	require.NoError(t, s.Create(ctx, models.NewPlatform("admin", time.Now())))

	t.Run("validate failure leaves counters untouched", func(t *testing.T) {
		boom := errors.New("nope")
		_, err := s.Execute(ctx,
			func(p *models.Platform) error { return boom },
			func(p *models.Platform) { p.TotalCampaigns++ },
		)
		assert.ErrorIs(t, err, boom)

		got, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Zero(t, got.TotalCampaigns)
	})

	t.Run("mutation persists", func(t *testing.T) {
		updated, err := s.Execute(ctx, nil, func(p *models.Platform) {
			p.TotalCampaigns++
			p.TotalRaised += 500
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), updated.TotalCampaigns)
		assert.Equal(t, uint64(500), updated.TotalRaised)
	})
}
