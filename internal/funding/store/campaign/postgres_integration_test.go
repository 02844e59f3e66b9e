//go:build integration

package campaign_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fundmatch/internal/funding/models"
	"fundmatch/internal/funding/store"
	"fundmatch/internal/funding/store/campaign"
	"fundmatch/pkg/domain"
	"fundmatch/pkg/platform/sentinel"
	"fundmatch/pkg/testutil/containers"
)

type CampaignPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *campaign.Postgres
}

func TestCampaignPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CampaignPostgresSuite))
}

func (s *CampaignPostgresSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = campaign.NewPostgres(s.postgres.DB)
}

func (s *CampaignPostgresSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func (s *CampaignPostgresSuite) newCampaign(id domain.CampaignID) *models.Campaign {
	c, err := models.NewCampaign(id, "creator", models.CampaignParams{
		GoalAmount:         1_000_000,
		MatchingPoolTarget: 500_000,
		DurationSeconds:    3600,
		Title:              "t",
		Description:        "d",
		MatchingRatio:      100,
	}, time.Now().UTC())
	s.Require().NoError(err)
	return c
}

func (s *CampaignPostgresSuite) TestCreateGetRoundTrip() {
	ctx := context.Background()
	c := s.newCampaign(0)
	s.Require().NoError(s.store.Create(ctx, c))

	s.Run("duplicate id conflicts", func() {
		s.ErrorIs(s.store.Create(ctx, s.newCampaign(0)), sentinel.ErrConflict)
	})

	s.Run("round trip preserves every field", func() {
		got, err := s.store.Get(ctx, 0)
		s.Require().NoError(err)
		s.Equal(c.Creator, got.Creator)
		s.Equal(c.GoalAmount, got.GoalAmount)
		s.Equal(c.MatchingPoolTotal, got.MatchingPoolTotal)
		s.Equal(c.MatchingRatio, got.MatchingRatio)
		s.Equal(c.Title, got.Title)
		s.WithinDuration(c.EndTime, got.EndTime, time.Microsecond)
		s.True(got.IsActive)
	})

	s.Run("missing campaign", func() {
		_, err := s.store.Get(ctx, 42)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentExecute verifies FOR UPDATE serializes mutations when Execute
// runs inside the transactional boundary: concurrent donations observe
// strictly increasing donor counters and lose no updates.
func (s *CampaignPostgresSuite) TestConcurrentExecute() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newCampaign(0)))
	tx := store.NewSQLTx(s.postgres.DB)

	const donations = 30
	var wg sync.WaitGroup
	for i := 0; i < donations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tx.RunInTx(ctx, func(txCtx context.Context) error {
				_, err := s.store.Execute(txCtx, 0, nil, func(c *models.Campaign) error {
					_, err := c.ApplyDonation(1_000, 1_000)
					return err
				})
				return err
			})
			if err != nil {
				s.T().Errorf("execute failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.store.Get(ctx, 0)
	s.Require().NoError(err)
	s.Equal(uint64(donations), got.TotalDonors)
	s.Equal(uint64(donations*2_000), got.RaisedAmount)
	s.Equal(uint64(500_000-donations*1_000), got.MatchingPoolRemaining)
}
