//go:build integration

package service_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"fundmatch/internal/funding/models"
	"fundmatch/internal/funding/service"
	"fundmatch/internal/funding/store"
	accountstore "fundmatch/internal/funding/store/account"
	campaignstore "fundmatch/internal/funding/store/campaign"
	donationstore "fundmatch/internal/funding/store/donation"
	platformstore "fundmatch/internal/funding/store/platform"
	"fundmatch/internal/platform/config"
	"fundmatch/pkg/domain"
	dErrors "fundmatch/pkg/domain-errors"
	"fundmatch/pkg/platform/audit"
	auditpg "fundmatch/pkg/platform/audit/store/postgres"
	"fundmatch/pkg/requestcontext"
	"fundmatch/pkg/testutil/containers"
)

// EngineSuite drives the full engine against Postgres: real transactions,
// the transactional outbox, and the custody ledger in one database.
type EngineSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	accounts *accountstore.Postgres
	outbox   *auditpg.Store
	service  *service.Service
}

func TestEngineSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	db := s.postgres.DB

	s.accounts = accountstore.NewPostgres(db)
	s.outbox = auditpg.New(db)
	s.service = service.New(
		platformstore.NewPostgres(db),
		campaignstore.NewPostgres(db),
		donationstore.NewPostgres(db),
		s.accounts,
		service.WithLogger(slog.New(slog.DiscardHandler)),
		service.WithAudit(s.outbox),
		service.WithTx(store.NewSQLTx(db)),
		service.WithPolicy(config.Policy{MatchingWhilePaused: true}),
	)
}

func (s *EngineSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.Truncate(ctx))
	s.Require().NoError(store.SeedHoldingAccounts(ctx, s.accounts, 1_000_000_000,
		"admin", "creator", "donor"))
}

func ctxAs(caller domain.Identity) context.Context {
	return requestcontext.WithCaller(context.Background(), caller)
}

func (s *EngineSuite) TestFullLifecycle() {
	ctx := context.Background()

	_, err := s.service.InitializePlatform(ctxAs("admin"))
	s.Require().NoError(err)

	c, err := s.service.CreateCampaign(ctxAs("creator"), models.CampaignParams{
		GoalAmount:         500_000_000,
		MatchingPoolTarget: 200_000_000,
		DurationSeconds:    3600,
		Title:              "Clean water",
		MatchingRatio:      100,
	})
	s.Require().NoError(err)

	_, err = s.service.Donate(ctxAs("donor"), c.ID, 250_000_000)
	s.Require().NoError(err)
	_, err = s.service.Donate(ctxAs("donor"), c.ID, 50_000_000)
	s.Require().NoError(err)

	got, err := s.service.GetCampaign(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(uint64(500_000_000), got.RaisedAmount)
	s.False(got.IsActive, "goal reached finalizes")

	receipt, err := s.service.WithdrawFunds(ctxAs("creator"), c.ID)
	s.Require().NoError(err)
	s.Equal(uint64(12_500_000), receipt.Fee)
	s.Equal(uint64(487_500_000), receipt.Payout)

	s.Run("custody sums to the seeded total", func() {
		var total uint64
		for _, owner := range []domain.Identity{"admin", "creator", "donor"} {
			a, err := s.accounts.Get(ctx, domain.HoldingAddress(owner))
			s.Require().NoError(err)
			total += a.Balance
		}
		fee, err := s.accounts.Get(ctx, domain.PlatformFeeAddress())
		s.Require().NoError(err)
		total += fee.Balance
		vault, err := s.accounts.Get(ctx, domain.VaultAddress(c.ID))
		s.Require().NoError(err)
		total += vault.Balance

		s.Equal(uint64(3_000_000_000), total, "transfers conserve funds")
	})

	s.Run("outbox holds the audit trail", func() {
		pending, err := s.outbox.FetchPending(ctx, 100)
		s.Require().NoError(err)

		var actions []string
		for _, e := range pending {
			actions = append(actions, e.Event.Action)
		}
		s.Equal([]string{
			string(audit.EventPlatformInitialized),
			string(audit.EventCampaignCreated),
			string(audit.EventDonationMade),
			string(audit.EventDonationMade),
			string(audit.EventGoalReached),
			string(audit.EventFundsWithdrawn),
		}, actions)
	})
}

// TestFailedOperationRollsBack verifies the transaction boundary: a rejected
// donation leaves no trace in any table, including the outbox.
func (s *EngineSuite) TestFailedOperationRollsBack() {
	ctx := context.Background()

	_, err := s.service.InitializePlatform(ctxAs("admin"))
	s.Require().NoError(err)
	c, err := s.service.CreateCampaign(ctxAs("creator"), models.CampaignParams{
		GoalAmount: 1_000, DurationSeconds: 3600, MatchingRatio: 100,
	})
	s.Require().NoError(err)

	before, err := s.outbox.FetchPending(ctx, 100)
	s.Require().NoError(err)

	_, err = s.service.Donate(ctxAs("donor"), c.ID, 2_000_000_000)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

	after, err := s.outbox.FetchPending(ctx, 100)
	s.Require().NoError(err)
	s.Len(after, len(before), "failed operations emit no audit events")

	donorHolding, err := s.accounts.Get(ctx, domain.HoldingAddress("donor"))
	s.Require().NoError(err)
	s.Equal(uint64(1_000_000_000), donorHolding.Balance)

	got, err := s.service.GetCampaign(ctx, c.ID)
	s.Require().NoError(err)
	s.Zero(got.RaisedAmount)
	s.Zero(got.TotalDonors)
}
