package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"fundmatch/internal/funding/metrics"
	"fundmatch/internal/funding/models"
	"fundmatch/internal/platform/config"
	"fundmatch/pkg/domain"
	dErrors "fundmatch/pkg/domain-errors"
	"fundmatch/pkg/platform/audit"
	"fundmatch/pkg/platform/sentinel"
	"fundmatch/pkg/requestcontext"
)

// Service is the donation-matching escrow engine. Every operation runs inside
// a StoreTx boundary and takes its caller identity and timestamp from the
// request context, so one operation observes one instant and one principal.
//
// Guard ordering matters for the in-memory backend, which has no rollback:
// each operation performs every read and guard that can fail before its first
// write.
type Service struct {
	platforms    PlatformStore
	campaigns    CampaignStore
	donations    DonationStore
	accounts     AccountStore
	auditEmitter *auditEmitter
	metrics      *metrics.Metrics
	tx           StoreTx
	cache        CampaignCache
	policy       config.Policy
	tracer       trace.Tracer
}

// WithdrawalReceipt reports the settlement split of a withdrawal.
type WithdrawalReceipt struct {
	CampaignID domain.CampaignID `json:"campaign_id"`
	Payout     uint64            `json:"payout"`
	Fee        uint64            `json:"fee"`
}

func New(platforms PlatformStore, campaigns CampaignStore, donations DonationStore, accounts AccountStore, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	tx := cfg.tx
	if tx == nil {
		tx = newInMemoryStoreTx()
	}
	return &Service{
		platforms:    platforms,
		campaigns:    campaigns,
		donations:    donations,
		accounts:     accounts,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditor),
		metrics:      cfg.metrics,
		tx:           tx,
		cache:        cfg.cache,
		policy:       cfg.policy,
		tracer:       otel.Tracer("fundmatch/funding"),
	}
}

// InitializePlatform creates the singleton platform record with the caller as
// admin and the fixed default fee rate. Callable once globally.
func (s *Service) InitializePlatform(ctx context.Context) (*models.Platform, error) {
	ctx, span := s.tracer.Start(ctx, "funding.InitializePlatform")
	defer span.End()

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	var platform *models.Platform
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		p := models.NewPlatform(caller, requestcontext.Now(txCtx))
		if err := s.platforms.Create(txCtx, p); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeAlreadyInitialized, "Platform already initialized")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize platform")
		}
		if err := s.accounts.Ensure(txCtx, models.NewPlatformFeeAccount(caller)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create fee account")
		}
		if err := s.auditEmitter.emit(txCtx, auditEntry{action: audit.EventPlatformInitialized}); err != nil {
			return err
		}
		platform = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return platform, nil
}

// CreateCampaign validates params, assigns the next campaign id, seeds the
// vault with the creator's matching pool, and increments the platform
// counter. The creator funds the initial pool from their holding account.
func (s *Service) CreateCampaign(ctx context.Context, params models.CampaignParams) (*models.Campaign, error) {
	ctx, span := s.tracer.Start(ctx, "funding.CreateCampaign")
	defer span.End()

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	var campaign *models.Campaign
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.platforms.Get(txCtx)
		if err != nil {
			return wrapPlatformErr(err)
		}

		c, err := models.NewCampaign(p.NextCampaignID(), caller, params, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}

		// All guards that can fail are done; writes start here.
		if params.MatchingPoolTarget > 0 {
			err := s.accounts.Debit(txCtx, domain.HoldingAddress(caller), params.MatchingPoolTarget, domain.HoldingAuthority(caller))
			if err != nil {
				return wrapFundsErr(err)
			}
		}
		if err := s.accounts.Ensure(txCtx, models.NewVaultAccount(c.ID, caller)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create campaign vault")
		}
		if params.MatchingPoolTarget > 0 {
			if err := s.accounts.Credit(txCtx, c.VaultAddress(), params.MatchingPoolTarget); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to fund campaign vault")
			}
		}

		if err := s.campaigns.Create(txCtx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create campaign")
		}
		if _, err := s.platforms.Execute(txCtx, nil, func(p *models.Platform) {
			p.TotalCampaigns++
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to advance campaign counter")
		}

		if err := s.auditEmitter.emit(txCtx, auditEntry{
			action:     audit.EventCampaignCreated,
			campaignID: c.ID.String(),
			amount:     params.MatchingPoolTarget,
		}); err != nil {
			return err
		}
		campaign = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CampaignsCreated.Inc()
	}
	return campaign, nil
}

// Donate transfers amount from the donor into the campaign vault, disburses
// the matched contribution from the pool, and appends an immutable donation
// record. Reaching the goal finalizes the campaign.
func (s *Service) Donate(ctx context.Context, id domain.CampaignID, amount uint64) (*models.Donation, error) {
	ctx, span := s.tracer.Start(ctx, "funding.Donate")
	defer span.End()
	start := time.Now()

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidDonationAmount, "Invalid donation amount")
	}

	var (
		donation    *models.Donation
		matching    uint64
		goalReached bool
	)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)

		c, err := s.campaigns.Get(txCtx, id)
		if err != nil {
			return wrapCampaignErr(err)
		}
		if err := c.CanDonate(now, s.policy.EnforceExpiry); err != nil {
			return err
		}
		matching, err = c.MatchingFor(amount)
		if err != nil {
			return err
		}
		total, err := models.CheckedAdd(amount, matching)
		if err != nil {
			return err
		}
		// The donation guards and the platform running total can still fail;
		// run them against copies before moving funds.
		if _, err := (&models.Campaign{
			RaisedAmount:          c.RaisedAmount,
			MatchingPoolRemaining: c.MatchingPoolRemaining,
			TotalDonors:           c.TotalDonors,
			GoalAmount:            c.GoalAmount,
		}).ApplyDonation(amount, matching); err != nil {
			return err
		}
		p, err := s.platforms.Get(txCtx)
		if err != nil {
			return wrapPlatformErr(err)
		}
		if _, err := models.CheckedAdd(p.TotalRaised, total); err != nil {
			return err
		}

		if err := s.accounts.Debit(txCtx, domain.HoldingAddress(caller), amount, domain.HoldingAuthority(caller)); err != nil {
			return wrapFundsErr(err)
		}
		if err := s.accounts.Credit(txCtx, c.VaultAddress(), amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit campaign vault")
		}

		updated, err := s.campaigns.Execute(txCtx, id,
			func(c *models.Campaign) error {
				return c.CanDonate(now, s.policy.EnforceExpiry)
			},
			func(c *models.Campaign) error {
				reached, err := c.ApplyDonation(amount, matching)
				goalReached = reached
				return err
			},
		)
		if err != nil {
			return wrapCampaignErr(err)
		}

		d := &models.Donation{
			CampaignID:     id,
			Donor:          caller,
			SequenceIndex:  updated.TotalDonors - 1,
			Amount:         amount,
			MatchingAmount: matching,
			TotalAmount:    total,
			Timestamp:      now,
		}
		if err := s.donations.Create(txCtx, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record donation")
		}
		if _, err := s.platforms.Execute(txCtx, nil, func(p *models.Platform) {
			p.TotalRaised += total
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to advance platform total")
		}

		if err := s.auditEmitter.emit(txCtx, auditEntry{
			action:         audit.EventDonationMade,
			campaignID:     id.String(),
			amount:         amount,
			matchingAmount: matching,
		}); err != nil {
			return err
		}
		if goalReached {
			if err := s.auditEmitter.emit(txCtx, auditEntry{
				action:     audit.EventGoalReached,
				campaignID: id.String(),
				amount:     updated.RaisedAmount,
			}); err != nil {
				return err
			}
		}
		donation = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCampaign(ctx, id)
	if s.metrics != nil {
		s.metrics.DonationsAccepted.Inc()
		s.metrics.DonatedAmount.Add(float64(amount))
		s.metrics.MatchedAmount.Add(float64(matching))
		if goalReached {
			s.metrics.GoalsReached.Inc()
		}
		s.metrics.ObserveDonate(start)
	}
	return donation, nil
}

// AddMatchingFunds transfers amount from the caller into the campaign vault
// and enlarges the matching pool. Open to any funder, not just the creator.
func (s *Service) AddMatchingFunds(ctx context.Context, id domain.CampaignID, amount uint64) (*models.Campaign, error) {
	ctx, span := s.tracer.Start(ctx, "funding.AddMatchingFunds")
	defer span.End()

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "Invalid amount")
	}

	var campaign *models.Campaign
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.campaigns.Get(txCtx, id)
		if err != nil {
			return wrapCampaignErr(err)
		}
		if err := c.CanAddMatching(s.policy.MatchingWhilePaused); err != nil {
			return err
		}
		scratch := *c
		if err := scratch.ApplyMatchingFunds(amount); err != nil {
			return err
		}

		if err := s.accounts.Debit(txCtx, domain.HoldingAddress(caller), amount, domain.HoldingAuthority(caller)); err != nil {
			return wrapFundsErr(err)
		}
		if err := s.accounts.Credit(txCtx, c.VaultAddress(), amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit campaign vault")
		}

		updated, err := s.campaigns.Execute(txCtx, id,
			func(c *models.Campaign) error {
				return c.CanAddMatching(s.policy.MatchingWhilePaused)
			},
			func(c *models.Campaign) error {
				return c.ApplyMatchingFunds(amount)
			},
		)
		if err != nil {
			return wrapCampaignErr(err)
		}

		if err := s.auditEmitter.emit(txCtx, auditEntry{
			action:     audit.EventMatchingFundsAdded,
			campaignID: id.String(),
			amount:     amount,
		}); err != nil {
			return err
		}
		campaign = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCampaign(ctx, id)
	return campaign, nil
}

// WithdrawFunds settles a goal-reached campaign: drains the vault, pays the
// platform fee, and credits the remainder to the creator's holding account.
// Creator-only, once per campaign.
func (s *Service) WithdrawFunds(ctx context.Context, id domain.CampaignID) (*WithdrawalReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "funding.WithdrawFunds")
	defer span.End()
	start := time.Now()

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	var receipt *WithdrawalReceipt
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.campaigns.Get(txCtx, id)
		if err != nil {
			return wrapCampaignErr(err)
		}
		if err := c.CanWithdraw(caller); err != nil {
			return err
		}
		p, err := s.platforms.Get(txCtx)
		if err != nil {
			return wrapPlatformErr(err)
		}
		vault, err := s.accounts.Get(txCtx, c.VaultAddress())
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "campaign vault missing")
		}
		payout, fee, err := p.SplitFee(vault.Balance)
		if err != nil {
			return err
		}

		// The vault drains with its own capability, never the caller's.
		if vault.Balance > 0 {
			if err := s.accounts.Debit(txCtx, c.VaultAddress(), vault.Balance, domain.VaultAuthority(c.ID)); err != nil {
				return wrapFundsErr(err)
			}
		}
		if err := s.accounts.Ensure(txCtx, models.NewHoldingAccount(c.Creator)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create creator account")
		}
		if payout > 0 {
			if err := s.accounts.Credit(txCtx, domain.HoldingAddress(c.Creator), payout); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit creator")
			}
		}
		if fee > 0 {
			if err := s.accounts.Ensure(txCtx, models.NewPlatformFeeAccount(p.Admin)); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create fee account")
			}
			if err := s.accounts.Credit(txCtx, domain.PlatformFeeAddress(), fee); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit fee account")
			}
		}

		if _, err := s.campaigns.Execute(txCtx, id,
			func(c *models.Campaign) error { return c.CanWithdraw(caller) },
			func(c *models.Campaign) error { c.ApplyWithdrawal(); return nil },
		); err != nil {
			return wrapCampaignErr(err)
		}

		if err := s.auditEmitter.emit(txCtx, auditEntry{
			action:     audit.EventFundsWithdrawn,
			campaignID: id.String(),
			amount:     payout,
			fee:        fee,
		}); err != nil {
			return err
		}
		receipt = &WithdrawalReceipt{CampaignID: id, Payout: payout, Fee: fee}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCampaign(ctx, id)
	if s.metrics != nil {
		s.metrics.Withdrawals.Inc()
		s.metrics.ObserveWithdraw(start)
	}
	return receipt, nil
}

// PauseCampaign deactivates a campaign. Admin-only and idempotent: pausing an
// already-paused campaign is a no-op success.
func (s *Service) PauseCampaign(ctx context.Context, id domain.CampaignID) (*models.Campaign, error) {
	ctx, span := s.tracer.Start(ctx, "funding.PauseCampaign")
	defer span.End()

	var campaign *models.Campaign
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requireAdmin(txCtx); err != nil {
			return err
		}

		changed := false
		updated, err := s.campaigns.Execute(txCtx, id, nil,
			func(c *models.Campaign) error {
				changed = c.ApplyPause()
				return nil
			},
		)
		if err != nil {
			return wrapCampaignErr(err)
		}

		if changed {
			if err := s.auditEmitter.emit(txCtx, auditEntry{
				action:     audit.EventCampaignPaused,
				campaignID: id.String(),
			}); err != nil {
				return err
			}
		}
		campaign = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCampaign(ctx, id)
	return campaign, nil
}

// ResumeCampaign reactivates a paused campaign. Admin-only; settled and
// goal-reached campaigns stay finalized.
func (s *Service) ResumeCampaign(ctx context.Context, id domain.CampaignID) (*models.Campaign, error) {
	ctx, span := s.tracer.Start(ctx, "funding.ResumeCampaign")
	defer span.End()

	var campaign *models.Campaign
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requireAdmin(txCtx); err != nil {
			return err
		}

		changed := false
		updated, err := s.campaigns.Execute(txCtx, id,
			func(c *models.Campaign) error { return c.CanResume() },
			func(c *models.Campaign) error {
				changed = c.ApplyResume()
				return nil
			},
		)
		if err != nil {
			return wrapCampaignErr(err)
		}

		if changed {
			if err := s.auditEmitter.emit(txCtx, auditEntry{
				action:     audit.EventCampaignResumed,
				campaignID: id.String(),
			}); err != nil {
				return err
			}
		}
		campaign = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCampaign(ctx, id)
	return campaign, nil
}

// GetCampaign returns a campaign, serving from the cache when wired.
func (s *Service) GetCampaign(ctx context.Context, id domain.CampaignID) (*models.Campaign, error) {
	if s.cache != nil {
		if c, ok := s.cache.Get(ctx, id); ok {
			if s.metrics != nil {
				s.metrics.CampaignCacheHits.Inc()
			}
			return c, nil
		}
	}
	c, err := s.campaigns.Get(ctx, id)
	if err != nil {
		return nil, wrapCampaignErr(err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, c)
	}
	return c, nil
}

// GetPlatform returns the singleton platform record.
func (s *Service) GetPlatform(ctx context.Context) (*models.Platform, error) {
	p, err := s.platforms.Get(ctx)
	if err != nil {
		return nil, wrapPlatformErr(err)
	}
	return p, nil
}

// ListDonations returns a campaign's donation ledger in sequence order.
func (s *Service) ListDonations(ctx context.Context, id domain.CampaignID) ([]*models.Donation, error) {
	if _, err := s.campaigns.Get(ctx, id); err != nil {
		return nil, wrapCampaignErr(err)
	}
	list, err := s.donations.ListByCampaign(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}
	return list, nil
}

func (s *Service) requireAdmin(ctx context.Context) error {
	caller, err := requireCaller(ctx)
	if err != nil {
		return err
	}
	p, err := s.platforms.Get(ctx)
	if err != nil {
		return wrapPlatformErr(err)
	}
	if caller != p.Admin {
		return dErrors.New(dErrors.CodeUnauthorized, "Unauthorized")
	}
	return nil
}

func (s *Service) invalidateCampaign(ctx context.Context, id domain.CampaignID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func requireCaller(ctx context.Context) (domain.Identity, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	return caller, nil
}

func wrapPlatformErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "platform not initialized")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load platform")
}

func wrapCampaignErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "campaign not found")
	}
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "campaign store failure")
}

// wrapFundsErr translates custody-ledger sentinels into the engine's error
// taxonomy. A missing holding account reads as insufficient funds: the payer
// simply has nothing custodied.
func wrapFundsErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrInsufficientFunds), errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeInsufficientFunds, "Insufficient funds")
	case errors.Is(err, sentinel.ErrForbidden):
		return dErrors.New(dErrors.CodeUnauthorized, "Unauthorized")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "transfer failed")
	}
}
