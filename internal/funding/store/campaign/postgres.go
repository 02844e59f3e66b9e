package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fundmatch/internal/funding/models"
	"fundmatch/pkg/domain"
	"fundmatch/pkg/platform/sentinel"
	txcontext "fundmatch/pkg/platform/tx"
)

// Postgres persists campaign records.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const campaignColumns = `
	id, creator, goal_amount, raised_amount, matching_pool_total,
	matching_pool_remaining, matching_ratio, title, description,
	duration_seconds, created_at, end_time, is_active, is_withdrawn, total_donors
`

func (s *Postgres) Create(ctx context.Context, c *models.Campaign) error {
	query := `
		INSERT INTO campaigns (` + campaignColumns + `, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		int64(c.ID), c.Creator.String(), int64(c.GoalAmount), int64(c.RaisedAmount),
		int64(c.MatchingPoolTotal), int64(c.MatchingPoolRemaining), c.MatchingRatio,
		c.Title, c.Description, c.DurationSeconds, c.CreatedAt, c.EndTime,
		c.IsActive, c.IsWithdrawn, int64(c.TotalDonors), c.Address().String())
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, id domain.CampaignID) (*models.Campaign, error) {
	return s.get(ctx, id, false)
}

func (s *Postgres) get(ctx context.Context, id domain.CampaignID, forUpdate bool) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		c                                     models.Campaign
		cid, goal, raised, poolTotal, poolRem int64
		donors                                int64
		creator                               string
	)
	row := s.execer(ctx).QueryRowContext(ctx, query, int64(id))
	err := row.Scan(&cid, &creator, &goal, &raised, &poolTotal, &poolRem,
		&c.MatchingRatio, &c.Title, &c.Description, &c.DurationSeconds,
		&c.CreatedAt, &c.EndTime, &c.IsActive, &c.IsWithdrawn, &donors)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select campaign: %w", err)
	}
	c.ID = domain.CampaignID(cid)
	c.Creator = domain.Identity(creator)
	c.GoalAmount = uint64(goal)
	c.RaisedAmount = uint64(raised)
	c.MatchingPoolTotal = uint64(poolTotal)
	c.MatchingPoolRemaining = uint64(poolRem)
	c.TotalDonors = uint64(donors)
	return &c, nil
}

// Execute locks the campaign row (FOR UPDATE), validates, mutates, and
// writes back the mutable fields. Identity fields are never updated. The row
// lock only outlives the SELECT inside a surrounding transaction, so callers
// run Execute within the service's StoreTx boundary.
func (s *Postgres) Execute(ctx context.Context, id domain.CampaignID, validate func(*models.Campaign) error, mutate func(*models.Campaign) error) (*models.Campaign, error) {
	c, err := s.get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(c); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		if err := mutate(c); err != nil {
			return nil, err
		}
	}

	query := `
		UPDATE campaigns
		SET raised_amount = $2, matching_pool_total = $3, matching_pool_remaining = $4,
		    is_active = $5, is_withdrawn = $6, total_donors = $7
		WHERE id = $1
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query,
		int64(c.ID), int64(c.RaisedAmount), int64(c.MatchingPoolTotal),
		int64(c.MatchingPoolRemaining), c.IsActive, c.IsWithdrawn, int64(c.TotalDonors)); err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	return c, nil
}
