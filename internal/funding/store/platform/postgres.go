package platform

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

// Postgres persists the singleton platform record.
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

func (s *Postgres) Create(ctx context.Context, p *models.Platform) error {
	query := `
		INSERT INTO platform (address, admin_identity, fee_rate_bps, total_campaigns, total_raised, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (address) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		p.Address().String(), p.Admin.String(), p.FeeRateBps, int64(p.TotalCampaigns), int64(p.TotalRaised), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert platform: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert platform: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context) (*models.Platform, error) {
	return s.get(ctx, false)
}

func (s *Postgres) get(ctx context.Context, forUpdate bool) (*models.Platform, error) {
	query := `
		SELECT admin_identity, fee_rate_bps, total_campaigns, total_raised, created_at
		FROM platform WHERE address = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		p              models.Platform
		admin          string
		campaigns, raised int64
	)
	row := s.execer(ctx).QueryRowContext(ctx, query, domain.PlatformAddress().String())
	if err := row.Scan(&admin, &p.FeeRateBps, &campaigns, &raised, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select platform: %w", err)
	}
	p.Admin = domain.Identity(admin)
	p.TotalCampaigns = uint64(campaigns)
	p.TotalRaised = uint64(raised)
	return &p, nil
}

// Execute locks the platform row, validates, mutates, and writes back the
// counters. Admin and fee rate are immutable and never updated.
func (s *Postgres) Execute(ctx context.Context, validate func(*models.Platform) error, mutate func(*models.Platform)) (*models.Platform, error) {
	p, err := s.get(ctx, true)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(p); err != nil {
			return nil, err
		}
	}
	mutate(p)

	query := `UPDATE platform SET total_campaigns = $2, total_raised = $3 WHERE address = $1`
	if _, err := s.execer(ctx).ExecContext(ctx, query,
		domain.PlatformAddress().String(), int64(p.TotalCampaigns), int64(p.TotalRaised)); err != nil {
		return nil, fmt.Errorf("update platform: %w", err)
	}
	return p, nil
}
