package donation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"fundmatch/internal/funding/models"
	"fundmatch/pkg/domain"
	"fundmatch/pkg/platform/sentinel"
	txcontext "fundmatch/pkg/platform/tx"
)

// Postgres persists the donation ledger. Rows are insert-only.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, d *models.Donation) error {
	query := `
		INSERT INTO donations (address, campaign_id, donor, sequence_index, amount, matching_amount, total_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		d.Address().String(), int64(d.CampaignID), d.Donor.String(), int64(d.SequenceIndex),
		int64(d.Amount), int64(d.MatchingAmount), int64(d.TotalAmount), d.Timestamp)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, addr domain.Address) (*models.Donation, error) {
	query := `
		SELECT campaign_id, donor, sequence_index, amount, matching_amount, total_amount, created_at
		FROM donations WHERE address = $1
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, addr.String())
	d, err := scanDonation(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select donation: %w", err)
	}
	return d, nil
}

// ListByCampaign returns a campaign's donations in sequence order.
func (s *Postgres) ListByCampaign(ctx context.Context, id domain.CampaignID) ([]*models.Donation, error) {
	query := `
		SELECT campaign_id, donor, sequence_index, amount, matching_amount, total_amount, created_at
		FROM donations WHERE campaign_id = $1
		ORDER BY sequence_index
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, int64(id))
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var out []*models.Donation
	for rows.Next() {
		d, err := scanDonation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDonation(scan func(dest ...any) error) (*models.Donation, error) {
	var (
		d                         models.Donation
		cid, seq, amount, matched int64
		total                     int64
		donor                     string
	)
	if err := scan(&cid, &donor, &seq, &amount, &matched, &total, &d.Timestamp); err != nil {
		return nil, err
	}
	d.CampaignID = domain.CampaignID(cid)
	d.Donor = domain.Identity(donor)
	d.SequenceIndex = uint64(seq)
	d.Amount = uint64(amount)
	d.MatchingAmount = uint64(matched)
	d.TotalAmount = uint64(total)
	return &d, nil
}
