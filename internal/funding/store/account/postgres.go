package account

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

// Postgres persists custodied balances.
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

func (s *Postgres) Ensure(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (address, owner, authority, balance)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		a.Address.String(), a.Owner.String(), a.Authority.String(), int64(a.Balance))
	if err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, addr domain.Address) (*models.Account, error) {
	query := `SELECT owner, authority, balance FROM accounts WHERE address = $1`

	var (
		owner, authority string
		balance          int64
	)
	row := s.execer(ctx).QueryRowContext(ctx, query, addr.String())
	if err := row.Scan(&owner, &authority, &balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select account: %w", err)
	}

	a := &models.Account{Address: addr, Owner: domain.Identity(owner), Balance: uint64(balance)}
	auth, err := domain.ParseAddress(authority)
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	a.Authority = auth
	return a, nil
}

// Credit adds to an account's balance.
func (s *Postgres) Credit(ctx context.Context, addr domain.Address, amount uint64) error {
	query := `UPDATE accounts SET balance = balance + $2 WHERE address = $1`
	res, err := s.execer(ctx).ExecContext(ctx, query, addr.String(), int64(amount))
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Debit removes from an account's balance, checking the presented authority
// capability and the balance in one guarded update. The balance CHECK
// constraint backstops underflow.
func (s *Postgres) Debit(ctx context.Context, addr domain.Address, amount uint64, authority domain.Address) error {
	a, err := s.Get(ctx, addr)
	if err != nil {
		return err
	}
	if a.Authority != authority {
		return sentinel.ErrForbidden
	}
	if a.Balance < amount {
		return sentinel.ErrInsufficientFunds
	}

	query := `
		UPDATE accounts SET balance = balance - $2
		WHERE address = $1 AND authority = $3 AND balance >= $2
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, addr.String(), int64(amount), authority.String())
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInsufficientFunds
	}
	return nil
}
