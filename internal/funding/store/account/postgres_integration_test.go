//go:build integration

package account_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"fundmatch/internal/funding/models"
	"fundmatch/internal/funding/store/account"
	"fundmatch/pkg/domain"
	"fundmatch/pkg/platform/sentinel"
	"fundmatch/pkg/testutil/containers"
)

type AccountPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *account.Postgres
}

func TestAccountPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AccountPostgresSuite))
}

func (s *AccountPostgresSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = account.NewPostgres(s.postgres.DB)
}

func (s *AccountPostgresSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func (s *AccountPostgresSuite) TestEnsureCreditDebit() {
	ctx := context.Background()
	holding := models.NewHoldingAccount("alice")

	s.Require().NoError(s.store.Ensure(ctx, holding))
	s.Require().NoError(s.store.Ensure(ctx, holding), "ensure is idempotent")
	s.Require().NoError(s.store.Credit(ctx, holding.Address, 1_000))

	s.Run("debit with the owner capability", func() {
		err := s.store.Debit(ctx, holding.Address, 400, domain.HoldingAuthority("alice"))
		s.Require().NoError(err)

		got, err := s.store.Get(ctx, holding.Address)
		s.Require().NoError(err)
		s.Equal(uint64(600), got.Balance)
	})

	s.Run("debit with a foreign capability", func() {
		err := s.store.Debit(ctx, holding.Address, 100, domain.HoldingAuthority("mallory"))
		s.ErrorIs(err, sentinel.ErrForbidden)
	})

	s.Run("debit beyond the balance", func() {
		err := s.store.Debit(ctx, holding.Address, 601, domain.HoldingAuthority("alice"))
		s.ErrorIs(err, sentinel.ErrInsufficientFunds)
	})

	s.Run("credit to an unknown account", func() {
		err := s.store.Credit(ctx, domain.HoldingAddress("nobody"), 1)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentDebits verifies the guarded update never lets the balance go
// negative under contention.
func (s *AccountPostgresSuite) TestConcurrentDebits() {
	ctx := context.Background()
	vault := models.NewVaultAccount(1, "creator")
	s.Require().NoError(s.store.Ensure(ctx, vault))
	s.Require().NoError(s.store.Credit(ctx, vault.Address, 10))

	const goroutines = 50
	var wg sync.WaitGroup
	var successCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Debit(ctx, vault.Address, 1, domain.VaultAuthority(1))
			if err == nil {
				successCount.Add(1)
			} else if !errors.Is(err, sentinel.ErrInsufficientFunds) {
				s.T().Errorf("unexpected debit error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(10), successCount.Load(), "only the funded amount can leave")

	got, err := s.store.Get(ctx, vault.Address)
	s.Require().NoError(err)
	s.Zero(got.Balance)
}
