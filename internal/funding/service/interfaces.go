package service

import (
	"context"
	"log/slog"
	"sync"

	"fundmatch/internal/funding/metrics"
	"fundmatch/internal/funding/models"
	"fundmatch/internal/platform/config"
	"fundmatch/pkg/domain"
	"fundmatch/pkg/platform/audit"
)

// PlatformStore persists the singleton platform record.
type PlatformStore interface {
	Create(ctx context.Context, p *models.Platform) error
	Get(ctx context.Context) (*models.Platform, error)
	Execute(ctx context.Context, validate func(*models.Platform) error, mutate func(*models.Platform)) (*models.Platform, error)
}

// CampaignStore persists campaign records. Execute runs validate then mutate
// under the store's lock (mutex or FOR UPDATE), the atomic
// validate-then-mutate pattern the engine's guards rely on.
type CampaignStore interface {
	Create(ctx context.Context, c *models.Campaign) error
	Get(ctx context.Context, id domain.CampaignID) (*models.Campaign, error)
	Execute(ctx context.Context, id domain.CampaignID, validate func(*models.Campaign) error, mutate func(*models.Campaign) error) (*models.Campaign, error)
}

// DonationStore persists the append-only donation ledger.
type DonationStore interface {
	Create(ctx context.Context, d *models.Donation) error
	Get(ctx context.Context, addr domain.Address) (*models.Donation, error)
	ListByCampaign(ctx context.Context, id domain.CampaignID) ([]*models.Donation, error)
}

// AccountStore is the custodial balance ledger. Debit checks the presented
// authority capability and the balance before moving funds.
type AccountStore interface {
	Ensure(ctx context.Context, a *models.Account) error
	Get(ctx context.Context, addr domain.Address) (*models.Account, error)
	Credit(ctx context.Context, addr domain.Address, amount uint64) error
	Debit(ctx context.Context, addr domain.Address, amount uint64, authority domain.Address) error
}

// StoreTx provides the transactional boundary for engine operations: every
// read and write of one operation commits or aborts as a unit.
// Implementations wrap a database transaction or, in-memory, a coarse lock.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CampaignCache is an optional read-through cache for campaign lookups.
type CampaignCache interface {
	Get(ctx context.Context, id domain.CampaignID) (*models.Campaign, bool)
	Set(ctx context.Context, c *models.Campaign)
	Invalidate(ctx context.Context, id domain.CampaignID)
}

type serviceConfig struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor audit.Store
	tx      StoreTx
	cache   CampaignCache
	policy  config.Policy
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithAudit wires the transactional audit store. Events appended inside an
// operation commit or abort with its state change.
func WithAudit(store audit.Store) Option {
	return func(c *serviceConfig) { c.auditor = store }
}

func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

func WithCache(cache CampaignCache) Option {
	return func(c *serviceConfig) { c.cache = cache }
}

func WithPolicy(p config.Policy) Option {
	return func(c *serviceConfig) { c.policy = p }
}

// inMemoryStoreTx serializes operations behind one mutex. The memory stores
// have no rollback, so exclusivity plus the service's guards-before-writes
// ordering is what keeps partial state from ever being observed.
type inMemoryStoreTx struct {
	mu sync.Mutex
}

func newInMemoryStoreTx() *inMemoryStoreTx {
	return &inMemoryStoreTx{}
}

func (t *inMemoryStoreTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
