package worker

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "fundmatch/pkg/platform/audit"
	"fundmatch/pkg/platform/audit/publisher"
	memorystore "fundmatch/pkg/platform/audit/store/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func appendEvent(t *testing.T, store *memorystore.Store, action audit.AuditEvent, campaignID string) {
	t.Helper()
	err := store.Append(context.Background(), audit.Event{
		Category:   action.Category(),
		Timestamp:  time.Now(),
		Action:     string(action),
		CampaignID: campaignID,
	})
	require.NoError(t, err)
}

func TestDrain_PublishesPendingInOrder(t *testing.T) {
	store := memorystore.New()
	sink := publisher.NewMemory()
	w := New(store, sink, testLogger(), time.Second)

	appendEvent(t, store, audit.EventCampaignCreated, "0")
	appendEvent(t, store, audit.EventDonationMade, "0")

	require.NoError(t, w.Drain(context.Background()))

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, string(audit.EventCampaignCreated), events[0].Action)
	assert.Equal(t, string(audit.EventDonationMade), events[1].Action)

	// A second drain finds nothing pending.
	require.NoError(t, w.Drain(context.Background()))
	assert.Len(t, sink.Events(), 2)
}

type failingPublisher struct {
	failures int
	sink     *publisher.Memory
}

func (f *failingPublisher) Publish(ctx context.Context, event audit.PendingEvent) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unavailable")
	}
	return f.sink.Publish(ctx, event)
}

func TestDrain_RetriesFailedEvents(t *testing.T) {
	store := memorystore.New()
	sink := publisher.NewMemory()
	flaky := &failingPublisher{failures: 1, sink: sink}
	w := New(store, flaky, testLogger(), time.Second)

	appendEvent(t, store, audit.EventFundsWithdrawn, "3")

	// First drain fails, row stays pending.
	require.NoError(t, w.Drain(context.Background()))
	assert.Empty(t, sink.Events())

	// Next drain delivers it.
	require.NoError(t, w.Drain(context.Background()))
	require.Len(t, sink.Events(), 1)
	assert.Equal(t, string(audit.EventFundsWithdrawn), sink.Events()[0].Action)
}

func TestCategory_Defaults(t *testing.T) {
	assert.Equal(t, audit.CategoryFinancial, audit.EventDonationMade.Category())
	assert.Equal(t, audit.CategoryOperations, audit.EventCampaignPaused.Category())
	assert.Equal(t, audit.CategoryOperations, audit.AuditEvent("unknown").Category())
}
