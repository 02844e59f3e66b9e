package service

import (
	"context"
	"log/slog"

	dErrors "fundmatch/pkg/domain-errors"
	"fundmatch/pkg/platform/audit"
	"fundmatch/pkg/requestcontext"
)

// auditEmitter writes audit events to the structured log and, when a store is
// wired, appends them to the transactional outbox. Append failures abort the
// operation: a financial action without its audit trail must not commit.
type auditEmitter struct {
	logger *slog.Logger
	store  audit.Store
}

func newAuditEmitter(logger *slog.Logger, store audit.Store) *auditEmitter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &auditEmitter{logger: logger, store: store}
}

type auditEntry struct {
	action         audit.AuditEvent
	campaignID     string
	amount         uint64
	matchingAmount uint64
	fee            uint64
}

func (e *auditEmitter) emit(ctx context.Context, entry auditEntry) error {
	event := audit.Event{
		Category:       entry.action.Category(),
		Timestamp:      requestcontext.Now(ctx),
		Action:         string(entry.action),
		Actor:          requestcontext.Caller(ctx).String(),
		CampaignID:     entry.campaignID,
		Amount:         entry.amount,
		MatchingAmount: entry.matchingAmount,
		Fee:            entry.fee,
		RequestID:      requestcontext.RequestID(ctx),
	}

	e.logger.InfoContext(ctx, event.Action,
		"log_type", "audit",
		"category", string(event.Category),
		"actor", event.Actor,
		"campaign_id", event.CampaignID,
		"amount", event.Amount,
		"matching_amount", event.MatchingAmount,
		"fee", event.Fee,
		"request_id", event.RequestID,
	)

	if e.store == nil {
		return nil
	}
	if err := e.store.Append(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}
