package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fundmatch/internal/funding/models"
	"fundmatch/internal/funding/service"
	"fundmatch/pkg/domain"
	dErrors "fundmatch/pkg/domain-errors"
	"fundmatch/pkg/platform/httputil"
	"fundmatch/pkg/requestcontext"
)

// Service defines the engine operations the HTTP layer exposes.
type Service interface {
	InitializePlatform(ctx context.Context) (*models.Platform, error)
	CreateCampaign(ctx context.Context, params models.CampaignParams) (*models.Campaign, error)
	Donate(ctx context.Context, id domain.CampaignID, amount uint64) (*models.Donation, error)
	AddMatchingFunds(ctx context.Context, id domain.CampaignID, amount uint64) (*models.Campaign, error)
	WithdrawFunds(ctx context.Context, id domain.CampaignID) (*service.WithdrawalReceipt, error)
	PauseCampaign(ctx context.Context, id domain.CampaignID) (*models.Campaign, error)
	ResumeCampaign(ctx context.Context, id domain.CampaignID) (*models.Campaign, error)
	GetCampaign(ctx context.Context, id domain.CampaignID) (*models.Campaign, error)
	GetPlatform(ctx context.Context) (*models.Platform, error)
	ListDonations(ctx context.Context, id domain.CampaignID) ([]*models.Donation, error)
}

// Handler wires funding endpoints to the engine service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts funding endpoints on the router. Authentication middleware
// is the caller's responsibility; every route expects a caller identity in
// context.
func (h *Handler) Register(r chi.Router) {
	r.Post("/platform", h.handleInitializePlatform)
	r.Get("/platform", h.handleGetPlatform)
	r.Post("/campaigns", h.handleCreateCampaign)
	r.Route("/campaigns/{campaignID}", func(r chi.Router) {
		r.Get("/", h.handleGetCampaign)
		r.Post("/donations", h.handleDonate)
		r.Get("/donations", h.handleListDonations)
		r.Post("/matching-funds", h.handleAddMatchingFunds)
		r.Post("/withdrawal", h.handleWithdraw)
		r.Post("/pause", h.handlePause)
		r.Post("/resume", h.handleResume)
	})
}

func (h *Handler) handleInitializePlatform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := h.service.InitializePlatform(ctx)
	if err != nil {
		h.writeError(ctx, w, "platform initialization failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleGetPlatform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := h.service.GetPlatform(ctx)
	if err != nil {
		h.writeError(ctx, w, "platform lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[CreateCampaignRequest](w, r)
	if !ok {
		return
	}

	c, err := h.service.CreateCampaign(ctx, req.Params())
	if err != nil {
		h.writeError(ctx, w, "campaign creation failed", err)
		return
	}

	h.logger.InfoContext(ctx, "campaign created",
		"request_id", requestcontext.RequestID(ctx),
		"campaign_id", c.ID.String(),
		"goal_amount", c.GoalAmount,
	)
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	c, err := h.service.GetCampaign(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "campaign lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDonate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[AmountRequest](w, r)
	if !ok {
		return
	}

	d, err := h.service.Donate(ctx, id, req.Amount)
	if err != nil {
		h.writeError(ctx, w, "donation failed", err)
		return
	}

	h.logger.InfoContext(ctx, "donation accepted",
		"request_id", requestcontext.RequestID(ctx),
		"campaign_id", id.String(),
		"amount", d.Amount,
		"matching_amount", d.MatchingAmount,
	)
	httputil.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) handleListDonations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListDonations(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "donation listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"donations": list})
}

func (h *Handler) handleAddMatchingFunds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[AmountRequest](w, r)
	if !ok {
		return
	}

	c, err := h.service.AddMatchingFunds(ctx, id, req.Amount)
	if err != nil {
		h.writeError(ctx, w, "matching fund deposit failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	receipt, err := h.service.WithdrawFunds(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "withdrawal failed", err)
		return
	}

	h.logger.InfoContext(ctx, "withdrawal settled",
		"request_id", requestcontext.RequestID(ctx),
		"campaign_id", id.String(),
		"payout", receipt.Payout,
		"fee", receipt.Fee,
	)
	httputil.WriteJSON(w, http.StatusOK, receipt)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	c, err := h.service.PauseCampaign(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "campaign pause failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	c, err := h.service.ResumeCampaign(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "campaign resume failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) campaignID(w http.ResponseWriter, r *http.Request) (domain.CampaignID, bool) {
	id, err := domain.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
