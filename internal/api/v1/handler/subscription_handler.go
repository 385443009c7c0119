package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"plandera/internal/api/v1/dto"
	"plandera/internal/service"

	"github.com/rs/zerolog"
)

// Syncer pulls a user's subscriptions from Stripe.
type Syncer interface {
	SyncUser(ctx context.Context, userID string) (*service.SyncResult, error)
}

// SubscriptionHandler handles subscription-related endpoints.
type SubscriptionHandler struct {
	subSvc service.SubscriptionService
	syncer Syncer
	logger zerolog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subSvc service.SubscriptionService, syncer Syncer, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subSvc: subSvc, syncer: syncer, logger: logger}
}

// RegisterRoutes registers the subscription endpoints.
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("/subscription/status", authMiddleware(allow(http.MethodGet, h.Status)))
	mux.Handle("/subscription/details", authMiddleware(allow(http.MethodGet, h.Details)))
	mux.Handle("/subscription/sync", authMiddleware(allow(http.MethodPost, h.Sync)))
}

// Status godoc
// @Summary Get the current subscription
// @Description Returns the newest active, trialing or past_due subscription, or null.
// @Tags subscription
// @Produce json
// @Success 200 {object} dto.SubscriptionStatusResponse
// @Failure 401 {object} dto.ErrorResponse "unauthorized"
// @Failure 500 {object} dto.ErrorResponse "failed to fetch subscription"
// @Router /subscription/status [get]
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	sub, err := h.subSvc.Current(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch subscription")
		return
	}
	writeJSON(w, http.StatusOK, dto.SubscriptionStatusResponse{Subscription: dto.NewSubscriptionStatusDTO(sub)})
}

// Details godoc
// @Summary Get the current subscription and its history
// @Tags subscription
// @Produce json
// @Success 200 {object} dto.SubscriptionDetailsResponse
// @Failure 401 {object} dto.ErrorResponse "unauthorized"
// @Failure 500 {object} dto.ErrorResponse "failed to fetch subscription details"
// @Router /subscription/details [get]
func (h *SubscriptionHandler) Details(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	d, err := h.subSvc.Details(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch subscription details")
		return
	}
	resp := dto.SubscriptionDetailsResponse{History: make([]dto.SubscriptionItemDTO, 0, len(d.History))}
	if d.Current != nil {
		cur := dto.NewSubscriptionItemDTO(*d.Current)
		resp.Current = &cur
	}
	for _, s := range d.History {
		resp.History = append(resp.History, dto.NewSubscriptionItemDTO(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Sync godoc
// @Summary Resync subscriptions from Stripe
// @Description Pulls the user's Stripe subscriptions and reconciles local records.
// @Tags subscription
// @Produce json
// @Success 200 {object} dto.SyncResponse
// @Failure 401 {object} dto.ErrorResponse "unauthorized"
// @Failure 404 {object} dto.ErrorResponse "user or Stripe customer not found"
// @Failure 500 {object} dto.ErrorResponse "failed to sync subscriptions"
// @Router /subscription/sync [post]
func (h *SubscriptionHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	res, err := h.syncer.SyncUser(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrNoStripeCustomer):
			writeError(w, http.StatusNotFound, "No Stripe customer found for this user")
		default:
			h.logger.Error().Err(err).Str("user_id", userID).Msg("Subscription sync error")
			writeError(w, http.StatusInternalServerError, "Failed to sync subscriptions")
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.SyncResponse{
		Success:     true,
		Message:     fmt.Sprintf("Synced %d subscription(s)", res.SyncedCount),
		SyncedCount: res.SyncedCount,
		Errors:      res.Errors,
	})
}
