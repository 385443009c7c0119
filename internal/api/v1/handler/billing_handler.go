package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"plandera/internal/api/v1/dto"
	"plandera/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// BillingSessions opens Stripe hosted pages for a user.
type BillingSessions interface {
	CreateCheckout(ctx context.Context, userID, planCode string, quantity int, origin string) (string, error)
	CreatePortal(ctx context.Context, userID, origin string) (string, error)
}

type BillingHandler struct {
	billing  BillingSessions
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewBillingHandler(billing BillingSessions, v *validator.Validate, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{billing: billing, validate: v, logger: logger}
}

// RegisterRoutes registers the checkout and portal endpoints.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/stripe/checkout", authMw(allow(http.MethodPost, h.Checkout)))
	mux.Handle("/stripe/portal", authMw(allow(http.MethodPost, h.Portal)))
}

// Checkout godoc
// @Summary Initiate a Stripe Checkout session for a plan
// @Description Creates a subscription Checkout session and returns its URL.
// @Tags stripe
// @Accept json
// @Produce json
// @Param checkout body dto.CheckoutRequest true "Plan and seat count"
// @Success 200 {object} dto.URLResponse
// @Failure 400 {object} dto.ErrorResponse "invalid plan"
// @Failure 401 {object} dto.ErrorResponse "unauthorized"
// @Failure 500 {object} dto.ErrorResponse "failed to create checkout session"
// @Router /stripe/checkout [post]
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req dto.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan")
		return
	}

	url, err := h.billing.CreateCheckout(r.Context(), userID, req.Plan, req.Quantity, r.Header.Get("Origin"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlan):
			writeError(w, http.StatusBadRequest, "Invalid plan")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error().Err(err).Str("user_id", userID).Msg("Checkout session error")
			writeError(w, http.StatusInternalServerError, "Failed to create checkout session")
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.URLResponse{URL: url})
}

// Portal godoc
// @Summary Create a Stripe Customer Portal session
// @Description Generates a Customer Portal session URL for the authenticated user.
// @Tags stripe
// @Produce json
// @Success 200 {object} dto.URLResponse
// @Failure 401 {object} dto.ErrorResponse "unauthorized"
// @Failure 404 {object} dto.ErrorResponse "no Stripe customer"
// @Failure 500 {object} dto.ErrorResponse "failed to create portal session"
// @Router /stripe/portal [post]
func (h *BillingHandler) Portal(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	url, err := h.billing.CreatePortal(r.Context(), userID, r.Header.Get("Origin"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoStripeCustomer), errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "No Stripe customer found")
		default:
			h.logger.Error().Err(err).Str("user_id", userID).Msg("Portal session error")
			writeError(w, http.StatusInternalServerError, "Failed to create portal session")
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.URLResponse{URL: url})
}
