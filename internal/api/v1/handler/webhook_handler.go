package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"plandera/internal/api/v1/dto"
	"plandera/internal/service"

	"github.com/rs/zerolog"
)

// maxWebhookBody matches the payload limit Stripe documents for webhooks.
const maxWebhookBody = 65536

// WebhookProcessor verifies and applies a signed Stripe event.
type WebhookProcessor interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}

type WebhookHandler struct {
	processor WebhookProcessor
	logger    zerolog.Logger
}

func NewWebhookHandler(processor WebhookProcessor, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{processor: processor, logger: logger}
}

// RegisterRoutes mounts the Stripe webhook. It is authenticated by signature only.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/stripe/webhook", allow(http.MethodPost, h.Webhook))
}

// Webhook godoc
// @Summary Receive a Stripe webhook event
// @Description Verifies the Stripe-Signature header and reconciles the subscription the event refers to.
// @Tags stripe
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe webhook signature"
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} dto.ErrorResponse "missing or invalid signature"
// @Failure 500 {object} dto.ErrorResponse "webhook handler failed"
// @Router /stripe/webhook [post]
func (h *WebhookHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read webhook body")
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	err = h.processor.HandleEvent(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, dto.WebhookResponse{Received: true})
	case errors.Is(err, service.ErrMissingSignature):
		writeError(w, http.StatusBadRequest, "Missing stripe-signature header")
	case errors.Is(err, service.ErrInvalidSignature):
		writeError(w, http.StatusBadRequest, "Invalid signature")
	default:
		writeError(w, http.StatusInternalServerError, "Webhook handler failed")
	}
}
