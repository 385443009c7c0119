package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"plandera/internal/api/v1/dto"
	"plandera/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeProcessor struct {
	err       error
	payload   string
	signature string
}

func (p *fakeProcessor) HandleEvent(_ context.Context, payload []byte, signature string) error {
	p.payload, p.signature = string(payload), signature
	return p.err
}

func TestWebhookHandler(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"ok", nil, http.StatusOK, ""},
		{"missing signature", service.ErrMissingSignature, http.StatusBadRequest, "Missing stripe-signature header"},
		{"invalid signature", fmt.Errorf("%w: bad header", service.ErrInvalidSignature), http.StatusBadRequest, "Invalid signature"},
		{"handler failed", fmt.Errorf("%w: %w", service.ErrHandlerFailed, errors.New("db down")), http.StatusInternalServerError, "Webhook handler failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proc := &fakeProcessor{err: tc.err}
			mux := http.NewServeMux()
			NewWebhookHandler(proc, zerolog.Nop()).RegisterRoutes(mux)

			req := httptest.NewRequest(http.MethodPost, "/stripe/webhook", strings.NewReader(`{"id":"evt_1"}`))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, `{"id":"evt_1"}`, proc.payload)
			assert.Equal(t, "t=1,v1=abc", proc.signature)
			if tc.err == nil {
				assert.True(t, decode[dto.WebhookResponse](t, rec).Received)
			} else {
				assert.Equal(t, tc.message, decode[dto.ErrorResponse](t, rec).Error)
			}
		})
	}
}

func TestWebhookHandlerRejectsGet(t *testing.T) {
	mux := http.NewServeMux()
	NewWebhookHandler(&fakeProcessor{}, zerolog.Nop()).RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stripe/webhook", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhookHandlerOversizedBody(t *testing.T) {
	proc := &fakeProcessor{}
	mux := http.NewServeMux()
	NewWebhookHandler(proc, zerolog.Nop()).RegisterRoutes(mux)

	body := strings.Repeat("x", maxWebhookBody+1)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stripe/webhook", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, proc.payload)
}
