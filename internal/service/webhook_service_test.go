package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"plandera/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

type fakeEventRepo struct {
	received map[string]int
	results  map[string]error
	failWith error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{received: map[string]int{}, results: map[string]error{}}
}

func (r *fakeEventRepo) RecordReceived(_ context.Context, eventID, _ string) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.received[eventID]++
	return nil
}

func (r *fakeEventRepo) MarkResult(_ context.Context, eventID string, procErr error) error {
	r.results[eventID] = procErr
	return nil
}

func (r *fakeEventRepo) Get(_ context.Context, eventID string) (*model.WebhookEvent, error) {
	n, ok := r.received[eventID]
	if !ok {
		return nil, nil
	}
	return &model.WebhookEvent{EventID: eventID, Attempts: n}, nil
}

type fakeArchiver struct {
	ids []string
	err error
}

func (a *fakeArchiver) Archive(_ context.Context, eventID, _ string, _ []byte) error {
	a.ids = append(a.ids, eventID)
	return a.err
}

type webhookFixture struct {
	svc      *WebhookService
	subs     *fakeSubRepo
	provider *fakeProvider
	events   *fakeEventRepo
	archive  *fakeArchiver
}

func newWebhookFixture() *webhookFixture {
	subs := newFakeSubRepo()
	provider := newFakeProvider()
	events := newFakeEventRepo()
	arch := &fakeArchiver{}
	rec := NewReconciler(subs, provider, nil, zerolog.Nop())
	return &webhookFixture{
		svc:      NewWebhookService(testWebhookSecret, rec, events, arch, zerolog.Nop()),
		subs:     subs,
		provider: provider,
		events:   events,
		archive:  arch,
	}
}

func eventPayload(id, eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","api_version":"2025-03-31.basil","type":%q,"data":{"object":%s}}`, id, eventType, object))
}

func sign(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestHandleEventMissingSignature(t *testing.T) {
	f := newWebhookFixture()
	err := f.svc.HandleEvent(context.Background(), eventPayload("evt_1", "invoice.payment_failed", `{}`), "")
	require.ErrorIs(t, err, ErrMissingSignature)
	assert.Empty(t, f.events.received)
}

func TestHandleEventInvalidSignatureHasNoEffect(t *testing.T) {
	f := newWebhookFixture()
	ctx := context.Background()
	_, _ = f.subs.Create(ctx, &model.Subscription{UserID: "u1", StripeSubscriptionID: "sub_1", Status: model.StatusActive, Plan: "BUSINESS_MANAGED", Quantity: 1})

	payload := eventPayload("evt_1", "invoice.payment_failed", `{"id":"in_1","object":"invoice","parent":{"subscription_details":{"subscription":"sub_1"}}}`)
	err := f.svc.HandleEvent(ctx, payload, sign(payload, "whsec_wrong"))
	require.ErrorIs(t, err, ErrInvalidSignature)

	rec, _ := f.subs.GetByStripeID(ctx, "sub_1")
	assert.Equal(t, model.StatusActive, rec.Status)
	assert.Empty(t, f.events.received)
	assert.Empty(t, f.archive.ids)
}

func TestHandleEventTamperedPayload(t *testing.T) {
	f := newWebhookFixture()
	payload := eventPayload("evt_1", "customer.subscription.deleted", `{"id":"sub_1","object":"subscription"}`)
	sig := sign(payload, testWebhookSecret)
	tampered := eventPayload("evt_1", "customer.subscription.deleted", `{"id":"sub_2","object":"subscription"}`)

	err := f.svc.HandleEvent(context.Background(), tampered, sig)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestHandleEventPaymentFailed(t *testing.T) {
	f := newWebhookFixture()
	ctx := context.Background()
	_, _ = f.subs.Create(ctx, &model.Subscription{UserID: "u1", StripeSubscriptionID: "sub_1", Status: model.StatusActive, Plan: "BUSINESS_MANAGED", Quantity: 1})

	payload := eventPayload("evt_pf", "invoice.payment_failed", `{"id":"in_1","object":"invoice","parent":{"subscription_details":{"subscription":"sub_1"}}}`)
	require.NoError(t, f.svc.HandleEvent(ctx, payload, sign(payload, testWebhookSecret)))

	rec, _ := f.subs.GetByStripeID(ctx, "sub_1")
	assert.Equal(t, model.StatusPastDue, rec.Status)
	assert.Equal(t, 1, f.events.received["evt_pf"])
	assert.Contains(t, f.events.results, "evt_pf")
	assert.NoError(t, f.events.results["evt_pf"])
	assert.Equal(t, []string{"evt_pf"}, f.archive.ids)
}

func TestHandleEventCheckoutCompleted(t *testing.T) {
	f := newWebhookFixture()
	ctx := context.Background()
	f.provider.subs["sub_1"] = stripeSub("sub_1", "price_biz", stripe.SubscriptionStatusActive, 5, 1767225600)

	payload := eventPayload("evt_cs", "checkout.session.completed",
		`{"id":"cs_1","object":"checkout.session","subscription":"sub_1","metadata":{"userId":"u1","plan":"BUSINESS_MANAGED"}}`)
	require.NoError(t, f.svc.HandleEvent(ctx, payload, sign(payload, testWebhookSecret)))

	rec, _ := f.subs.GetByStripeID(ctx, "sub_1")
	require.NotNil(t, rec)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, 5, rec.Quantity)
	assert.Equal(t, model.StatusActive, rec.Status)
}

func TestHandleEventSubscriptionUpdatedReplay(t *testing.T) {
	f := newWebhookFixture()
	ctx := context.Background()
	_, _ = f.subs.Create(ctx, &model.Subscription{UserID: "u1", StripeSubscriptionID: "sub_1", Status: model.StatusActive, Plan: "BUSINESS_MANAGED", Quantity: 1})

	payload := eventPayload("evt_up", "customer.subscription.updated",
		`{"id":"sub_1","object":"subscription","status":"active","cancel_at_period_end":true,"items":{"object":"list","data":[{"id":"si_1","quantity":4,"current_period_end":1767225600,"price":{"id":"price_biz"}}]}}`)
	sig := sign(payload, testWebhookSecret)
	require.NoError(t, f.svc.HandleEvent(ctx, payload, sig))
	first, _ := f.subs.GetByStripeID(ctx, "sub_1")
	require.NoError(t, f.svc.HandleEvent(ctx, payload, sig))
	second, _ := f.subs.GetByStripeID(ctx, "sub_1")

	assert.Equal(t, 4, second.Quantity)
	assert.True(t, second.CancelAtPeriodEnd)
	first.UpdatedAt, second.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, first, second)
	assert.Equal(t, 2, f.events.received["evt_up"])
}

func TestHandleEventUnknownTypeAcknowledged(t *testing.T) {
	f := newWebhookFixture()
	payload := eventPayload("evt_x", "customer.created", `{"id":"cus_1","object":"customer"}`)
	require.NoError(t, f.svc.HandleEvent(context.Background(), payload, sign(payload, testWebhookSecret)))
	assert.Zero(t, f.subs.count())
	assert.NoError(t, f.events.results["evt_x"])
}

func TestHandleEventHandlerFailure(t *testing.T) {
	f := newWebhookFixture()
	f.provider.getErr = errors.New("stripe down")
	payload := eventPayload("evt_fail", "invoice.payment_succeeded", `{"id":"in_1","object":"invoice","parent":{"subscription_details":{"subscription":"sub_1"}}}`)

	err := f.svc.HandleEvent(context.Background(), payload, sign(payload, testWebhookSecret))
	require.ErrorIs(t, err, ErrHandlerFailed)
	assert.Error(t, f.events.results["evt_fail"])
}

func TestHandleEventLedgerAndArchiveFailuresDoNotFailDelivery(t *testing.T) {
	f := newWebhookFixture()
	f.events.failWith = errors.New("ledger down")
	f.archive.err = errors.New("s3 down")
	payload := eventPayload("evt_ok", "customer.subscription.deleted", `{"id":"sub_1","object":"subscription"}`)

	require.NoError(t, f.svc.HandleEvent(context.Background(), payload, sign(payload, testWebhookSecret)))
}

func TestHandleEventWithoutLedgerOrArchive(t *testing.T) {
	subs := newFakeSubRepo()
	svc := NewWebhookService(testWebhookSecret, NewReconciler(subs, newFakeProvider(), nil, zerolog.Nop()), nil, nil, zerolog.Nop())
	payload := eventPayload("evt_1", "customer.subscription.deleted", `{"id":"sub_1","object":"subscription"}`)
	require.NoError(t, svc.HandleEvent(context.Background(), payload, sign(payload, testWebhookSecret)))
}
