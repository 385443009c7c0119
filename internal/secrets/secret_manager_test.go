package secrets

import (
	"context"
	"errors"
	"testing"

	"plandera/internal/config"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccessor struct {
	values   map[string]string
	requests []string
}

func (f *fakeAccessor) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.requests = append(f.requests, req.Name)
	v, ok := f.values[req.Name]
	if !ok {
		return nil, errors.New("not found")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{Payload: &secretmanagerpb.SecretPayload{Data: []byte(v)}}, nil
}

func TestFillOnlyMissingSecrets(t *testing.T) {
	fake := &fakeAccessor{values: map[string]string{
		"projects/p1/secrets/stripe-webhook-secret/versions/latest": "whsec_from_sm",
	}}
	r := &Resolver{client: fake, projectID: "p1", logger: zerolog.Nop()}

	cfg := &config.Config{StripeSecretKey: "sk_env"}
	require.NoError(t, r.Fill(context.Background(), cfg))

	assert.Equal(t, "sk_env", cfg.StripeSecretKey)
	assert.Equal(t, "whsec_from_sm", cfg.StripeWebhookSecret)
	assert.Equal(t, []string{"projects/p1/secrets/stripe-webhook-secret/versions/latest"}, fake.requests)
}

func TestFillPropagatesAccessError(t *testing.T) {
	r := &Resolver{client: &fakeAccessor{}, projectID: "p1", logger: zerolog.Nop()}
	err := r.Fill(context.Background(), &config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), StripeSecretKeyID)
}

func TestNewResolverRequiresProject(t *testing.T) {
	_, err := NewResolver(context.Background(), "", "", zerolog.Nop())
	require.Error(t, err)
}
