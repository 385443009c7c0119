// Package secrets loads Stripe credentials from Google Secret Manager when
// they are not provided through the environment.
package secrets

import (
	"context"
	"fmt"

	"plandera/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Secret ids read by Fill.
const (
	StripeSecretKeyID     = "stripe-secret-key"
	StripeWebhookSecretID = "stripe-webhook-secret"
)

// accessor is the part of the Secret Manager client Resolver uses.
type accessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// Resolver reads the latest version of named secrets in one project.
type Resolver struct {
	client    accessor
	closer    func() error
	projectID string
	logger    zerolog.Logger
}

// NewResolver connects to Secret Manager. credentialsFile may be empty to use
// application default credentials.
func NewResolver(ctx context.Context, projectID, credentialsFile string, logger zerolog.Logger) (*Resolver, error) {
	if projectID == "" {
		return nil, fmt.Errorf("secret manager project is not set")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &Resolver{
		client:    client,
		closer:    client.Close,
		projectID: projectID,
		logger:    logger.With().Str("service", "SecretResolver").Logger(),
	}, nil
}

// Get returns the payload of the latest version of secretID.
func (r *Resolver) Get(ctx context.Context, secretID string) (string, error) {
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", r.projectID, secretID)
	result, err := r.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", secretID, err)
	}
	return string(result.Payload.Data), nil
}

// Fill sets the Stripe secrets missing from cfg.
func (r *Resolver) Fill(ctx context.Context, cfg *config.Config) error {
	targets := []struct {
		id  string
		dst *string
	}{
		{StripeSecretKeyID, &cfg.StripeSecretKey},
		{StripeWebhookSecretID, &cfg.StripeWebhookSecret},
	}
	for _, t := range targets {
		if *t.dst != "" {
			continue
		}
		v, err := r.Get(ctx, t.id)
		if err != nil {
			return err
		}
		*t.dst = v
		r.logger.Info().Str("secret", t.id).Msg("Loaded secret from Secret Manager")
	}
	return nil
}

func (r *Resolver) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
