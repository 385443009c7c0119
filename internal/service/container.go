package service

import (
	"context"
	"errors"
	"fmt"

	"plandera/internal/archive"
	"plandera/internal/cache"
	"plandera/internal/config"
	"plandera/internal/plan"
	"plandera/internal/pubsub"
	"plandera/internal/repository"
	"plandera/internal/secrets"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Container owns the clients built at startup and the services wired on top
// of them. Close releases everything it opened.
type Container struct {
	Pool          *pgxpool.Pool
	Catalog       *plan.Catalog
	Users         UserService
	Subscriptions SubscriptionService
	Sessions      SessionService
	Reconciler    Reconciler
	Webhooks      *WebhookService
	Sync          *SyncService
	Billing       *BillingService

	closers []func() error
	logger  zerolog.Logger
}

// NewContainer connects to every configured backend and builds the services.
// Optional backends (Redis, Pub/Sub, S3, Secret Manager) are skipped when
// their settings are empty.
func NewContainer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *Container, err error) {
	c := &Container{logger: logger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	if cfg.SecretManagerProject != "" {
		resolver, err := secrets.NewResolver(ctx, cfg.SecretManagerProject, cfg.GCPCredentialsFile, logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, resolver.Close)
		if err := resolver.Fill(ctx, cfg); err != nil {
			return nil, err
		}
	}
	if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
		return nil, errors.New("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET must be set")
	}

	c.Catalog, err = plan.NewCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("build plan catalog: %w", err)
	}

	c.Pool, err = repository.Connect(ctx, cfg.DBConnectionString, cfg.IsDevelopment(), logger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, func() error { c.Pool.Close(); return nil })
	if cfg.RunMigrations {
		if err := repository.Migrate(ctx, c.Pool, logger); err != nil {
			return nil, err
		}
	}

	var sessionCache cache.SessionCache
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, rdb.Close)
		sessionCache = cache.NewRedisSessionCache(rdb, cfg.SessionCacheTTL)
		logger.Info().Msg("Session cache enabled")
	}

	var notifier ChangeNotifier
	if cfg.PubSubEnabled() {
		pub, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, pub.Close)
		notifier = pubsub.NewNotifier(pub, cfg.PubSubSubscriptionTopic, logger)
		logger.Info().Str("topic", cfg.PubSubSubscriptionTopic).Msg("Subscription notifications enabled")
	}

	var archiver Archiver
	if cfg.ArchiveEnabled() {
		a, err := archive.NewS3Archiver(ctx, archive.Options{
			Endpoint:  cfg.S3URL,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
		})
		if err != nil {
			return nil, err
		}
		archiver = a
		logger.Info().Str("bucket", cfg.S3Bucket).Msg("Webhook archive enabled")
	}

	userRepo := repository.NewUserRepo(c.Pool)
	subRepo := repository.NewSubscriptionRepo(c.Pool)
	sessionRepo := repository.NewSessionRepo(c.Pool)
	eventRepo := repository.NewWebhookEventRepo(c.Pool)

	provider := NewStripeProvider(cfg.StripeSecretKey, logger)

	c.Users = NewUserService(userRepo, provider, logger)
	c.Subscriptions = NewSubscriptionService(subRepo, logger)
	c.Sessions = NewSessionService(sessionRepo, userRepo, sessionCache, cfg.AuthJWTKey, logger)
	c.Reconciler = NewReconciler(subRepo, provider, notifier, logger)
	c.Webhooks = NewWebhookService(cfg.StripeWebhookSecret, c.Reconciler, eventRepo, archiver, logger)
	c.Sync = NewSyncService(c.Users, userRepo, provider, c.Reconciler, c.Catalog, logger)
	c.Billing = NewBillingService(c.Users, provider, c.Catalog, BillingConfig{
		AppBaseURL:          cfg.AppBaseURL,
		AllowedOrigins:      cfg.CORSAllowedOrigins,
		CheckoutSuccessPath: cfg.CheckoutSuccessPath,
		CheckoutCancelPath:  cfg.CheckoutCancelPath,
		PortalReturnPath:    cfg.PortalReturnPath,
	}, logger)

	return c, nil
}

// Close releases clients in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && !errors.Is(err, redis.ErrClosed) {
			c.logger.Warn().Err(err).Msg("Error closing client")
		}
	}
	c.closers = nil
}
