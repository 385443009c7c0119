package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	RunMigrations      bool   `envconfig:"RUN_MIGRATIONS" default:"true"`

	// Stripe. The secrets may be left empty when SECRET_MANAGER_PROJECT is set.
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	StripePricePersonalManagedMonthly string `envconfig:"STRIPE_PRICE_PERSONAL_MANAGED_MONTHLY" default:"price_personal_managed_monthly"`
	StripePricePersonalManagedYearly  string `envconfig:"STRIPE_PRICE_PERSONAL_MANAGED_YEARLY" default:"price_personal_managed_yearly"`
	StripePriceBusinessManaged        string `envconfig:"STRIPE_PRICE_BUSINESS_MANAGED" default:"price_business_managed"`
	StripePriceBusinessSelfHosted     string `envconfig:"STRIPE_PRICE_BUSINESS_SELFHOSTED" default:"price_business_selfhosted"`
	// StripePriceAliases maps retired price ids onto plan codes, e.g. "price_old:BUSINESS_MANAGED".
	StripePriceAliases map[string]string `envconfig:"STRIPE_PRICE_ALIASES"`
	DefaultPlan        string            `envconfig:"DEFAULT_PLAN" default:"PERSONAL_MANAGED_MONTHLY"`

	// Redirect targets
	AppBaseURL          string   `envconfig:"APP_BASE_URL" default:"http://localhost:2999"`
	CheckoutSuccessPath string   `envconfig:"CHECKOUT_SUCCESS_PATH" default:"/profile?success=true&session_id={CHECKOUT_SESSION_ID}"`
	CheckoutCancelPath  string   `envconfig:"CHECKOUT_CANCEL_PATH" default:"/pricing?canceled=true"`
	PortalReturnPath    string   `envconfig:"PORTAL_RETURN_PATH" default:"/profile"`
	CORSAllowedOrigins  []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// Sessions
	SessionCookieName string        `envconfig:"SESSION_COOKIE_NAME" default:"better-auth.session_token"`
	AuthJWTKey        string        `envconfig:"AUTH_JWT_KEY"`
	RedisURL          string        `envconfig:"REDIS_URL"`
	SessionCacheTTL   time.Duration `envconfig:"SESSION_CACHE_TTL" default:"5m"`

	// Google Cloud
	GCPProjectID            string `envconfig:"GCP_PROJECT_ID"`
	PubSubEmulatorHost      string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubSubscriptionTopic string `envconfig:"PUBSUB_SUBSCRIPTION_TOPIC" default:"subscription-changed"`
	SecretManagerProject    string `envconfig:"SECRET_MANAGER_PROJECT"`
	GCPCredentialsFile      string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`

	// Webhook archive (S3 compatible). Disabled when the bucket is empty.
	S3URL       string `envconfig:"S3_URL"`
	S3Bucket    string `envconfig:"S3_WEBHOOK_ARCHIVE_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs locally.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// PubSubEnabled reports whether subscription notifications should be published.
func (c *Config) PubSubEnabled() bool {
	return c.GCPProjectID != "" && c.PubSubSubscriptionTopic != ""
}

// ArchiveEnabled reports whether raw webhook payloads are archived.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}
