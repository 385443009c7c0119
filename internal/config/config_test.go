package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv clears key for the duration of the test. envconfig treats a
// variable set to "" as present, so t.Setenv cannot be used for this.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		key := key // per-iteration copy; this module targets go 1.21 loop semantics
		if old, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { _ = os.Setenv(key, old) })
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetenv(t, "PORT", "ENV", "RUN_MIGRATIONS", "SESSION_CACHE_TTL", "DEFAULT_PLAN", "CHECKOUT_SUCCESS_PATH", "S3_WEBHOOK_ARCHIVE_BUCKET", "GCP_PROJECT_ID")
	t.Setenv("DB_CONNECTION_STRING", "postgres://localhost/plandera")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, 5*time.Minute, cfg.SessionCacheTTL)
	assert.Equal(t, "PERSONAL_MANAGED_MONTHLY", cfg.DefaultPlan)
	assert.Contains(t, cfg.CheckoutSuccessPath, "{CHECKOUT_SESSION_ID}")
	assert.False(t, cfg.ArchiveEnabled())
	assert.False(t, cfg.PubSubEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_CONNECTION_STRING", "postgres://localhost/plandera")
	t.Setenv("ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com,https://www.example.com")
	t.Setenv("STRIPE_PRICE_ALIASES", "price_old:BUSINESS_MANAGED,price_older:BUSINESS_SELFHOSTED")
	t.Setenv("GCP_PROJECT_ID", "plandera-prod")
	t.Setenv("S3_WEBHOOK_ARCHIVE_BUCKET", "stripe-events")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"https://app.example.com", "https://www.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, map[string]string{"price_old": "BUSINESS_MANAGED", "price_older": "BUSINESS_SELFHOSTED"}, cfg.StripePriceAliases)
	assert.True(t, cfg.PubSubEnabled())
	assert.True(t, cfg.ArchiveEnabled())
}

func TestLoadRequiresDatabase(t *testing.T) {
	unsetenv(t, "DB_CONNECTION_STRING")
	_, err := Load()
	assert.Error(t, err)
}
