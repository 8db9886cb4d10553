package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
	t.Setenv("AI_GATEWAY_API_KEY", "ai-key")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ".lovable.app", cfg.Server.TrustedHostSuffix)
	assert.Equal(t, "google/gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, 4000, cfg.AI.MaxTokens)
	assert.InDelta(t, 0.3, cfg.AI.Temperature, 1e-9)
	assert.Equal(t, 5, cfg.Limits.FreeScansPerMonth)
	assert.Equal(t, int64(50*1024*1024), cfg.Limits.MaxFileSizeFree)
	assert.Equal(t, int64(600*1024*1024), cfg.Limits.MaxFileSizePro)
	assert.Equal(t, "America/Sao_Paulo", cfg.Notifications.Timezone)
	assert.Equal(t, 20, cfg.Stripe.InvoiceLimit)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", "https://securex.app, https://staging.securex.app ,")
	t.Setenv("AI_TIMEOUT", "45s")
	t.Setenv("CODE_REGISTRY_URL", "https://codes.example.com/")
	t.Setenv("STRIPE_PRICE_MONTHLY", "price_m")
	t.Setenv("FREE_SCANS_PER_MONTH", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://securex.app", "https://staging.securex.app"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "https://codes.example.com", cfg.Registry.URL)
	assert.Equal(t, []string{"price_m"}, cfg.PriceIDs())
	assert.Equal(t, 5, cfg.Limits.FreeScansPerMonth)
}

func TestValidate(t *testing.T) {
	t.Run("missing backend", func(t *testing.T) {
		setRequired(t)
		t.Setenv("SUPABASE_URL", "")
		_, err := Load()
		assert.ErrorContains(t, err, "SUPABASE_URL")
	})

	t.Run("free ceiling above pro", func(t *testing.T) {
		setRequired(t)
		t.Setenv("MAX_FILE_SIZE_FREE_MB", "700")
		_, err := Load()
		assert.ErrorContains(t, err, "file size")
	})
}

func TestLoadMaintenance(t *testing.T) {
	t.Setenv("SUPABASE_DB_URL", "")
	_, err := LoadMaintenance()
	assert.ErrorContains(t, err, "SUPABASE_DB_URL")

	t.Setenv("SUPABASE_DB_URL", "postgres://postgres:pw@db.proj.supabase.co:5432/postgres")
	cfg, err := LoadMaintenance()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Limits.FreeScansPerMonth)
}
