package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".mlr"), cfg.Dir)
	assert.Equal(t, StoreBackendTOML, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(home, ".mlr", "accounts.toml"), cfg.Store.AccountsPath)
	assert.Equal(t, "https://api.mercadolibre.com", cfg.Marketplace.APIBaseURL)
	assert.Equal(t, "MLB", cfg.Marketplace.SiteID)
	assert.Equal(t, 6*time.Hour, cfg.Marketplace.DefaultTokenLifetime)
	assert.Equal(t, 10*time.Second, cfg.Marketplace.FeeTimeout)
	assert.Equal(t, 20*time.Second, cfg.Marketplace.ShippingTimeout)
	assert.Equal(t, 5, cfg.Pricing.MaxIterations)
	assert.InDelta(t, 0.038, cfg.Pricing.AnticipationRate, 1e-9)
	assert.InDelta(t, 0.05, cfg.Pricing.FeeDisplayTolerance, 1e-9)
	assert.InDelta(t, 0.19, cfg.Fees.FallbackPremiumRate, 1e-9)
	assert.Equal(t, 150*time.Millisecond, cfg.Pricing.AccountDelay)
}

func TestLoadReadsConfigFileAndEnvironment(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MLR_MARKETPLACE_CLIENT_ID", "client-from-env")

	dir := filepath.Join(home, ".mlr")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[store]
backend = "sqlite"

[pricing]
fee_display_tolerance = 0.10
account_delay = "0s"
`), 0o600))

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, StoreBackendSQLite, cfg.Store.Backend)
	assert.InDelta(t, 0.10, cfg.Pricing.FeeDisplayTolerance, 1e-9)
	assert.Equal(t, time.Duration(0), cfg.Pricing.AccountDelay)
	assert.Equal(t, "client-from-env", cfg.Marketplace.ClientID)
}

func TestLoadRejectsUnknownStoreBackend(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MLR_STORE_BACKEND", "redis")

	_, err := Load(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store backend")
}

func TestLoadRejectsMalformedConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".mlr")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[store\nbackend="), 0o600))

	_, err := Load(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoadDotEnvIgnoresMissingFile(t *testing.T) {
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadDotEnvExportsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MLR_TEST_DOTENV_VALUE=from-dotenv\n"), 0o600))
	t.Setenv("MLR_TEST_DOTENV_VALUE", "")
	require.NoError(t, os.Unsetenv("MLR_TEST_DOTENV_VALUE"))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv("MLR_TEST_DOTENV_VALUE"))
}
