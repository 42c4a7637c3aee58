package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".mlr"
	envPrefix  = "MLR"
	dotEnvFile = ".env"
)

const (
	StoreBackendTOML   = "toml"
	StoreBackendSQLite = "sqlite"
)

type Config struct {
	Dir         string
	Log         LogConfig
	Store       StoreConfig
	Marketplace MarketplaceConfig
	Fees        FeeConfig
	Pricing     PricingConfig
	Link        LinkConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type StoreConfig struct {
	Backend      string
	AccountsPath string
	SecretsDir   string
	SQLitePath   string
	UsePass      bool
}

type MarketplaceConfig struct {
	APIBaseURL           string
	TokenURL             string
	AuthURL              string
	SiteID               string
	CurrencyID           string
	UserAgent            string
	ClientID             string
	ClientSecret         string
	TokenTimeout         time.Duration
	IdentityTimeout      time.Duration
	FeeTimeout           time.Duration
	ShippingTimeout      time.Duration
	DefaultTokenLifetime time.Duration
}

type FeeConfig struct {
	FallbackStandardRate float64
	FallbackPremiumRate  float64
	FallbackFixedFee     float64
	LowPriceThreshold    float64
	LowPriceFixedFee     float64
}

type PricingConfig struct {
	SeedPrice                    float64
	MaxIterations                int
	ConvergenceTolerance         float64
	MinDenominator               float64
	AnticipationRate             float64
	FeeDisplayTolerance          float64
	DiscountRate                 float64
	ShippingOverhead             float64
	ShippingReferenceFixedFee    float64
	ShippingReferenceDenominator float64
	ShippingFallbackMargin       float64
	AccountDelay                 time.Duration
}

type LinkConfig struct {
	ListenAddr string
	Timeout    time.Duration
}

func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	if err := loadDotEnv(dotEnvFile); err != nil {
		return Config{}, err
	}

	dir := filepath.Join(homeDir, configDir)
	setDefaults(v, dir)

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Dir: dir,
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Store: StoreConfig{
			Backend:      strings.ToLower(v.GetString("store.backend")),
			AccountsPath: v.GetString("store.accounts_path"),
			SecretsDir:   v.GetString("store.secrets_dir"),
			SQLitePath:   v.GetString("store.sqlite_path"),
			UsePass:      v.GetBool("store.use_pass"),
		},
		Marketplace: MarketplaceConfig{
			APIBaseURL:           v.GetString("marketplace.api_base_url"),
			TokenURL:             v.GetString("marketplace.token_url"),
			AuthURL:              v.GetString("marketplace.auth_url"),
			SiteID:               v.GetString("marketplace.site_id"),
			CurrencyID:           v.GetString("marketplace.currency_id"),
			UserAgent:            v.GetString("marketplace.user_agent"),
			ClientID:             v.GetString("marketplace.client_id"),
			ClientSecret:         v.GetString("marketplace.client_secret"),
			TokenTimeout:         v.GetDuration("marketplace.timeouts.token"),
			IdentityTimeout:      v.GetDuration("marketplace.timeouts.identity"),
			FeeTimeout:           v.GetDuration("marketplace.timeouts.fees"),
			ShippingTimeout:      v.GetDuration("marketplace.timeouts.shipping"),
			DefaultTokenLifetime: v.GetDuration("marketplace.default_token_lifetime"),
		},
		Fees: FeeConfig{
			FallbackStandardRate: v.GetFloat64("fees.fallback_standard_rate"),
			FallbackPremiumRate:  v.GetFloat64("fees.fallback_premium_rate"),
			FallbackFixedFee:     v.GetFloat64("fees.fallback_fixed_fee"),
			LowPriceThreshold:    v.GetFloat64("fees.low_price_threshold"),
			LowPriceFixedFee:     v.GetFloat64("fees.low_price_fixed_fee"),
		},
		Pricing: PricingConfig{
			SeedPrice:                    v.GetFloat64("pricing.seed_price"),
			MaxIterations:                v.GetInt("pricing.max_iterations"),
			ConvergenceTolerance:         v.GetFloat64("pricing.convergence_tolerance"),
			MinDenominator:               v.GetFloat64("pricing.min_denominator"),
			AnticipationRate:             v.GetFloat64("pricing.anticipation_rate"),
			FeeDisplayTolerance:          v.GetFloat64("pricing.fee_display_tolerance"),
			DiscountRate:                 v.GetFloat64("pricing.discount_rate"),
			ShippingOverhead:             v.GetFloat64("pricing.shipping_overhead"),
			ShippingReferenceFixedFee:    v.GetFloat64("pricing.shipping_reference_fixed_fee"),
			ShippingReferenceDenominator: v.GetFloat64("pricing.shipping_reference_denominator"),
			ShippingFallbackMargin:       v.GetFloat64("pricing.shipping_fallback_margin"),
			AccountDelay:                 v.GetDuration("pricing.account_delay"),
		},
		Link: LinkConfig{
			ListenAddr: v.GetString("link.listen_addr"),
			Timeout:    v.GetDuration("link.timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case StoreBackendTOML, StoreBackendSQLite:
	default:
		return fmt.Errorf("unsupported store backend %q", c.Store.Backend)
	}
	if c.Marketplace.APIBaseURL == "" {
		return errors.New("marketplace api base url is empty")
	}
	if c.Pricing.MaxIterations <= 0 {
		return fmt.Errorf("pricing max iterations must be positive, got %d", c.Pricing.MaxIterations)
	}
	if c.Pricing.ShippingReferenceDenominator <= 0 {
		return errors.New("pricing shipping reference denominator must be positive")
	}
	if c.Pricing.FeeDisplayTolerance < 0 {
		return errors.New("pricing fee display tolerance must not be negative")
	}

	return nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("store.backend", StoreBackendTOML)
	v.SetDefault("store.accounts_path", filepath.Join(dir, "accounts.toml"))
	v.SetDefault("store.secrets_dir", filepath.Join(dir, "secrets"))
	v.SetDefault("store.sqlite_path", filepath.Join(dir, "accounts.db"))
	v.SetDefault("store.use_pass", false)

	v.SetDefault("marketplace.api_base_url", "https://api.mercadolibre.com")
	v.SetDefault("marketplace.token_url", "https://api.mercadolibre.com/oauth/token")
	v.SetDefault("marketplace.auth_url", "https://auth.mercadolivre.com.br/authorization")
	v.SetDefault("marketplace.site_id", "MLB")
	v.SetDefault("marketplace.currency_id", "BRL")
	v.SetDefault("marketplace.user_agent", "mlr/1.0")
	v.SetDefault("marketplace.client_id", "")
	v.SetDefault("marketplace.client_secret", "")
	v.SetDefault("marketplace.timeouts.token", 20*time.Second)
	v.SetDefault("marketplace.timeouts.identity", 10*time.Second)
	v.SetDefault("marketplace.timeouts.fees", 10*time.Second)
	v.SetDefault("marketplace.timeouts.shipping", 20*time.Second)
	v.SetDefault("marketplace.default_token_lifetime", 6*time.Hour)

	v.SetDefault("fees.fallback_standard_rate", 0.15)
	v.SetDefault("fees.fallback_premium_rate", 0.19)
	v.SetDefault("fees.fallback_fixed_fee", 6.00)
	v.SetDefault("fees.low_price_threshold", 79.00)
	v.SetDefault("fees.low_price_fixed_fee", 6.00)

	v.SetDefault("pricing.seed_price", 100.0)
	v.SetDefault("pricing.max_iterations", 5)
	v.SetDefault("pricing.convergence_tolerance", 0.01)
	v.SetDefault("pricing.min_denominator", 0.05)
	v.SetDefault("pricing.anticipation_rate", 0.038)
	v.SetDefault("pricing.fee_display_tolerance", 0.05)
	v.SetDefault("pricing.discount_rate", 0.10)
	v.SetDefault("pricing.shipping_overhead", 25.0)
	v.SetDefault("pricing.shipping_reference_fixed_fee", 6.0)
	v.SetDefault("pricing.shipping_reference_denominator", 0.83)
	v.SetDefault("pricing.shipping_fallback_margin", 5.0)
	v.SetDefault("pricing.account_delay", 150*time.Millisecond)

	v.SetDefault("link.listen_addr", "127.0.0.1:8765")
	v.SetDefault("link.timeout", 5*time.Minute)
}

// loadDotEnv exports variables from an optional .env file. Variables already
// present in the environment win.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
