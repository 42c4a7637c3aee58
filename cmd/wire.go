package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bnema/meli-relist-cli/internal/adapters/marketplace"
	quoterender "github.com/bnema/meli-relist-cli/internal/adapters/render/quote"
	sqlitestore "github.com/bnema/meli-relist-cli/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/meli-relist-cli/internal/adapters/repo/toml"
	chainstore "github.com/bnema/meli-relist-cli/internal/adapters/secrets/chain"
	filestore "github.com/bnema/meli-relist-cli/internal/adapters/secrets/file"
	"github.com/bnema/meli-relist-cli/internal/application"
	"github.com/bnema/meli-relist-cli/internal/config"
	"github.com/bnema/meli-relist-cli/internal/ports"
	"github.com/spf13/viper"
)

type app struct {
	cfg             config.Config
	logger          *slog.Logger
	store           ports.CredentialStore
	closeStore      func() error
	oauth           *marketplace.OAuth
	tokens          *application.TokenManager
	accounts        *application.AccountService
	quotes          *application.QuoteService
	accountRenderer func([]application.AccountView, quoterender.RenderOptions) (string, error)
	batchRenderer   func(application.BatchView) (string, error)
	now             func() time.Time
}

func (a *app) wire(v *viper.Viper, logOutput io.Writer) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := initLogger(logOutput, cfg.Log.Format, cfg.Log.Level)
	slog.SetDefault(logger)
	clock := ports.SystemClock{}

	store, closeStore, err := wireCredentialStore(cfg.Store, clock)
	if err != nil {
		return err
	}

	httpClient := &http.Client{}
	client := marketplace.NewClient(marketplace.Options{
		BaseURL:         cfg.Marketplace.APIBaseURL,
		SiteID:          cfg.Marketplace.SiteID,
		CurrencyID:      cfg.Marketplace.CurrencyID,
		UserAgent:       cfg.Marketplace.UserAgent,
		HTTPClient:      httpClient,
		IdentityTimeout: cfg.Marketplace.IdentityTimeout,
		FeeTimeout:      cfg.Marketplace.FeeTimeout,
		ShippingTimeout: cfg.Marketplace.ShippingTimeout,
		Fees: marketplace.FeeFallback{
			StandardRate:      cfg.Fees.FallbackStandardRate,
			PremiumRate:       cfg.Fees.FallbackPremiumRate,
			FixedFee:          cfg.Fees.FallbackFixedFee,
			LowPriceThreshold: cfg.Fees.LowPriceThreshold,
			LowPriceFixedFee:  cfg.Fees.LowPriceFixedFee,
		},
		Logger: logger,
	})
	oauth := marketplace.NewOAuth(marketplace.OAuthOptions{
		ClientID:     cfg.Marketplace.ClientID,
		ClientSecret: cfg.Marketplace.ClientSecret,
		AuthURL:      cfg.Marketplace.AuthURL,
		TokenURL:     cfg.Marketplace.TokenURL,
		HTTPClient:   httpClient,
		Timeout:      cfg.Marketplace.TokenTimeout,
	})

	tokens := application.NewTokenManager(oauth, client, store, clock, cfg.Marketplace.DefaultTokenLifetime, logger)
	solver := application.NewPriceSolver(client, application.SolverConfig{
		SeedPrice:            cfg.Pricing.SeedPrice,
		MaxIterations:        cfg.Pricing.MaxIterations,
		ConvergenceTolerance: cfg.Pricing.ConvergenceTolerance,
		MinDenominator:       cfg.Pricing.MinDenominator,
		AnticipationRate:     cfg.Pricing.AnticipationRate,
		FeeDisplayTolerance:  cfg.Pricing.FeeDisplayTolerance,
		FallbackStandardRate: cfg.Fees.FallbackStandardRate,
		FallbackPremiumRate:  cfg.Fees.FallbackPremiumRate,
	})
	quotes := application.NewQuoteService(store, tokens, client, solver, application.QuoteConfig{
		DiscountRate:                 cfg.Pricing.DiscountRate,
		ShippingOverhead:             cfg.Pricing.ShippingOverhead,
		ShippingReferenceFixedFee:    cfg.Pricing.ShippingReferenceFixedFee,
		ShippingReferenceDenominator: cfg.Pricing.ShippingReferenceDenominator,
		ShippingFallbackMargin:       cfg.Pricing.ShippingFallbackMargin,
		AccountDelay:                 cfg.Pricing.AccountDelay,
	}, logger)

	*a = app{
		cfg:             cfg,
		logger:          logger,
		store:           store,
		closeStore:      closeStore,
		oauth:           oauth,
		tokens:          tokens,
		accounts:        application.NewAccountService(store, tokens, client, clock, cfg.Marketplace.DefaultTokenLifetime),
		quotes:          quotes,
		accountRenderer: quoterender.RenderAccounts,
		batchRenderer:   quoterender.RenderBatch,
		now:             time.Now,
	}

	return nil
}

func (a *app) close() error {
	if a.closeStore == nil {
		return nil
	}

	closeStore := a.closeStore
	a.closeStore = nil
	if err := closeStore(); err != nil {
		return fmt.Errorf("close credential store: %w", err)
	}
	return nil
}

func wireCredentialStore(cfg config.StoreConfig, clock ports.Clock) (ports.CredentialStore, func() error, error) {
	if cfg.Backend == config.StoreBackendSQLite {
		store, err := sqlitestore.Open(cfg.SQLitePath, clock)
		if err != nil {
			return nil, nil, fmt.Errorf("wire sqlite credential store: %w", err)
		}
		return store, store.Close, nil
	}

	var secrets ports.SecretStore = filestore.NewStore(cfg.SecretsDir)
	if cfg.UsePass {
		chain, err := chainstore.NewPassFirstWithFileFallback(cfg.SecretsDir)
		if err != nil {
			return nil, nil, fmt.Errorf("wire secret store chain: %w", err)
		}
		secrets = chain
	}

	store, err := tomlrepo.NewStore(cfg.AccountsPath, secrets, clock)
	if err != nil {
		return nil, nil, fmt.Errorf("wire toml credential store: %w", err)
	}
	return store, nil, nil
}
