package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/bnema/meli-relist-cli/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type QuoteConfig struct {
	DiscountRate                 float64
	ShippingOverhead             float64
	ShippingReferenceFixedFee    float64
	ShippingReferenceDenominator float64
	ShippingFallbackMargin       float64
	AccountDelay                 time.Duration
}

func DefaultQuoteConfig() QuoteConfig {
	return QuoteConfig{
		DiscountRate:                 0.10,
		ShippingOverhead:             25,
		ShippingReferenceFixedFee:    6,
		ShippingReferenceDenominator: 0.83,
		ShippingFallbackMargin:       5,
		AccountDelay:                 150 * time.Millisecond,
	}
}

// QuoteService prices one product across several accounts and tiers.
type QuoteService struct {
	store    ports.CredentialStore
	tokens   *TokenManager
	shipping ports.ShippingEstimator
	solver   *PriceSolver
	cfg      QuoteConfig
	logger   *slog.Logger
	newID    func() string
}

func NewQuoteService(store ports.CredentialStore, tokens *TokenManager, shipping ports.ShippingEstimator, solver *PriceSolver, cfg QuoteConfig, logger *slog.Logger) *QuoteService {
	if cfg.ShippingReferenceDenominator <= 0 {
		cfg.ShippingReferenceDenominator = DefaultQuoteConfig().ShippingReferenceDenominator
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteService{
		store:    store,
		tokens:   tokens,
		shipping: shipping,
		solver:   solver,
		cfg:      cfg,
		logger:   logger,
		newID:    func() string { return "qt_" + uuid.NewString() },
	}
}

// Quote returns a result for every requested account. Failures of a single
// account or tier stay in its entry. Only an invalid request or a failed
// credential write is returned as an error, the latter together with the
// computed batch.
func (s *QuoteService) Quote(ctx context.Context, req domain.PricingRequest) (domain.BatchQuote, error) {
	return s.QuoteWithProgress(ctx, req, nil)
}

// QuoteProgress identifies the account a batch is about to price. Index is
// 1-based over the deduplicated selection.
type QuoteProgress struct {
	Nickname domain.Nickname
	Index    int
	Total    int
}

// QuoteWithProgress behaves like Quote and calls progress, when not nil,
// before each account is priced.
func (s *QuoteService) QuoteWithProgress(ctx context.Context, req domain.PricingRequest, progress func(QuoteProgress)) (domain.BatchQuote, error) {
	nicknames, tiers, err := normalizeSelection(req)
	if err != nil {
		return domain.BatchQuote{}, err
	}

	snapshot, err := s.store.Load(ctx)
	if err != nil {
		return domain.BatchQuote{}, fmt.Errorf("load accounts: %w", err)
	}

	batch := domain.BatchQuote{RequestID: s.newID()}
	logger := s.logger.With("request_id", batch.RequestID)
	cost := req.BaseCost(s.cfg.DiscountRate)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.cfg.AccountDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.cfg.AccountDelay), 1)
	}

	var changes []ports.CredentialChange
	for i, nickname := range nicknames {
		if progress != nil {
			progress(QuoteProgress{Nickname: nickname, Index: i + 1, Total: len(nicknames)})
		}
		if err := limiter.Wait(ctx); err != nil {
			batch.Accounts = append(batch.Accounts, domain.AccountQuote{Nickname: nickname, Err: fmt.Errorf("%s: %w", nickname, err)})
			continue
		}

		quote, change := s.quoteAccount(ctx, logger, req, cost, tiers, nickname, snapshot)
		if change != nil {
			changes = append(changes, *change)
		}
		batch.Accounts = append(batch.Accounts, quote)
	}

	if len(changes) == 0 {
		return batch, nil
	}

	report, err := s.store.Save(context.WithoutCancel(ctx), changes)
	if err != nil {
		logger.Error("persist refreshed credentials", "err", err)
		return batch, fmt.Errorf("%w: %w", domain.ErrPersistenceWriteFailed, err)
	}
	for _, nickname := range report.Conflicts {
		logger.Warn("credential changed concurrently, keeping stored record",
			"nickname", string(nickname),
			"err", domain.ErrCredentialConflict,
		)
	}
	batch.Conflicts = report.Conflicts

	return batch, nil
}

func (s *QuoteService) quoteAccount(ctx context.Context, logger *slog.Logger, req domain.PricingRequest, cost float64, tiers []domain.Tier, nickname domain.Nickname, snapshot map[domain.Nickname]domain.Account) (domain.AccountQuote, *ports.CredentialChange) {
	quote := domain.AccountQuote{Nickname: nickname, Tiers: make(map[domain.Tier]domain.TierQuote, len(tiers))}
	logger = logger.With("nickname", string(nickname))

	account, ok := snapshot[nickname]
	if !ok {
		quote.Err = fmt.Errorf("%s: %w", nickname, domain.ErrAccountNotFound)
		return quote, nil
	}
	quote.ShippingMode = account.EffectiveShippingMode()

	updated, changed, err := s.tokens.EnsureValid(ctx, account)
	var change *ports.CredentialChange
	if changed {
		change = &ports.CredentialChange{Account: updated, ExpectedRefreshToken: account.Credential.RefreshToken}
		snapshot[nickname] = updated
	}
	if err != nil {
		logger.Warn("account credentials unusable", "err", err)
		quote.Err = err
		return quote, change
	}

	shippingCost := 0.0
	if req.OfferFreeShipping && quote.ShippingMode.SupportsFreeShipping() {
		if !req.ShippingInputsPresent() {
			quote.Err = fmt.Errorf("%s: %w: dimensions and origin zip are required", nickname, domain.ErrShippingInputsMissing)
			return quote, change
		}

		estimate, err := s.shipping.EstimateShipping(ctx, domain.ShippingQuery{
			AccessToken:    updated.Credential.AccessToken,
			SellerID:       updated.SellerID,
			ReferencePrice: s.referencePrice(req, cost),
			Tier:           domain.TierPremium,
			CategoryID:     req.CategoryID,
			Dimensions:     req.Dimensions,
			OriginZip:      req.OriginZip,
			Subsidized:     true,
		})
		if err != nil {
			logger.Warn("shipping estimate failed", "err", err)
			quote.Err = fmt.Errorf("%s: %w", nickname, err)
			return quote, change
		}
		quote.Shipping = estimate
		shippingCost = estimate.Cost
	}

	for _, tier := range tiers {
		result, err := s.solver.Solve(ctx, SolveInput{
			AccessToken:            updated.Credential.AccessToken,
			CategoryID:             req.CategoryID,
			Tier:                   tier,
			Cost:                   cost,
			DesiredProfit:          req.DesiredProfit,
			ProfitIsPercent:        req.ProfitIsPercent(),
			ShippingCost:           shippingCost,
			IncludeAnticipationFee: req.IncludeAnticipationFee,
		})
		if err != nil {
			logger.Warn("price not solvable", "tier", string(tier), "err", err)
			quote.Tiers[tier] = domain.TierQuote{Err: err}
			continue
		}

		logger.Debug("price solved", "tier", string(tier), "price", result.Price, "iterations", result.Iterations)
		quote.Tiers[tier] = domain.TierQuote{Result: &result}
	}

	return quote, change
}

// referencePrice is the conservative price the shipping subsidy is quoted at
// before the real price is known.
func (s *QuoteService) referencePrice(req domain.PricingRequest, cost float64) float64 {
	profit := req.DesiredProfit
	if req.ProfitIsPercent() {
		profit = cost * req.DesiredProfit / 100
	}

	reference := (cost + profit + s.cfg.ShippingOverhead + s.cfg.ShippingReferenceFixedFee) / s.cfg.ShippingReferenceDenominator
	if reference <= 0 {
		reference = cost + profit + s.cfg.ShippingFallbackMargin
	}
	return reference
}

func normalizeSelection(req domain.PricingRequest) ([]domain.Nickname, []domain.Tier, error) {
	if len(req.Accounts) == 0 {
		return nil, nil, fmt.Errorf("%w: no accounts selected", domain.ErrInvalidRequest)
	}
	if len(req.Tiers) == 0 {
		return nil, nil, fmt.Errorf("%w: no listing tier selected", domain.ErrInvalidRequest)
	}

	nicknames := make([]domain.Nickname, 0, len(req.Accounts))
	seenNicknames := make(map[domain.Nickname]struct{}, len(req.Accounts))
	for _, nickname := range req.Accounts {
		if nickname == "" {
			return nil, nil, fmt.Errorf("%w: empty account nickname", domain.ErrInvalidRequest)
		}
		if _, ok := seenNicknames[nickname]; ok {
			continue
		}
		seenNicknames[nickname] = struct{}{}
		nicknames = append(nicknames, nickname)
	}

	tiers := make([]domain.Tier, 0, len(req.Tiers))
	seenTiers := make(map[domain.Tier]struct{}, len(req.Tiers))
	for _, tier := range req.Tiers {
		if !tier.Valid() {
			return nil, nil, fmt.Errorf("%w: unsupported tier %q", domain.ErrInvalidRequest, tier)
		}
		if _, ok := seenTiers[tier]; ok {
			continue
		}
		seenTiers[tier] = struct{}{}
		tiers = append(tiers, tier)
	}

	return nicknames, tiers, nil
}
