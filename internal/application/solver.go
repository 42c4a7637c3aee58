package application

import (
	"context"
	"fmt"
	"math"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/bnema/meli-relist-cli/internal/ports"
)

type SolverConfig struct {
	SeedPrice            float64
	MaxIterations        int
	ConvergenceTolerance float64
	MinDenominator       float64
	AnticipationRate     float64
	FeeDisplayTolerance  float64
	FallbackStandardRate float64
	FallbackPremiumRate  float64
}

func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		SeedPrice:            100,
		MaxIterations:        5,
		ConvergenceTolerance: 0.01,
		MinDenominator:       0.05,
		AnticipationRate:     0.038,
		FeeDisplayTolerance:  0.05,
		FallbackStandardRate: 0.15,
		FallbackPremiumRate:  0.19,
	}
}

type SolveInput struct {
	AccessToken            string
	CategoryID             string
	Tier                   domain.Tier
	Cost                   float64
	DesiredProfit          float64
	ProfitIsPercent        bool
	ShippingCost           float64
	IncludeAnticipationFee bool
}

// PriceSolver finds the listing price that nets the target profit once the
// price-dependent fee schedule is deducted.
type PriceSolver struct {
	fees ports.FeeQuoter
	cfg  SolverConfig
}

func NewPriceSolver(fees ports.FeeQuoter, cfg SolverConfig) *PriceSolver {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultSolverConfig().MaxIterations
	}
	if cfg.SeedPrice <= 0 {
		cfg.SeedPrice = DefaultSolverConfig().SeedPrice
	}

	return &PriceSolver{fees: fees, cfg: cfg}
}

func (s *PriceSolver) Solve(ctx context.Context, in SolveInput) (domain.PriceResult, error) {
	target := domain.TargetProfit(in.DesiredProfit, in.ProfitIsPercent, in.Cost, in.ShippingCost)
	anticipation := 0.0
	if in.IncludeAnticipationFee {
		anticipation = s.cfg.AnticipationRate
	}

	quote := s.fees.QuoteFee(ctx, in.AccessToken, in.CategoryID, s.cfg.SeedPrice, in.Tier)
	approximate := quote.Approximate
	rate := s.usableRate(quote.Rate, in.Tier)
	fixed := quote.FixedFee

	price := 0.0
	iterations := 0
	converged := false
	for i := 0; i < s.cfg.MaxIterations; i++ {
		iterations = i + 1

		denominator := 1 - rate - anticipation
		if denominator <= s.cfg.MinDenominator {
			return domain.PriceResult{}, fmt.Errorf("%w: %s denominator %.4f", domain.ErrPriceInfeasible, in.Tier, denominator)
		}

		next := (in.Cost + target + in.ShippingCost + fixed) / denominator
		if i > 0 && math.Abs(next-price) < s.cfg.ConvergenceTolerance {
			price = next
			converged = true
			break
		}
		price = next

		quote = s.fees.QuoteFee(ctx, in.AccessToken, in.CategoryID, price, in.Tier)
		approximate = approximate || quote.Approximate
		rate = s.usableRate(quote.Rate, in.Tier)
		fixed = quote.FixedFee
	}

	final := domain.Round2(price)
	if final <= 0 {
		final = 0.01
	}

	finalQuote := s.fees.QuoteFee(ctx, in.AccessToken, in.CategoryID, final, in.Tier)
	finalRate := s.usableRate(finalQuote.Rate, in.Tier)
	localFee := final*finalRate + finalQuote.FixedFee
	displayFee := localFee
	if math.Abs(finalQuote.TotalFee-localFee) < s.cfg.FeeDisplayTolerance {
		displayFee = finalQuote.TotalFee
	}

	return domain.PriceResult{
		Tier:            in.Tier,
		Price:           final,
		FeeRate:         finalRate,
		FixedFee:        finalQuote.FixedFee,
		TotalFee:        domain.Round2(displayFee),
		ShippingCost:    in.ShippingCost,
		AnticipationFee: domain.Round2(final * anticipation),
		FeeApproximate:  approximate || finalQuote.Approximate,
		Iterations:      iterations,
		Converged:       converged,
	}, nil
}

func (s *PriceSolver) usableRate(rate float64, tier domain.Tier) float64 {
	if rate >= 0 && rate < 1 {
		return rate
	}
	if tier == domain.TierPremium {
		return s.cfg.FallbackPremiumRate
	}
	return s.cfg.FallbackStandardRate
}
