package ports

import (
	"context"

	"github.com/bnema/meli-relist-cli/internal/domain"
)

type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (domain.TokenGrant, error)
}

type IdentityResolver interface {
	CurrentUser(ctx context.Context, accessToken string) (domain.Identity, error)
}

// FeeQuoter never fails: when the platform cannot answer it returns a
// fallback schedule flagged as approximate.
type FeeQuoter interface {
	QuoteFee(ctx context.Context, accessToken string, categoryID string, price float64, tier domain.Tier) domain.FeeQuote
}

type ShippingEstimator interface {
	EstimateShipping(ctx context.Context, query domain.ShippingQuery) (domain.ShippingEstimate, error)
}
