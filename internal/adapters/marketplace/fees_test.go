package marketplace

import (
	"context"
	"net/http"
	"testing"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteFeeUsesMatchingListEntry(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/MLB/listing_prices", r.URL.Path)
		assert.Equal(t, "MLB1234", r.URL.Query().Get("category_id"))
		assert.Equal(t, "150.00", r.URL.Query().Get("price"))
		assert.Equal(t, "gold_pro", r.URL.Query().Get("listing_type_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"listing_type_id":"gold_special","sale_fee_amount":19.5,"sale_fee_details":{"percentage_fee":13,"fixed_fee":0}},
			{"listing_type_id":"gold_pro","sale_fee_amount":25.5,"sale_fee_details":{"percentage_fee":17,"fixed_fee":0}}
		]`))
	})

	quote := client.QuoteFee(context.Background(), "at", "MLB1234", 150, domain.TierPremium)
	assert.InDelta(t, 0.17, quote.Rate, 1e-9)
	assert.Zero(t, quote.FixedFee)
	assert.InDelta(t, 25.5, quote.TotalFee, 1e-9)
	assert.False(t, quote.Approximate)
}

func TestQuoteFeeFallsBackToFirstListEntry(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"listing_type_id":"gold_premium","sale_fee_amount":14,"sale_fee_details":{"percentage_fee":14,"fixed_fee":0}}]`))
	})

	quote := client.QuoteFee(context.Background(), "at", "MLB1234", 100, domain.TierStandard)
	assert.InDelta(t, 0.14, quote.Rate, 1e-9)
	assert.False(t, quote.Approximate)
}

func TestQuoteFeeAppliesLowPriceFloorAndDerivesRate(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"listing_type_id":"gold_special","sale_fee_amount":13.2}`))
	})

	quote := client.QuoteFee(context.Background(), "at", "MLB1234", 60, domain.TierStandard)
	assert.InDelta(t, 6.0, quote.FixedFee, 1e-9)
	assert.InDelta(t, (13.2-6.0)/60, quote.Rate, 1e-9)
	assert.InDelta(t, 13.2, quote.TotalFee, 1e-9)
	assert.False(t, quote.Approximate)
}

func TestQuoteFeeSkipsLowPriceFloorAboveThreshold(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"listing_type_id":"gold_special","sale_fee_amount":14,"sale_fee_details":{"percentage_fee":14,"fixed_fee":0}}`))
	})

	quote := client.QuoteFee(context.Background(), "at", "MLB1234", 100, domain.TierStandard)
	assert.Zero(t, quote.FixedFee)
	assert.InDelta(t, 0.14, quote.Rate, 1e-9)
}

func TestQuoteFeeFallbackSchedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		token   string
		tier    domain.Tier
		rate    float64
	}{
		{
			name: "server error premium",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			token: "at",
			tier:  domain.TierPremium,
			rate:  0.19,
		},
		{
			name: "empty list standard",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[]`))
			},
			token: "at",
			tier:  domain.TierStandard,
			rate:  0.15,
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`"oops"`))
			},
			token: "at",
			tier:  domain.TierStandard,
			rate:  0.15,
		},
		{
			name: "missing token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected without a token")
			},
			token: "",
			tier:  domain.TierPremium,
			rate:  0.19,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, tt.handler)
			quote := client.QuoteFee(context.Background(), tt.token, "MLB1234", 200, tt.tier)
			require.True(t, quote.Approximate)
			assert.InDelta(t, tt.rate, quote.Rate, 1e-9)
			assert.InDelta(t, 6.0, quote.FixedFee, 1e-9)
			assert.InDelta(t, 200*tt.rate+6, quote.TotalFee, 1e-9)
		})
	}
}
