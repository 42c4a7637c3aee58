package application

import (
	"sort"
	"time"

	"github.com/bnema/meli-relist-cli/internal/domain"
)

// QuoteView is one account entry of the outbound batch result.
type QuoteView struct {
	ClassicPrice              *float64 `json:"classic_price,omitempty"`
	ClassicFeesInfo           string   `json:"classic_fees_info,omitempty"`
	ClassicFeeApproximate     bool     `json:"classic_fee_approximate,omitempty"`
	ClassicError              string   `json:"classic_error,omitempty"`
	PremiumPrice              *float64 `json:"premium_price,omitempty"`
	PremiumFeesInfo           string   `json:"premium_fees_info,omitempty"`
	PremiumFeeApproximate     bool     `json:"premium_fee_approximate,omitempty"`
	PremiumError              string   `json:"premium_error,omitempty"`
	ShippingFinalCost         float64  `json:"shipping_final_cost"`
	ShippingListCostAPI       float64  `json:"shipping_list_cost_api"`
	ShippingPromotedAmountAPI float64  `json:"shipping_promoted_amount_api"`
	ShippingAPIDiscountRate   float64  `json:"shipping_api_discount_rate"`
	AccountShippingMode       string   `json:"account_shipping_mode,omitempty"`
	Error                     string   `json:"error,omitempty"`
}

type BatchView struct {
	RequestID string               `json:"request_id"`
	Results   map[string]QuoteView `json:"results"`
	Conflicts []string             `json:"conflicts,omitempty"`
}

func NewBatchView(batch domain.BatchQuote) BatchView {
	view := BatchView{
		RequestID: batch.RequestID,
		Results:   make(map[string]QuoteView, len(batch.Accounts)),
	}
	for _, quote := range batch.Accounts {
		view.Results[string(quote.Nickname)] = NewQuoteView(quote)
	}
	for _, nickname := range batch.Conflicts {
		view.Conflicts = append(view.Conflicts, string(nickname))
	}

	return view
}

func NewQuoteView(quote domain.AccountQuote) QuoteView {
	view := QuoteView{
		ShippingFinalCost:         quote.Shipping.Cost,
		ShippingListCostAPI:       quote.Shipping.ListCost,
		ShippingPromotedAmountAPI: quote.Shipping.PromotedAmount,
		ShippingAPIDiscountRate:   quote.Shipping.DiscountRate,
		AccountShippingMode:       string(quote.ShippingMode),
	}
	if quote.Err != nil {
		view.Error = quote.Err.Error()
	}

	if tierQuote, ok := quote.Tier(domain.TierStandard); ok {
		view.ClassicPrice, view.ClassicFeesInfo, view.ClassicFeeApproximate, view.ClassicError = tierFields(tierQuote)
	}
	if tierQuote, ok := quote.Tier(domain.TierPremium); ok {
		view.PremiumPrice, view.PremiumFeesInfo, view.PremiumFeeApproximate, view.PremiumError = tierFields(tierQuote)
	}

	return view
}

func tierFields(quote domain.TierQuote) (*float64, string, bool, string) {
	if !quote.OK() {
		if quote.Err != nil {
			return nil, "", false, quote.Err.Error()
		}
		return nil, "", false, ""
	}

	price := quote.Result.Price
	return &price, quote.Result.FeesInfo(), quote.Result.FeeApproximate, ""
}

// AccountView is the listing row for a linked account. Tokens never leave
// the store through it.
type AccountView struct {
	Nickname     string    `json:"nickname"`
	SellerID     string    `json:"seller_id,omitempty"`
	ShippingMode string    `json:"shipping_mode"`
	TokenValid   bool      `json:"token_valid"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	Refreshable  bool      `json:"refreshable"`
	Error        string    `json:"error,omitempty"`
}

func NewAccountViews(accounts map[domain.Nickname]domain.Account, now time.Time) []AccountView {
	views := make([]AccountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, AccountView{
			Nickname:     string(account.Nickname),
			SellerID:     account.SellerID,
			ShippingMode: string(account.EffectiveShippingMode()),
			TokenValid:   account.TokenValid(now),
			ExpiresAt:    account.Credential.ExpiresAt,
			Refreshable:  account.Credential.RefreshToken != "",
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Nickname < views[j].Nickname })

	return views
}
