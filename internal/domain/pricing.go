package domain

import (
	"fmt"
	"math"
	"strings"
)

type ProfitType string

const (
	ProfitPercent  ProfitType = "PERCENT"
	ProfitAbsolute ProfitType = "ABSOLUTE"
)

type Dimensions struct {
	HeightCM float64
	WidthCM  float64
	LengthCM float64
	WeightKG float64
}

func (d Dimensions) Complete() bool {
	return d.HeightCM > 0 && d.WidthCM > 0 && d.LengthCM > 0 && d.WeightKG > 0
}

// String renders the package in the marketplace format "HxWxL,grams".
func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%dx%d,%d",
		int(d.HeightCM), int(d.WidthCM), int(d.LengthCM), int(math.Round(d.WeightKG*1000)))
}

type PricingRequest struct {
	CostPrice              float64
	DesiredProfit          float64
	ProfitType             ProfitType
	CategoryID             string
	Accounts               []Nickname
	Tiers                  []Tier
	OfferFreeShipping      bool
	Dimensions             *Dimensions
	OriginZip              string
	ApplyDiscount          bool
	IncludeAnticipationFee bool
}

func (r PricingRequest) ProfitIsPercent() bool {
	return r.ProfitType == ProfitPercent
}

// BaseCost is the unit cost after the optional flat discount.
func (r PricingRequest) BaseCost(discountRate float64) float64 {
	if r.ApplyDiscount {
		return r.CostPrice * (1 - discountRate)
	}
	return r.CostPrice
}

// ShippingInputsPresent reports whether a free-shipping estimate can be requested.
func (r PricingRequest) ShippingInputsPresent() bool {
	return r.Dimensions != nil && r.Dimensions.Complete() && strings.TrimSpace(r.OriginZip) != ""
}

func TargetProfit(desired float64, percent bool, cost float64, shipping float64) float64 {
	if percent {
		return desired / 100 * (cost + shipping)
	}
	return desired
}

type FeeQuote struct {
	Rate        float64
	FixedFee    float64
	TotalFee    float64
	Approximate bool
}

func (q FeeQuote) LocalTotal(price float64) float64 {
	return price*q.Rate + q.FixedFee
}

type PriceResult struct {
	Tier            Tier
	Price           float64
	FeeRate         float64
	FixedFee        float64
	TotalFee        float64
	ShippingCost    float64
	AnticipationFee float64
	FeeApproximate  bool
	Iterations      int
	Converged       bool
}

// FeesInfo is the one-line fee breakdown shown next to a price.
func (p PriceResult) FeesInfo() string {
	info := fmt.Sprintf("fee R$%.2f (%.1f%% + R$%.2f)", p.TotalFee, p.FeeRate*100, p.FixedFee)
	if p.AnticipationFee > 0 {
		info += fmt.Sprintf(" + anticipation R$%.2f", p.AnticipationFee)
	}
	if p.FeeApproximate {
		info += " (approx.)"
	}
	return info
}

// TierQuote holds either a result or the error that prevented it.
type TierQuote struct {
	Result *PriceResult
	Err    error
}

func (q TierQuote) OK() bool {
	return q.Err == nil && q.Result != nil
}

func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
