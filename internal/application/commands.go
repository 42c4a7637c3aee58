package application

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/go-playground/validator/v10"
)

// QuoteRequest is the inbound batch pricing request.
type QuoteRequest struct {
	CostPrice              float64          `json:"cost_price" validate:"gte=0"`
	DesiredProfit          float64          `json:"desired_profit"`
	ProfitType             string           `json:"profit_type" validate:"required,oneof=PERCENT ABSOLUTE"`
	ProductCategoryID      string           `json:"product_category_id" validate:"required"`
	SelectedAccounts       []string         `json:"selected_ml_accounts" validate:"required,min=1,dive,required"`
	OfferFreeShipping      bool             `json:"offer_free_shipping"`
	Dimensions             *DimensionsInput `json:"dimensions,omitempty"`
	OriginZip              string           `json:"origin_zip,omitempty"`
	PublishClassic         bool             `json:"publish_classic"`
	PublishPremium         bool             `json:"publish_premium"`
	ApplyDiscount10        bool             `json:"apply_discount_10"`
	IncludeAnticipationFee bool             `json:"include_anticipation_fee"`
}

type DimensionsInput struct {
	Height   float64 `json:"height" validate:"gte=0"`
	Width    float64 `json:"width" validate:"gte=0"`
	Length   float64 `json:"length" validate:"gte=0"`
	WeightKG float64 `json:"weight_kg" validate:"gte=0"`
}

var requestValidator = validator.New()

func (r QuoteRequest) Validate() error {
	if err := requestValidator.Struct(r); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fields := make([]string, 0, len(validationErrs))
			for _, fieldErr := range validationErrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fieldErr.Namespace(), fieldErr.Tag()))
			}
			return fmt.Errorf("%w: invalid fields: %s", domain.ErrInvalidRequest, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if !r.PublishClassic && !r.PublishPremium {
		return fmt.Errorf("%w: select publish_classic, publish_premium or both", domain.ErrInvalidRequest)
	}

	return nil
}

func (r QuoteRequest) ToDomain() (domain.PricingRequest, error) {
	if err := r.Validate(); err != nil {
		return domain.PricingRequest{}, err
	}

	req := domain.PricingRequest{
		CostPrice:              r.CostPrice,
		DesiredProfit:          r.DesiredProfit,
		ProfitType:             domain.ProfitType(r.ProfitType),
		CategoryID:             strings.TrimSpace(r.ProductCategoryID),
		OfferFreeShipping:      r.OfferFreeShipping,
		OriginZip:              normalizeZip(r.OriginZip),
		ApplyDiscount:          r.ApplyDiscount10,
		IncludeAnticipationFee: r.IncludeAnticipationFee,
	}

	for _, nickname := range r.SelectedAccounts {
		req.Accounts = append(req.Accounts, domain.Nickname(strings.TrimSpace(nickname)))
	}
	if r.PublishClassic {
		req.Tiers = append(req.Tiers, domain.TierStandard)
	}
	if r.PublishPremium {
		req.Tiers = append(req.Tiers, domain.TierPremium)
	}
	if r.Dimensions != nil {
		req.Dimensions = &domain.Dimensions{
			HeightCM: r.Dimensions.Height,
			WidthCM:  r.Dimensions.Width,
			LengthCM: r.Dimensions.Length,
			WeightKG: r.Dimensions.WeightKG,
		}
	}

	return req, nil
}

// normalizeZip keeps the digits of a CEP, so "01001-000" becomes "01001000".
// A zip the shipping API cannot use fails per account, not per batch.
func normalizeZip(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
}
