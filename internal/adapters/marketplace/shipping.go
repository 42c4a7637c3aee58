package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bnema/meli-relist-cli/internal/domain"
)

type freeShippingResponse struct {
	Coverage struct {
		AllCountry struct {
			ListCost *float64 `json:"list_cost"`
		} `json:"all_country"`
		Discount struct {
			Rate           float64  `json:"rate"`
			PromotedAmount *float64 `json:"promoted_amount"`
		} `json:"discount"`
	} `json:"coverage"`
}

func (c *Client) EstimateShipping(ctx context.Context, query domain.ShippingQuery) (domain.ShippingEstimate, error) {
	if err := validateShippingQuery(query); err != nil {
		return domain.ShippingEstimate{}, err
	}

	params := url.Values{}
	params.Set("item_price", strconv.FormatFloat(domain.Round2(query.ReferencePrice), 'f', 2, 64))
	params.Set("listing_type_id", query.Tier.ListingTypeID())
	params.Set("category_id", query.CategoryID)
	params.Set("condition", "new")
	params.Set("mode", "me2")
	params.Set("logistic_type", "drop_off")
	params.Set("verbose", "true")
	params.Set("currency_id", c.opts.CurrencyID)
	if query.Dimensions != nil && query.Dimensions.Complete() {
		params.Set("dimensions", query.Dimensions.String())
	}
	if zip := strings.TrimSpace(query.OriginZip); zip != "" {
		params.Set("zip_code", zip)
	}

	var payload freeShippingResponse
	path := "/users/" + url.PathEscape(query.SellerID) + "/shipping_options/free"
	if err := c.getJSON(ctx, c.opts.ShippingTimeout, path, params, query.AccessToken, &payload); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return domain.ShippingEstimate{}, fmt.Errorf("%w: status %d: %s", domain.ErrShippingEstimateFailed, apiErr.StatusCode, apiErr.Body)
		}
		return domain.ShippingEstimate{}, fmt.Errorf("%w: %w", domain.ErrShippingEstimateFailed, err)
	}

	listCost := payload.Coverage.AllCountry.ListCost
	if listCost == nil {
		c.logger.Info("no shipping subsidy reported", "seller_id", query.SellerID, "category_id", query.CategoryID)
		return domain.ShippingEstimate{Applicable: false}, nil
	}

	promoted := *listCost
	if payload.Coverage.Discount.PromotedAmount != nil {
		promoted = *payload.Coverage.Discount.PromotedAmount
	}

	return domain.ShippingEstimate{
		Cost:           domain.Round2(*listCost),
		ListCost:       domain.Round2(*listCost),
		PromotedAmount: domain.Round2(promoted),
		DiscountRate:   payload.Coverage.Discount.Rate,
		Applicable:     true,
	}, nil
}

func validateShippingQuery(query domain.ShippingQuery) error {
	var missing []string
	if strings.TrimSpace(query.AccessToken) == "" {
		missing = append(missing, "access token")
	}
	if strings.TrimSpace(query.SellerID) == "" {
		missing = append(missing, "seller id")
	}
	if !query.Tier.Valid() {
		missing = append(missing, "tier")
	}
	if strings.TrimSpace(query.CategoryID) == "" {
		missing = append(missing, "category")
	}
	if query.Subsidized {
		if query.Dimensions == nil || !query.Dimensions.Complete() {
			missing = append(missing, "dimensions")
		}
		if strings.TrimSpace(query.OriginZip) == "" {
			missing = append(missing, "origin zip")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrShippingInputsMissing, strings.Join(missing, ", "))
	}
	return nil
}
