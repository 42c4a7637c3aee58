package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bnema/meli-relist-cli/internal/domain"
)

type listingPrice struct {
	ListingTypeID  string          `json:"listing_type_id"`
	SaleFeeAmount  float64         `json:"sale_fee_amount"`
	SaleFeeDetails *saleFeeDetails `json:"sale_fee_details"`
}

type saleFeeDetails struct {
	PercentageFee float64 `json:"percentage_fee"`
	FixedFee      float64 `json:"fixed_fee"`
}

var errNoListingPrice = errors.New("no listing price entry")

// QuoteFee returns the listing fee at price. It never fails; when the
// platform cannot answer, the configured fallback schedule is returned with
// Approximate set.
func (c *Client) QuoteFee(ctx context.Context, accessToken string, categoryID string, price float64, tier domain.Tier) domain.FeeQuote {
	quote, err := c.fetchFee(ctx, accessToken, categoryID, price, tier)
	if err != nil {
		c.logger.Warn("using fallback fee schedule",
			"tier", string(tier),
			"category_id", categoryID,
			"price", price,
			"err", fmt.Errorf("%w: %w", domain.ErrFeeScheduleUnavailable, err),
		)
		return c.fallbackFee(price, tier)
	}

	return quote
}

func (c *Client) fetchFee(ctx context.Context, accessToken string, categoryID string, price float64, tier domain.Tier) (domain.FeeQuote, error) {
	if strings.TrimSpace(accessToken) == "" || strings.TrimSpace(categoryID) == "" || !tier.Valid() {
		return domain.FeeQuote{}, errors.New("missing fee inputs")
	}

	listingType := tier.ListingTypeID()
	query := url.Values{}
	query.Set("category_id", categoryID)
	query.Set("price", strconv.FormatFloat(domain.Round2(price), 'f', 2, 64))
	query.Set("listing_type_id", listingType)

	var raw json.RawMessage
	path := "/sites/" + url.PathEscape(c.opts.SiteID) + "/listing_prices"
	if err := c.getJSON(ctx, c.opts.FeeTimeout, path, query, accessToken, &raw); err != nil {
		return domain.FeeQuote{}, fmt.Errorf("request listing prices: %w", err)
	}

	entry, err := pickListingPrice(raw, listingType)
	if err != nil {
		return domain.FeeQuote{}, err
	}

	quote := domain.FeeQuote{TotalFee: entry.SaleFeeAmount}
	if entry.SaleFeeDetails != nil {
		quote.Rate = entry.SaleFeeDetails.PercentageFee / 100
		quote.FixedFee = entry.SaleFeeDetails.FixedFee
	}

	if quote.FixedFee == 0 && c.opts.SiteID == defaultSiteID && price < c.opts.Fees.LowPriceThreshold &&
		(listingType == domain.ListingTypeGoldSpecial || listingType == domain.ListingTypeGoldPro) {
		quote.FixedFee = c.opts.Fees.LowPriceFixedFee
	}

	if quote.Rate == 0 && price > 0 && quote.TotalFee > quote.FixedFee {
		quote.Rate = (quote.TotalFee - quote.FixedFee) / price
	}

	c.logger.Debug("listing fee quoted",
		"tier", string(tier),
		"price", price,
		"rate", quote.Rate,
		"fixed_fee", quote.FixedFee,
		"total_fee", quote.TotalFee,
	)

	return quote, nil
}

func pickListingPrice(raw json.RawMessage, listingType string) (listingPrice, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return listingPrice{}, errNoListingPrice
	}

	switch trimmed[0] {
	case '[':
		var entries []listingPrice
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return listingPrice{}, fmt.Errorf("decode listing prices: %w", err)
		}
		if len(entries) == 0 {
			return listingPrice{}, errNoListingPrice
		}
		for _, entry := range entries {
			if entry.ListingTypeID == listingType {
				return entry, nil
			}
		}
		return entries[0], nil
	case '{':
		var entry listingPrice
		if err := json.Unmarshal(trimmed, &entry); err != nil {
			return listingPrice{}, fmt.Errorf("decode listing price: %w", err)
		}
		if entry == (listingPrice{}) {
			return listingPrice{}, errNoListingPrice
		}
		return entry, nil
	default:
		return listingPrice{}, fmt.Errorf("unexpected listing prices payload %q", string(trimmed[:1]))
	}
}

func (c *Client) fallbackFee(price float64, tier domain.Tier) domain.FeeQuote {
	rate := c.opts.Fees.StandardRate
	if tier == domain.TierPremium {
		rate = c.opts.Fees.PremiumRate
	}

	return domain.FeeQuote{
		Rate:        rate,
		FixedFee:    c.opts.Fees.FixedFee,
		TotalFee:    price*rate + c.opts.Fees.FixedFee,
		Approximate: true,
	}
}
