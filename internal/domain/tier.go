package domain

import (
	"fmt"
	"strings"
)

type Tier string

const (
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

const (
	ListingTypeGoldSpecial = "gold_special"
	ListingTypeGoldPro     = "gold_pro"
)

func ParseTier(raw string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "standard", "classic", ListingTypeGoldSpecial:
		return TierStandard, nil
	case "premium", ListingTypeGoldPro:
		return TierPremium, nil
	default:
		return "", fmt.Errorf("unsupported tier %q", raw)
	}
}

// ListingTypeID maps the tier onto the marketplace listing type.
func (t Tier) ListingTypeID() string {
	if t == TierPremium {
		return ListingTypeGoldPro
	}
	return ListingTypeGoldSpecial
}

// Label is the name sellers know the tier by.
func (t Tier) Label() string {
	if t == TierPremium {
		return "premium"
	}
	return "classic"
}

func (t Tier) Valid() bool {
	return t == TierStandard || t == TierPremium
}
