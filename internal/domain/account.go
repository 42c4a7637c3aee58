package domain

import (
	"fmt"
	"strings"
	"time"
)

// Nickname is the unique human-readable key of a linked seller account.
type Nickname string

type ShippingMode string

const (
	ShippingModeME2          ShippingMode = "me2"
	ShippingModeME1          ShippingMode = "me1"
	ShippingModeCustom       ShippingMode = "custom"
	ShippingModeNotSpecified ShippingMode = "not_specified"
)

func ParseShippingMode(raw string) (ShippingMode, error) {
	mode := ShippingMode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case "":
		return ShippingModeME2, nil
	case ShippingModeME2, ShippingModeME1, ShippingModeCustom, ShippingModeNotSpecified:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported shipping mode %q", raw)
	}
}

// SupportsFreeShipping reports whether the platform subsidy program applies.
// Only managed shipping takes part in it.
func (m ShippingMode) SupportsFreeShipping() bool {
	return m == "" || m == ShippingModeME2
}

type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type Account struct {
	Nickname     Nickname
	SellerID     string
	UserID       string
	ShippingMode ShippingMode
	Credential   Credential
}

func (a Account) TokenValid(now time.Time) bool {
	return a.Credential.AccessToken != "" && now.Before(a.Credential.ExpiresAt)
}

func (a Account) EffectiveShippingMode() ShippingMode {
	if a.ShippingMode == "" {
		return ShippingModeME2
	}
	return a.ShippingMode
}

// TokenGrant is what the platform hands back from a refresh or code exchange.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	UserID       string
}

type Identity struct {
	ID       string
	Nickname string
}
