package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	for i := range s.Accounts {
		if s.Accounts[i].ShippingMode == "" {
			s.Accounts[i].ShippingMode = "me2"
		}
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported accounts schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

func (s fileSchema) indexOf(nickname string) int {
	for i, entry := range s.Accounts {
		if entry.Nickname == nickname {
			return i
		}
	}
	return -1
}

// accountSchema holds everything except the token pair, which lives in the
// secret store under SecretRef.
type accountSchema struct {
	Nickname     string `toml:"nickname"`
	SellerID     string `toml:"seller_id,omitempty"`
	UserID       string `toml:"user_id,omitempty"`
	ShippingMode string `toml:"shipping_mode"`
	ExpiresAt    string `toml:"expires_at,omitempty"`
	SecretRef    string `toml:"secret_ref"`
	UpdatedAt    string `toml:"updated_at,omitempty"`
}

type tokenSecret struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
