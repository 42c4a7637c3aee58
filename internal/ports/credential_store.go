package ports

import (
	"context"

	"github.com/bnema/meli-relist-cli/internal/domain"
)

// CredentialChange is a record to write back together with the refresh token
// observed when it was loaded. The store skips the write when the stored
// refresh token no longer matches.
type CredentialChange struct {
	Account              domain.Account
	ExpectedRefreshToken string
}

type SaveReport struct {
	Written   []domain.Nickname
	Conflicts []domain.Nickname
}

type CredentialStore interface {
	Load(ctx context.Context) (map[domain.Nickname]domain.Account, error)
	Save(ctx context.Context, changes []CredentialChange) (SaveReport, error)
	Remove(ctx context.Context, nickname domain.Nickname) error
}
