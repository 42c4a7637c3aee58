package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/bnema/meli-relist-cli/internal/ports"
)

var ErrNicknameRequired = errors.New("account nickname is required")

// AccountService manages the set of linked seller accounts.
type AccountService struct {
	store           ports.CredentialStore
	tokens          *TokenManager
	identity        ports.IdentityResolver
	clock           ports.Clock
	defaultLifetime time.Duration
}

func NewAccountService(store ports.CredentialStore, tokens *TokenManager, identity ports.IdentityResolver, clock ports.Clock, defaultLifetime time.Duration) *AccountService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if defaultLifetime <= 0 {
		defaultLifetime = defaultTokenLifetime
	}

	return &AccountService{
		store:           store,
		tokens:          tokens,
		identity:        identity,
		clock:           clock,
		defaultLifetime: defaultLifetime,
	}
}

// List returns every linked account. With refresh set, expired tokens are
// renewed and persisted first; per-account refresh failures are reported in
// the row.
func (s *AccountService) List(ctx context.Context, refresh bool) ([]AccountView, error) {
	var outcomes []RefreshOutcome
	var refreshErr error
	if refresh {
		outcomes, refreshErr = s.tokens.RefreshAll(ctx)
		if refreshErr != nil && outcomes == nil {
			return nil, refreshErr
		}
	}

	accounts, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	views := NewAccountViews(accounts, s.clock.Now())
	failures := make(map[string]error, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failures[string(outcome.Nickname)] = outcome.Err
		}
	}
	for i := range views {
		if err, ok := failures[views[i].Nickname]; ok {
			views[i].Error = err.Error()
		}
	}

	return views, refreshErr
}

func (s *AccountService) Remove(ctx context.Context, nickname domain.Nickname) error {
	if strings.TrimSpace(string(nickname)) == "" {
		return ErrNicknameRequired
	}
	if err := s.store.Remove(ctx, nickname); err != nil {
		return fmt.Errorf("remove account %s: %w", nickname, err)
	}

	return nil
}

func (s *AccountService) SetShippingMode(ctx context.Context, nickname domain.Nickname, rawMode string) (domain.Account, error) {
	mode, err := domain.ParseShippingMode(rawMode)
	if err != nil {
		return domain.Account{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	accounts, err := s.store.Load(ctx)
	if err != nil {
		return domain.Account{}, fmt.Errorf("load accounts: %w", err)
	}
	account, ok := accounts[nickname]
	if !ok {
		return domain.Account{}, fmt.Errorf("%s: %w", nickname, domain.ErrAccountNotFound)
	}

	expected := account.Credential.RefreshToken
	account.ShippingMode = mode
	if err := s.save(ctx, account, expected); err != nil {
		return domain.Account{}, err
	}

	return account, nil
}

// Link stores the account behind a freshly exchanged authorization grant.
// The nickname and seller id come from the platform identity. Relinking an
// existing nickname replaces its credential but keeps its shipping mode
// unless a mode is given.
func (s *AccountService) Link(ctx context.Context, grant domain.TokenGrant, rawMode string) (domain.Account, error) {
	if grant.AccessToken == "" {
		return domain.Account{}, fmt.Errorf("%w: authorization response missing access token", domain.ErrRefreshFailed)
	}

	identity, err := s.identity.CurrentUser(ctx, grant.AccessToken)
	if err != nil {
		if !errors.Is(err, domain.ErrIdentityResolutionFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrIdentityResolutionFailed, err)
		}
		return domain.Account{}, err
	}
	if strings.TrimSpace(identity.Nickname) == "" {
		return domain.Account{}, fmt.Errorf("%w: platform returned no nickname", domain.ErrIdentityResolutionFailed)
	}

	accounts, err := s.store.Load(ctx)
	if err != nil {
		return domain.Account{}, fmt.Errorf("load accounts: %w", err)
	}

	nickname := domain.Nickname(identity.Nickname)
	existing, exists := accounts[nickname]

	mode := existing.EffectiveShippingMode()
	if rawMode != "" || !exists {
		mode, err = domain.ParseShippingMode(rawMode)
		if err != nil {
			return domain.Account{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
		}
	}

	lifetime := grant.ExpiresIn
	if lifetime <= 0 {
		lifetime = s.defaultLifetime
	}

	account := domain.Account{
		Nickname:     nickname,
		SellerID:     identity.ID,
		UserID:       grant.UserID,
		ShippingMode: mode,
		Credential: domain.Credential{
			AccessToken:  grant.AccessToken,
			RefreshToken: grant.RefreshToken,
			ExpiresAt:    s.clock.Now().Add(lifetime),
		},
	}
	if account.UserID == "" {
		account.UserID = identity.ID
	}

	if err := s.save(ctx, account, existing.Credential.RefreshToken); err != nil {
		return domain.Account{}, err
	}

	return account, nil
}

func (s *AccountService) save(ctx context.Context, account domain.Account, expected string) error {
	report, err := s.store.Save(ctx, []ports.CredentialChange{{Account: account, ExpectedRefreshToken: expected}})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistenceWriteFailed, err)
	}
	if len(report.Conflicts) > 0 {
		return fmt.Errorf("%s: %w", account.Nickname, domain.ErrCredentialConflict)
	}

	return nil
}
