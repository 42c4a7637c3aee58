package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/bnema/meli-relist-cli/internal/ports"
)

const defaultTokenLifetime = 6 * time.Hour

// TokenManager keeps an account's access token valid and its seller id
// resolved.
type TokenManager struct {
	refresher       ports.TokenRefresher
	identity        ports.IdentityResolver
	store           ports.CredentialStore
	clock           ports.Clock
	defaultLifetime time.Duration
	logger          *slog.Logger
}

func NewTokenManager(refresher ports.TokenRefresher, identity ports.IdentityResolver, store ports.CredentialStore, clock ports.Clock, defaultLifetime time.Duration, logger *slog.Logger) *TokenManager {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if defaultLifetime <= 0 {
		defaultLifetime = defaultTokenLifetime
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TokenManager{
		refresher:       refresher,
		identity:        identity,
		store:           store,
		clock:           clock,
		defaultLifetime: defaultLifetime,
		logger:          logger,
	}
}

// EnsureValid refreshes the access token when it is missing or expired and
// resolves the seller id when absent. changed reports whether the returned
// record differs from the input and must be persisted, which can be true
// even when err is not nil.
func (m *TokenManager) EnsureValid(ctx context.Context, account domain.Account) (domain.Account, bool, error) {
	changed := false
	now := m.clock.Now()

	if !account.TokenValid(now) {
		if account.Credential.RefreshToken == "" {
			return account, false, fmt.Errorf("%s: %w", account.Nickname, domain.ErrRefreshUnavailable)
		}

		grant, err := m.refresher.Refresh(ctx, account.Credential.RefreshToken)
		if err != nil {
			return account, false, fmt.Errorf("%s: %w", account.Nickname, classifyRefreshError(err))
		}
		if grant.AccessToken == "" {
			return account, false, fmt.Errorf("%s: %w: response missing access token", account.Nickname, domain.ErrRefreshFailed)
		}

		lifetime := grant.ExpiresIn
		if lifetime <= 0 {
			lifetime = m.defaultLifetime
		}

		account.Credential.AccessToken = grant.AccessToken
		if grant.RefreshToken != "" {
			account.Credential.RefreshToken = grant.RefreshToken
		}
		account.Credential.ExpiresAt = now.Add(lifetime)
		if grant.UserID != "" {
			account.UserID = grant.UserID
		}
		changed = true

		m.logger.Info("access token refreshed", "nickname", string(account.Nickname), "expires_at", account.Credential.ExpiresAt)
	}

	if account.SellerID == "" {
		identity, err := m.identity.CurrentUser(ctx, account.Credential.AccessToken)
		if err != nil {
			if !errors.Is(err, domain.ErrIdentityResolutionFailed) {
				err = fmt.Errorf("%w: %w", domain.ErrIdentityResolutionFailed, err)
			}
			return account, changed, fmt.Errorf("%s: %w", account.Nickname, err)
		}
		account.SellerID = identity.ID
		changed = true
	}

	return account, changed, nil
}

// Refresh ensures one account is valid and persists the result immediately.
func (m *TokenManager) Refresh(ctx context.Context, nickname domain.Nickname) (domain.Account, error) {
	accounts, err := m.store.Load(ctx)
	if err != nil {
		return domain.Account{}, fmt.Errorf("load accounts: %w", err)
	}

	account, ok := accounts[nickname]
	if !ok {
		return domain.Account{}, fmt.Errorf("%s: %w", nickname, domain.ErrAccountNotFound)
	}

	expected := account.Credential.RefreshToken
	updated, changed, ensureErr := m.EnsureValid(ctx, account)
	if changed {
		if err := m.persist(ctx, []ports.CredentialChange{{Account: updated, ExpectedRefreshToken: expected}}); err != nil {
			return updated, errors.Join(ensureErr, err)
		}
	}

	return updated, ensureErr
}

type RefreshOutcome struct {
	Nickname  domain.Nickname
	Refreshed bool
	Err       error
}

// RefreshAll ensures every stored account, then saves all changed records
// in a single write.
func (m *TokenManager) RefreshAll(ctx context.Context) ([]RefreshOutcome, error) {
	accounts, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	nicknames := make([]domain.Nickname, 0, len(accounts))
	for nickname := range accounts {
		nicknames = append(nicknames, nickname)
	}
	sort.Slice(nicknames, func(i, j int) bool { return nicknames[i] < nicknames[j] })

	outcomes := make([]RefreshOutcome, 0, len(nicknames))
	var changes []ports.CredentialChange
	for _, nickname := range nicknames {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, RefreshOutcome{Nickname: nickname, Err: err})
			continue
		}

		account := accounts[nickname]
		updated, changed, ensureErr := m.EnsureValid(ctx, account)
		if changed {
			changes = append(changes, ports.CredentialChange{Account: updated, ExpectedRefreshToken: account.Credential.RefreshToken})
		}
		outcomes = append(outcomes, RefreshOutcome{
			Nickname:  nickname,
			Refreshed: updated.Credential.AccessToken != account.Credential.AccessToken,
			Err:       ensureErr,
		})
	}

	if len(changes) == 0 {
		return outcomes, nil
	}

	return outcomes, m.persist(context.WithoutCancel(ctx), changes)
}

func (m *TokenManager) persist(ctx context.Context, changes []ports.CredentialChange) error {
	report, err := m.store.Save(ctx, changes)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistenceWriteFailed, err)
	}

	if len(report.Conflicts) == 0 {
		return nil
	}

	var conflictErr error
	for _, nickname := range report.Conflicts {
		m.logger.Warn("credential changed concurrently, keeping stored record", "nickname", string(nickname))
		conflictErr = errors.Join(conflictErr, fmt.Errorf("%s: %w", nickname, domain.ErrCredentialConflict))
	}
	return conflictErr
}

func classifyRefreshError(err error) error {
	switch {
	case errors.Is(err, domain.ErrRefreshRejected),
		errors.Is(err, domain.ErrRefreshFailed),
		errors.Is(err, domain.ErrRefreshUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrRefreshFailed, err)
	}
}
