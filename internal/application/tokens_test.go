package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/bnema/meli-relist-cli/internal/ports"
	"github.com/bnema/meli-relist-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager(t *testing.T) (*TokenManager, *mocks.MockTokenRefresher, *mocks.MockIdentityResolver, *mocks.MockCredentialStore) {
	t.Helper()

	refresher := mocks.NewMockTokenRefresher(t)
	identity := mocks.NewMockIdentityResolver(t)
	store := mocks.NewMockCredentialStore(t)
	manager := NewTokenManager(refresher, identity, store, fixedClock{now: testNow}, 0, discardLogger())

	return manager, refresher, identity, store
}

func TestTokenManagerEnsureValidSkipsRefreshForValidToken(t *testing.T) {
	t.Parallel()

	manager, _, _, _ := newTestTokenManager(t)
	account := validAccount("LOJA_A")

	updated, changed, err := manager.EnsureValid(context.Background(), account)
	require.NoError(t, err)

	assert.False(t, changed)
	assert.Equal(t, account, updated)
}

func TestTokenManagerEnsureValidRefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	manager, refresher, _, _ := newTestTokenManager(t)
	account := expiredAccount("LOJA_A")

	refresher.EXPECT().Refresh(mockAnyContext(), "rt-LOJA_A").Return(domain.TokenGrant{
		AccessToken: "at-new",
		ExpiresIn:   6 * time.Hour,
		UserID:      "777",
	}, nil).Once()

	updated, changed, err := manager.EnsureValid(context.Background(), account)
	require.NoError(t, err)

	assert.True(t, changed)
	assert.Equal(t, "at-new", updated.Credential.AccessToken)
	assert.Equal(t, "rt-LOJA_A", updated.Credential.RefreshToken)
	assert.Equal(t, testNow.Add(6*time.Hour), updated.Credential.ExpiresAt)
	assert.Equal(t, "777", updated.UserID)
	assert.True(t, updated.TokenValid(testNow))
}

func TestTokenManagerEnsureValidRefreshesMissingAccessToken(t *testing.T) {
	t.Parallel()

	manager, refresher, _, _ := newTestTokenManager(t)
	account := validAccount("LOJA_A")
	account.Credential.AccessToken = ""

	refresher.EXPECT().Refresh(mockAnyContext(), "rt-LOJA_A").Return(domain.TokenGrant{
		AccessToken:  "at-new",
		RefreshToken: "rt-rotated",
	}, nil).Once()

	updated, changed, err := manager.EnsureValid(context.Background(), account)
	require.NoError(t, err)

	assert.True(t, changed)
	assert.Equal(t, "rt-rotated", updated.Credential.RefreshToken)
	assert.Equal(t, testNow.Add(defaultTokenLifetime), updated.Credential.ExpiresAt)
}

func TestTokenManagerEnsureValidNeverReturnsExpiredToken(t *testing.T) {
	t.Parallel()

	for _, expiresAt := range []time.Time{testNow, testNow.Add(-24 * time.Hour), {}} {
		manager, refresher, _, _ := newTestTokenManager(t)
		account := validAccount("LOJA_A")
		account.Credential.ExpiresAt = expiresAt

		refresher.EXPECT().Refresh(mockAnyContext(), "rt-LOJA_A").Return(domain.TokenGrant{AccessToken: "at-new", ExpiresIn: time.Second}, nil).Once()

		updated, _, err := manager.EnsureValid(context.Background(), account)
		require.NoError(t, err)
		assert.True(t, updated.Credential.ExpiresAt.After(testNow))
	}
}

func TestTokenManagerEnsureValidFailures(t *testing.T) {
	t.Parallel()

	t.Run("no refresh token", func(t *testing.T) {
		t.Parallel()

		manager, _, _, _ := newTestTokenManager(t)
		account := expiredAccount("LOJA_A")
		account.Credential.RefreshToken = ""

		_, changed, err := manager.EnsureValid(context.Background(), account)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrRefreshUnavailable)
		assert.False(t, changed)
	})

	t.Run("rejected refresh token", func(t *testing.T) {
		t.Parallel()

		manager, refresher, _, _ := newTestTokenManager(t)
		refresher.EXPECT().Refresh(mockAnyContext(), "rt-LOJA_A").
			Return(domain.TokenGrant{}, errors.Join(domain.ErrRefreshRejected, errors.New("invalid_grant"))).Once()

		_, changed, err := manager.EnsureValid(context.Background(), expiredAccount("LOJA_A"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrRefreshRejected)
		assert.Contains(t, err.Error(), "LOJA_A")
		assert.False(t, changed)
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		manager, refresher, _, _ := newTestTokenManager(t)
		refresher.EXPECT().Refresh(mockAnyContext(), "rt-LOJA_A").Return(domain.TokenGrant{}, errors.New("connection reset")).Once()

		_, _, err := manager.EnsureValid(context.Background(), expiredAccount("LOJA_A"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrRefreshFailed)
	})

	t.Run("grant without access token", func(t *testing.T) {
		t.Parallel()

		manager, refresher, _, _ := newTestTokenManager(t)
		refresher.EXPECT().Refresh(mockAnyContext(), "rt-LOJA_A").Return(domain.TokenGrant{RefreshToken: "rt-x"}, nil).Once()

		_, changed, err := manager.EnsureValid(context.Background(), expiredAccount("LOJA_A"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrRefreshFailed)
		assert.False(t, changed)
	})
}

func TestTokenManagerEnsureValidResolvesSellerID(t *testing.T) {
	t.Parallel()

	manager, _, identity, _ := newTestTokenManager(t)
	account := validAccount("LOJA_A")
	account.SellerID = ""

	identity.EXPECT().CurrentUser(mockAnyContext(), "at-LOJA_A").Return(domain.Identity{ID: "123456", Nickname: "LOJA_A"}, nil).Once()

	updated, changed, err := manager.EnsureValid(context.Background(), account)
	require.NoError(t, err)

	assert.True(t, changed)
	assert.Equal(t, "123456", updated.SellerID)
}

func TestTokenManagerEnsureValidKeepsRefreshWhenIdentityFails(t *testing.T) {
	t.Parallel()

	manager, refresher, identity, _ := newTestTokenManager(t)
	account := expiredAccount("LOJA_A")
	account.SellerID = ""

	refresher.EXPECT().Refresh(mockAnyContext(), "rt-LOJA_A").Return(domain.TokenGrant{AccessToken: "at-new"}, nil).Once()
	identity.EXPECT().CurrentUser(mockAnyContext(), "at-new").Return(domain.Identity{}, errors.New("status 500")).Once()

	updated, changed, err := manager.EnsureValid(context.Background(), account)
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrIdentityResolutionFailed)
	assert.True(t, changed)
	assert.Equal(t, "at-new", updated.Credential.AccessToken)
	assert.Empty(t, updated.SellerID)
}

func TestTokenManagerRefreshPersistsWithCompareAndSwap(t *testing.T) {
	t.Parallel()

	manager, refresher, _, store := newTestTokenManager(t)

	store.EXPECT().Load(mockAnyContext()).Return(map[domain.Nickname]domain.Account{
		"LOJA_A": expiredAccount("LOJA_A"),
	}, nil).Once()
	refresher.EXPECT().Refresh(mockAnyContext(), "rt-LOJA_A").Return(domain.TokenGrant{AccessToken: "at-new", RefreshToken: "rt-new"}, nil).Once()

	var saved []ports.CredentialChange
	store.EXPECT().Save(mockAnyContext(), mockAnyContext()).
		Run(func(_ context.Context, changes []ports.CredentialChange) { saved = changes }).
		Return(ports.SaveReport{Written: []domain.Nickname{"LOJA_A"}}, nil).Once()

	updated, err := manager.Refresh(context.Background(), "LOJA_A")
	require.NoError(t, err)

	require.Len(t, saved, 1)
	assert.Equal(t, "rt-LOJA_A", saved[0].ExpectedRefreshToken)
	assert.Equal(t, "rt-new", saved[0].Account.Credential.RefreshToken)
	assert.Equal(t, updated, saved[0].Account)
}

func TestTokenManagerRefreshReportsConflict(t *testing.T) {
	t.Parallel()

	manager, refresher, _, store := newTestTokenManager(t)

	store.EXPECT().Load(mockAnyContext()).Return(map[domain.Nickname]domain.Account{
		"LOJA_A": expiredAccount("LOJA_A"),
	}, nil).Once()
	refresher.EXPECT().Refresh(mockAnyContext(), "rt-LOJA_A").Return(domain.TokenGrant{AccessToken: "at-new"}, nil).Once()
	store.EXPECT().Save(mockAnyContext(), mockAnyContext()).Return(ports.SaveReport{Conflicts: []domain.Nickname{"LOJA_A"}}, nil).Once()

	_, err := manager.Refresh(context.Background(), "LOJA_A")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCredentialConflict)
}

func TestTokenManagerRefreshUnknownAccount(t *testing.T) {
	t.Parallel()

	manager, _, _, store := newTestTokenManager(t)
	store.EXPECT().Load(mockAnyContext()).Return(map[domain.Nickname]domain.Account{}, nil).Once()

	_, err := manager.Refresh(context.Background(), "GHOST")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestTokenManagerRefreshValidTokenWritesNothing(t *testing.T) {
	t.Parallel()

	manager, _, _, store := newTestTokenManager(t)
	store.EXPECT().Load(mockAnyContext()).Return(map[domain.Nickname]domain.Account{
		"LOJA_A": validAccount("LOJA_A"),
	}, nil).Once()

	updated, err := manager.Refresh(context.Background(), "LOJA_A")
	require.NoError(t, err)
	assert.Equal(t, "at-LOJA_A", updated.Credential.AccessToken)
}

func TestTokenManagerRefreshAllSavesOnce(t *testing.T) {
	t.Parallel()

	manager, refresher, _, store := newTestTokenManager(t)

	store.EXPECT().Load(mockAnyContext()).Return(map[domain.Nickname]domain.Account{
		"LOJA_C": expiredAccount("LOJA_C"),
		"LOJA_A": validAccount("LOJA_A"),
		"LOJA_B": expiredAccount("LOJA_B"),
	}, nil).Once()
	refresher.EXPECT().Refresh(mockAnyContext(), "rt-LOJA_B").Return(domain.TokenGrant{}, domain.ErrRefreshRejected).Once()
	refresher.EXPECT().Refresh(mockAnyContext(), "rt-LOJA_C").Return(domain.TokenGrant{AccessToken: "at-new"}, nil).Once()

	var saved []ports.CredentialChange
	store.EXPECT().Save(mockAnyContext(), mockAnyContext()).
		Run(func(_ context.Context, changes []ports.CredentialChange) { saved = changes }).
		Return(ports.SaveReport{Written: []domain.Nickname{"LOJA_C"}}, nil).Once()

	outcomes, err := manager.RefreshAll(context.Background())
	require.NoError(t, err)

	require.Len(t, outcomes, 3)
	assert.Equal(t, domain.Nickname("LOJA_A"), outcomes[0].Nickname)
	assert.False(t, outcomes[0].Refreshed)
	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, domain.ErrRefreshRejected)
	assert.True(t, outcomes[2].Refreshed)

	require.Len(t, saved, 1)
	assert.Equal(t, domain.Nickname("LOJA_C"), saved[0].Account.Nickname)
}

func TestTokenManagerRefreshAllSurfacesStoreFailure(t *testing.T) {
	t.Parallel()

	manager, refresher, _, store := newTestTokenManager(t)

	store.EXPECT().Load(mockAnyContext()).Return(map[domain.Nickname]domain.Account{
		"LOJA_A": expiredAccount("LOJA_A"),
	}, nil).Once()
	refresher.EXPECT().Refresh(mockAnyContext(), "rt-LOJA_A").Return(domain.TokenGrant{AccessToken: "at-new"}, nil).Once()
	store.EXPECT().Save(mockAnyContext(), mockAnyContext()).Return(ports.SaveReport{}, errors.New("disk full")).Once()

	outcomes, err := manager.RefreshAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistenceWriteFailed)
	assert.Len(t, outcomes, 1)
}

func TestTokenManagerTreatsExpiryInstantAsExpired(t *testing.T) {
	t.Parallel()

	account := validAccount("LOJA_A")
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(account.Credential.ExpiresAt).Once()

	refresher := mocks.NewMockTokenRefresher(t)
	refresher.EXPECT().Refresh(mockAnyContext(), "rt-LOJA_A").Return(domain.TokenGrant{
		AccessToken: "at-boundary",
		ExpiresIn:   time.Hour,
	}, nil).Once()

	manager := NewTokenManager(refresher, mocks.NewMockIdentityResolver(t), mocks.NewMockCredentialStore(t), clock, 0, discardLogger())

	updated, changed, err := manager.EnsureValid(context.Background(), account)
	require.NoError(t, err)

	assert.True(t, changed)
	assert.Equal(t, "at-boundary", updated.Credential.AccessToken)
	assert.Equal(t, account.Credential.ExpiresAt.Add(time.Hour), updated.Credential.ExpiresAt)
}
