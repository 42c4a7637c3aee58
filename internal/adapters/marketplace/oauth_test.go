package marketplace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestOAuth(t *testing.T, handler http.HandlerFunc) *OAuth {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewOAuth(OAuthOptions{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		AuthURL:      "https://auth.example.com/authorization",
		TokenURL:     server.URL + "/oauth/token",
		HTTPClient:   server.Client(),
		Timeout:      time.Second,
	})
}

func TestRefreshSendsRefreshGrant(t *testing.T) {
	t.Parallel()

	oauth := newTestOAuth(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "client-123", r.Form.Get("client_id"))
		assert.Equal(t, "secret-456", r.Form.Get("client_secret"))
		assert.Equal(t, "rt-1", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-2","refresh_token":"rt-2","token_type":"bearer","expires_in":21600,"user_id":123456789}`))
	})

	grant, err := oauth.Refresh(context.Background(), "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "at-2", grant.AccessToken)
	assert.Equal(t, "rt-2", grant.RefreshToken)
	assert.Equal(t, 6*time.Hour, grant.ExpiresIn)
	assert.Equal(t, "123456789", grant.UserID)
}

func TestRefreshKeepsRefreshTokenWhenOmitted(t *testing.T) {
	t.Parallel()

	oauth := newTestOAuth(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-2","token_type":"bearer"}`))
	})

	grant, err := oauth.Refresh(context.Background(), "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "rt-1", grant.RefreshToken)
	assert.Zero(t, grant.ExpiresIn)
}

func TestRefreshClassifiesFailures(t *testing.T) {
	t.Parallel()

	oauth := newTestOAuth(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"refresh token revoked"}`))
	})

	_, err := oauth.Refresh(context.Background(), "rt-1")
	require.ErrorIs(t, err, domain.ErrRefreshRejected)
	assert.Contains(t, err.Error(), "invalid_grant")

	_, err = oauth.Refresh(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrRefreshUnavailable)

	unavailable := newTestOAuth(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream unavailable"))
	})
	_, err = unavailable.Refresh(context.Background(), "rt-1")
	require.ErrorIs(t, err, domain.ErrRefreshFailed)
	assert.NotErrorIs(t, err, domain.ErrRefreshRejected)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "upstream unavailable")

	serverError := newTestOAuth(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"server_error"}`))
	})
	_, err = serverError.Refresh(context.Background(), "rt-1")
	require.ErrorIs(t, err, domain.ErrRefreshFailed)

	unauthorized := newTestOAuth(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err = unauthorized.Refresh(context.Background(), "rt-1")
	require.ErrorIs(t, err, domain.ErrRefreshRejected)
	assert.Contains(t, err.Error(), "status 401")

	unreachable := NewOAuth(OAuthOptions{
		ClientID: "client-123",
		TokenURL: "http://127.0.0.1:1/oauth/token",
		Timeout:  time.Second,
	})
	_, err = unreachable.Refresh(context.Background(), "rt-1")
	require.ErrorIs(t, err, domain.ErrRefreshFailed)
}

func TestAuthCodeURLCarriesPKCEChallenge(t *testing.T) {
	t.Parallel()

	oauth := NewOAuth(OAuthOptions{
		ClientID: "client-123",
		AuthURL:  "https://auth.example.com/authorization",
		TokenURL: "https://api.example.com/oauth/token",
	})

	verifier := oauth2.GenerateVerifier()
	raw := oauth.AuthCodeURL("state-xyz", verifier, "http://localhost:8765/oauth/callback")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8765/oauth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), q.Get("code_challenge"))
}

func TestExchangeSendsVerifier(t *testing.T) {
	t.Parallel()

	oauth := newTestOAuth(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "code-abc", r.Form.Get("code"))
		assert.Equal(t, "verifier-xyz", r.Form.Get("code_verifier"))
		assert.Equal(t, "http://localhost:8765/oauth/callback", r.Form.Get("redirect_uri"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,"user_id":"42"}`))
	})

	grant, err := oauth.Exchange(context.Background(), "code-abc", "verifier-xyz", "http://localhost:8765/oauth/callback")
	require.NoError(t, err)
	assert.Equal(t, "at", grant.AccessToken)
	assert.Equal(t, "rt", grant.RefreshToken)
	assert.Equal(t, time.Hour, grant.ExpiresIn)
	assert.Equal(t, "42", grant.UserID)

	_, err = oauth.Exchange(context.Background(), "", "verifier-xyz", "http://localhost:8765/oauth/callback")
	require.Error(t, err)
}
