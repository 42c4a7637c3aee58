package marketplace

import (
	"context"
	"net/http"
	"testing"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentUserParsesNumericID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":123456789012,"nickname":"LOJA_A"}`))
	})

	identity, err := client.CurrentUser(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, "123456789012", identity.ID)
	assert.Equal(t, "LOJA_A", identity.Nickname)
}

func TestCurrentUserWrapsFailures(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid_token"}`))
	})

	_, err := client.CurrentUser(context.Background(), "at")
	require.ErrorIs(t, err, domain.ErrIdentityResolutionFailed)
	assert.Contains(t, err.Error(), "status 401")

	_, err = client.CurrentUser(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrIdentityResolutionFailed)
}

func TestCurrentUserRejectsMissingID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"nickname":"LOJA_A"}`))
	})

	_, err := client.CurrentUser(context.Background(), "at")
	require.ErrorIs(t, err, domain.ErrIdentityResolutionFailed)
}
