package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/bnema/meli-relist-cli/internal/ports"
	"golang.org/x/oauth2"
)

type OAuthOptions struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// OAuth runs the refresh grant and the authorization-code grant with PKCE
// against the marketplace token endpoint.
type OAuth struct {
	config     oauth2.Config
	httpClient *http.Client
	timeout    time.Duration
}

var _ ports.TokenRefresher = (*OAuth)(nil)

func NewOAuth(opts OAuthOptions) *OAuth {
	return &OAuth{
		config: oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.AuthURL,
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
	}
}

func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (domain.TokenGrant, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return domain.TokenGrant{}, domain.ErrRefreshUnavailable
	}

	requestCtx, cancel := requestContext(o.clientContext(ctx), o.timeout)
	defer cancel()

	token, err := o.config.TokenSource(requestCtx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return domain.TokenGrant{}, classifyTokenError(err)
	}

	grant := grantFromToken(token)
	if grant.RefreshToken == "" {
		grant.RefreshToken = refreshToken
	}
	return grant, nil
}

// AuthCodeURL builds the consent URL for a PKCE authorization-code flow.
func (o *OAuth) AuthCodeURL(state string, verifier string, redirectURI string) string {
	cfg := o.config
	cfg.RedirectURL = redirectURI
	return cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (o *OAuth) Exchange(ctx context.Context, code string, verifier string, redirectURI string) (domain.TokenGrant, error) {
	if strings.TrimSpace(code) == "" {
		return domain.TokenGrant{}, errors.New("authorization code is required")
	}

	cfg := o.config
	cfg.RedirectURL = redirectURI

	requestCtx, cancel := requestContext(o.clientContext(ctx), o.timeout)
	defer cancel()

	token, err := cfg.Exchange(requestCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return domain.TokenGrant{}, classifyTokenError(err)
	}

	return grantFromToken(token), nil
}

func (o *OAuth) clientContext(ctx context.Context) context.Context {
	if o.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
}

func classifyTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		// 5xx answers leave the stored refresh token usable.
		switch {
		case status >= http.StatusInternalServerError:
			return fmt.Errorf("%w: status %d: %s", domain.ErrRefreshFailed, status, retrieveSnippet(retrieveErr))
		case retrieveErr.ErrorCode != "":
			return fmt.Errorf("%w: status %d: %s", domain.ErrRefreshRejected, status, formatRetrieveError(retrieveErr))
		case status >= http.StatusBadRequest:
			return fmt.Errorf("%w: status %d", domain.ErrRefreshRejected, status)
		default:
			return fmt.Errorf("%w: status %d: %s", domain.ErrRefreshFailed, status, retrieveSnippet(retrieveErr))
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrRefreshFailed, err)
}

func formatRetrieveError(err *oauth2.RetrieveError) string {
	if err.ErrorDescription != "" {
		return err.ErrorCode + ": " + err.ErrorDescription
	}
	return err.ErrorCode
}

func retrieveSnippet(err *oauth2.RetrieveError) string {
	if err.ErrorCode != "" {
		return formatRetrieveError(err)
	}
	return readSnippet(bytes.NewReader(err.Body))
}

func grantFromToken(token *oauth2.Token) domain.TokenGrant {
	grant := domain.TokenGrant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		UserID:       extraString(token, "user_id"),
	}

	if seconds, ok := extraSeconds(token, "expires_in"); ok {
		grant.ExpiresIn = time.Duration(seconds) * time.Second
	} else if !token.Expiry.IsZero() {
		grant.ExpiresIn = time.Until(token.Expiry).Round(time.Second)
	}

	return grant
}

func extraString(token *oauth2.Token, key string) string {
	switch value := token.Extra(key).(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case json.Number:
		return value.String()
	default:
		return ""
	}
}

func extraSeconds(token *oauth2.Token, key string) (int64, bool) {
	switch value := token.Extra(key).(type) {
	case float64:
		return int64(value), value > 0
	case string:
		parsed, err := strconv.ParseInt(value, 10, 64)
		return parsed, err == nil && parsed > 0
	case json.Number:
		parsed, err := value.Int64()
		return parsed, err == nil && parsed > 0
	default:
		return 0, false
	}
}
