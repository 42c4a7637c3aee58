package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/meli-relist-cli/internal/ports"
)

const (
	maxResponseBytes = 1 << 20
	maxErrorSnippet  = 150
	defaultSiteID    = "MLB"
	defaultCurrency  = "BRL"
	defaultTimeout   = 20 * time.Second
)

type Options struct {
	BaseURL         string
	SiteID          string
	CurrencyID      string
	UserAgent       string
	HTTPClient      *http.Client
	IdentityTimeout time.Duration
	FeeTimeout      time.Duration
	ShippingTimeout time.Duration
	Fees            FeeFallback
	Logger          *slog.Logger
}

// FeeFallback is the schedule applied when the platform cannot quote a fee,
// plus the site floor for low-priced items.
type FeeFallback struct {
	StandardRate      float64
	PremiumRate       float64
	FixedFee          float64
	LowPriceThreshold float64
	LowPriceFixedFee  float64
}

func DefaultFeeFallback() FeeFallback {
	return FeeFallback{
		StandardRate:      0.15,
		PremiumRate:       0.19,
		FixedFee:          6.00,
		LowPriceThreshold: 79.00,
		LowPriceFixedFee:  6.00,
	}
}

// Client talks to the marketplace REST API for identity, listing fees and
// shipping subsidies.
type Client struct {
	opts   Options
	logger *slog.Logger
}

var (
	_ ports.IdentityResolver  = (*Client)(nil)
	_ ports.FeeQuoter         = (*Client)(nil)
	_ ports.ShippingEstimator = (*Client)(nil)
)

func NewClient(opts Options) *Client {
	if opts.SiteID == "" {
		opts.SiteID = defaultSiteID
	}
	if opts.CurrencyID == "" {
		opts.CurrencyID = defaultCurrency
	}
	if opts.Fees == (FeeFallback{}) {
		opts.Fees = DefaultFeeFallback()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{opts: opts, logger: logger}
}

// APIError is a non-2xx answer from the marketplace.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) getJSON(ctx context.Context, timeout time.Duration, path string, query url.Values, accessToken string, out any) error {
	endpoint, err := buildAPIURL(c.opts.BaseURL, path)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	requestCtx, cancel := requestContext(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{StatusCode: resp.StatusCode, Body: readSnippet(resp.Body)}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.opts.HTTPClient != nil {
		return c.opts.HTTPClient
	}
	return http.DefaultClient
}

func requestContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return context.WithTimeout(ctx, timeout)
}

func readSnippet(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorSnippet))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
