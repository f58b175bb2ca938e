package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"LaCarte/internal/config"
	"LaCarte/internal/domain"
	"LaCarte/internal/metrics"
	"LaCarte/internal/ports"
)

const (
	mePath        = "/api/v1/me"
	errorBodySize = 2048
)

// Client talks to the Reddit OAuth API on behalf of one account.
type Client struct {
	base      string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

var _ ports.AccountSource = (*Client)(nil)

// NewClient builds an API client. An empty token sends unauthenticated
// requests, which Reddit answers with 401 on the OAuth host.
func NewClient(cfg config.RedditConfig, logger *slog.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{Timeout: 20 * time.Second}
	if cfg.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "bearer"})
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, src)
		httpClient.Timeout = 20 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "lacarte/1.0"
	}

	return &Client{
		base:      strings.TrimSuffix(cfg.APIBase, "/"),
		userAgent: userAgent,
		http:      httpClient,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
		metrics:   m,
	}
}

// Me returns the authenticated account profile untouched.
func (c *Client) Me(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, mePath, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.SourceRequest(path, "error")
		return fmt.Errorf("%w: reddit %s: %v", domain.ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	c.metrics.SourceRequest(path, strconv.Itoa(resp.StatusCode/100)+"xx")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySize))
		c.logger.Error("reddit api error",
			"path", path,
			"status", resp.StatusCode,
			"ratelimit_remaining", resp.Header.Get("X-Ratelimit-Remaining"),
			"ratelimit_reset", resp.Header.Get("X-Ratelimit-Reset"),
			"body", strings.TrimSpace(string(body)),
		)
		return fmt.Errorf("%w: reddit api returned %d", domain.ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode reddit %s: %v", domain.ErrUpstream, path, err)
	}
	return nil
}
