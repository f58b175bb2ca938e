package client

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

	"LaCarte/internal/domain"
)

// Client calls the LaCarte server on behalf of the CLI.
type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

// New builds a client; jar carries the server-tier session cookie.
func New(baseURL string, timeout time.Duration, jar http.CookieJar, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   strings.TrimSuffix(baseURL, "/"),
		http:   &http.Client{Timeout: timeout, Jar: jar},
		logger: logger,
	}
}

// Load calls GET /api/load.
func (c *Client) Load(ctx context.Context, refresh bool) (domain.PageLoad, error) {
	query := url.Values{"refresh": []string{strconv.FormatBool(refresh)}}

	var page domain.PageLoad
	if err := c.get(ctx, "/api/load?"+query.Encode(), &page); err != nil {
		return domain.PageLoad{}, err
	}
	c.logger.Debug("server load", "refresh", refresh, "fetched", page.Fetched, "pieces", len(page.Pieces))
	return page, nil
}

// Me returns the Reddit profile proxied by the server.
func (c *Client) Me(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/api/user/reddit", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
