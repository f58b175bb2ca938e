package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"

	"LaCarte/internal/ports"
)

const cookieKeyPrefix = "cookies/"

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CookieJar keeps cookies in a net/http/cookiejar and mirrors the root-path
// cookies of each host into a KVStore, so the server session survives
// between CLI runs.
type CookieJar struct {
	jar    *cookiejar.Jar
	store  ports.KVStore
	logger *slog.Logger

	mu       sync.Mutex
	hydrated map[string]bool
}

var _ http.CookieJar = (*CookieJar)(nil)

func NewCookieJar(store ports.KVStore, logger *slog.Logger) (*CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CookieJar{jar: jar, store: store, logger: logger, hydrated: make(map[string]bool)}, nil
}

func (j *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.hydrate(u)
	j.jar.SetCookies(u, cookies)
	j.save(u)
}

func (j *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.hydrate(u)
	return j.jar.Cookies(u)
}

func rootOf(u *url.URL) *url.URL {
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
}

// hydrate loads the persisted cookies of u's host once per process.
func (j *CookieJar) hydrate(u *url.URL) {
	if j.hydrated[u.Host] {
		return
	}
	j.hydrated[u.Host] = true

	raw, ok, err := j.store.Get(context.Background(), cookieKeyPrefix+u.Host)
	if err != nil {
		j.logger.Warn("cannot read cookies", "host", u.Host, "error", err)
		return
	}
	if !ok {
		return
	}
	var stored []storedCookie
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		j.logger.Warn("discarding corrupt cookies", "host", u.Host, "error", err)
		return
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: "/"})
	}
	j.jar.SetCookies(rootOf(u), cookies)
}

func (j *CookieJar) save(u *url.URL) {
	current := j.jar.Cookies(rootOf(u))
	stored := make([]storedCookie, 0, len(current))
	for _, c := range current {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		j.logger.Warn("cannot encode cookies", "host", u.Host, "error", err)
		return
	}
	if err := j.store.Set(context.Background(), cookieKeyPrefix+u.Host, string(raw)); err != nil {
		j.logger.Warn("cannot persist cookies", "host", u.Host, "error", err)
	}
}
