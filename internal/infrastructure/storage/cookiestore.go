package storage

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"LaCarte/internal/ports"
)

// GinCookieStore exposes the cookies of one gin request as a ports.KVStore.
// Reads see the request cookies; writes go to the response.
type GinCookieStore struct {
	c      *gin.Context
	path   string
	maxAge int
}

var _ ports.KVStore = (*GinCookieStore)(nil)

// NewGinCookieStore scopes written cookies to path. maxAge 0 writes session cookies.
func NewGinCookieStore(c *gin.Context, path string, maxAge int) *GinCookieStore {
	if path == "" {
		path = "/"
	}
	return &GinCookieStore{c: c, path: path, maxAge: maxAge}
}

func (s *GinCookieStore) Get(_ context.Context, key string) (string, bool, error) {
	value, err := s.c.Cookie(key)
	if errors.Is(err, http.ErrNoCookie) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *GinCookieStore) Set(_ context.Context, key, value string) error {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(key, value, s.maxAge, s.path, "", false, true)
	return nil
}
