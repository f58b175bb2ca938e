package llm

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// StatusError is a non-2xx answer from the model provider.
type StatusError struct {
	StatusCode int
	Body       string
	retryAfter time.Duration
	hasHint    bool
}

// NewStatusError builds a StatusError from a response, reading its retry-after header.
func NewStatusError(status int, header http.Header, body string) *StatusError {
	e := &StatusError{StatusCode: status, Body: strings.TrimSpace(body)}
	if header != nil {
		e.retryAfter, e.hasHint = parseRetryAfter(header.Get("Retry-After"))
	}
	return e
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("model provider returned %d", e.StatusCode)
	}
	return fmt.Sprintf("model provider returned %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus exposes the status to the retry policy.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// RetryAfter returns the provider's retry-after hint, if any.
func (e *StatusError) RetryAfter() (time.Duration, bool) { return e.retryAfter, e.hasHint }

// parseRetryAfter reads the header as (possibly fractional) seconds.
func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)).Round(time.Millisecond), true
}

// statusDoer turns provider error responses into StatusError before the SDK
// consumes them, so the retry-after header is not lost.
type statusDoer struct {
	client *http.Client
}

func (d statusDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return nil, NewStatusError(resp.StatusCode, resp.Header, string(body))
}

// normalizeError maps SDK error types onto StatusError where a status is known.
func normalizeError(err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &StatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &StatusError{StatusCode: reqErr.HTTPStatusCode, Body: string(reqErr.Body)}
	}

	return err
}
