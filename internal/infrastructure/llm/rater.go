package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"LaCarte/internal/domain"
	"LaCarte/internal/metrics"
	"LaCarte/internal/ports"
	"LaCarte/internal/retry"
)

const (
	callTone   = "tone"
	callTopics = "topics"
)

// Rater produces tone scores and topic tags for batches of posts with one
// model call per kind.
type Rater struct {
	model   ports.ChatModel
	policy  retry.Policy
	logger  *slog.Logger
	metrics *metrics.Metrics
}

var (
	_ ports.ToneRater   = (*Rater)(nil)
	_ ports.TopicTagger = (*Rater)(nil)
)

// NewRater wires a chat model with a retry policy.
func NewRater(model ports.ChatModel, policy retry.Policy, logger *slog.Logger, m *metrics.Metrics) *Rater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rater{model: model, policy: policy, logger: logger, metrics: m}
}

type tonePayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
}

type topicsPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
	URL       string `json:"url"`
}

// Tones rates every post; ids the model omitted are absent from the result.
func (r *Rater) Tones(ctx context.Context, posts []domain.RawPost) (map[string]float64, error) {
	if len(posts) == 0 {
		return map[string]float64{}, nil
	}

	payload := make([]tonePayload, 0, len(posts))
	for _, p := range posts {
		payload = append(payload, tonePayload{ID: p.ID, Title: p.Title, Subreddit: p.Subreddit})
	}

	content, err := r.invoke(ctx, callTone, toneSystemPrompt, payload)
	if err != nil {
		return nil, err
	}
	return parseOrEmpty(r, callTone, content, decodeTone), nil
}

// Topics tags every post; ids the model omitted are absent from the result.
func (r *Rater) Topics(ctx context.Context, posts []domain.RawPost) (map[string][]string, error) {
	if len(posts) == 0 {
		return map[string][]string{}, nil
	}

	payload := make([]topicsPayload, 0, len(posts))
	for _, p := range posts {
		payload = append(payload, topicsPayload{ID: p.ID, Title: p.Title, Subreddit: p.Subreddit, URL: p.URL})
	}

	content, err := r.invoke(ctx, callTopics, topicsSystemPrompt, payload)
	if err != nil {
		return nil, err
	}
	return parseOrEmpty(r, callTopics, content, decodeTags), nil
}

func (r *Rater) invoke(ctx context.Context, call, system string, payload any) (string, error) {
	if r.model == nil {
		return "", fmt.Errorf("%s: chat model is not configured", call)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: marshal payload: %w", call, err)
	}

	policy := r.policy
	userRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		r.metrics.ModelRetry(call)
		r.logger.Warn("model call rate limited, retrying",
			"call", call, "attempt", attempt, "delay", delay, "error", err)
		if userRetry != nil {
			userRetry(attempt, err, delay)
		}
	}

	content, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
		return r.model.Complete(ctx, system, string(body))
	})
	if err != nil {
		r.metrics.ModelCall(call, "error")
		return "", fmt.Errorf("%s model call: %w", call, err)
	}
	r.metrics.ModelCall(call, "ok")
	return content, nil
}

func parseOrEmpty[T any](r *Rater, call, content string, decode func(json.RawMessage) (T, bool)) map[string]T {
	parsed, err := ParseObject(content, decode)
	if err != nil {
		r.metrics.Parsed(call, "failed")
		r.logger.Error("cannot parse model response, using empty result",
			"call", call, "error", err, "response", truncate(content, 512))
		return map[string]T{}
	}
	r.metrics.Parsed(call, string(parsed.Strategy))
	if parsed.Strategy != StrategyDirect {
		r.logger.Debug("model response needed extraction", "call", call)
	}
	return parsed.Values
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
