package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LaCarte/internal/domain"
	"LaCarte/internal/logging"
	"LaCarte/internal/retry"
)

type scriptedModel struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	systems   []string
	users     []string
}

func (m *scriptedModel) Complete(_ context.Context, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++
	m.systems = append(m.systems, system)
	m.users = append(m.users, user)
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return "{}", nil
}

func fastPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.Delay = func(error) time.Duration { return time.Millisecond }
	return p
}

var samplePosts = []domain.RawPost{
	{ID: "abc", Title: "Cat opens fridge", Subreddit: "funny", URL: "https://v.redd.it/1"},
	{ID: "def", Title: "Rates go up", Subreddit: "economics", URL: "https://example.com/rates"},
}

func TestTones_MissingIDsAreAbsent(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []string{`{"abc": 0.3}"`}}
	rater := NewRater(model, fastPolicy(), logging.Discard(), nil)

	tones, err := rater.Tones(context.Background(), samplePosts)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"abc": 0.3}, tones)
	_, ok := tones["def"]
	assert.False(t, ok)
}

func TestTones_PayloadIsMinimalProjection(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{}
	rater := NewRater(model, fastPolicy(), logging.Discard(), nil)

	_, err := rater.Tones(context.Background(), samplePosts)
	require.NoError(t, err)

	var sent []map[string]string
	require.NoError(t, json.Unmarshal([]byte(model.users[0]), &sent))
	require.Len(t, sent, 2)
	assert.Equal(t, map[string]string{"id": "abc", "title": "Cat opens fridge", "subreddit": "funny"}, sent[0])
	assert.Contains(t, model.systems[0], "whimsical")
}

func TestTopics_PayloadIncludesURL(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []string{`{"abc": ["cats", "humor"]}`}}
	rater := NewRater(model, fastPolicy(), logging.Discard(), nil)

	topics, err := rater.Topics(context.Background(), samplePosts)
	require.NoError(t, err)
	assert.Equal(t, []string{"cats", "humor"}, topics["abc"])

	var sent []map[string]string
	require.NoError(t, json.Unmarshal([]byte(model.users[0]), &sent))
	assert.Equal(t, "https://example.com/rates", sent[1]["url"])
	assert.Contains(t, model.systems[0], "lowercase")
}

func TestTones_MalformedResponseYieldsEmptyMap(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []string{"I cannot help with that."}}
	rater := NewRater(model, fastPolicy(), logging.Discard(), nil)

	tones, err := rater.Tones(context.Background(), samplePosts)
	require.NoError(t, err)
	assert.Empty(t, tones)
}

func TestTones_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{
		errs:      []error{NewStatusError(http.StatusTooManyRequests, nil, "slow down"), nil},
		responses: []string{"", `{"abc": 0.9}`},
	}
	rater := NewRater(model, fastPolicy(), logging.Discard(), nil)

	tones, err := rater.Tones(context.Background(), samplePosts)
	require.NoError(t, err)
	assert.Equal(t, 0.9, tones["abc"])
	assert.Equal(t, 2, model.calls)
}

func TestTopics_BadRequestPropagates(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{errs: []error{NewStatusError(http.StatusBadRequest, nil, "bad")}}
	rater := NewRater(model, fastPolicy(), logging.Discard(), nil)

	_, err := rater.Topics(context.Background(), samplePosts)
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, 1, model.calls)
}

func TestTones_NoPostsNoCall(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{}
	rater := NewRater(model, fastPolicy(), logging.Discard(), nil)

	tones, err := rater.Tones(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, tones)
	assert.Zero(t, model.calls)
}
