package app

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LaCarte/internal/config"
	"LaCarte/internal/domain"
	"LaCarte/internal/infrastructure/httpapi"
	"LaCarte/internal/logging"
	"LaCarte/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type countingPipeline struct {
	runs atomic.Int32
}

func (p *countingPipeline) Pieces(context.Context) ([]domain.EnrichedPiece, error) {
	n := p.runs.Add(1)
	return []domain.EnrichedPiece{{ID: "run", Score: int(n), Topics: []string{}}}, nil
}

type staticAccount string

func (a staticAccount) Me(context.Context) (json.RawMessage, error) {
	return json.RawMessage(a), nil
}

func newTestServer(t *testing.T, pipeline *countingPipeline) *httptest.Server {
	t.Helper()
	loader := usecase.NewLoader(pipeline, usecase.LoaderConfig{
		StampKey: "lacarteLastFetch",
		Window:   time.Hour,
		Logger:   logging.Discard(),
	})
	server := httptest.NewServer(httpapi.NewRouter(httpapi.Deps{
		Loader:   loader,
		Pipeline: pipeline,
		Account:  staticAccount(`{"name":"lacarte_bot"}`),
		Logger:   logging.Discard(),
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClientWithoutCacheDirKeepsStateInMemory(t *testing.T) {
	t.Parallel()

	pipeline := &countingPipeline{}
	cfg := config.Default()
	cfg.Client.BaseURL = newTestServer(t, pipeline).URL
	cfg.Client.CacheDir = ""

	ctx := context.Background()
	c, err := NewClient(cfg, logging.Discard())
	require.NoError(t, err)

	first, err := c.Sync(ctx, false)
	require.NoError(t, err)
	assert.True(t, first.Fetched)

	second, err := c.Sync(ctx, false)
	require.NoError(t, err)
	assert.False(t, second.Fetched)
	assert.Equal(t, int32(1), pipeline.runs.Load())
	require.NoError(t, c.Close())

	// A fresh process starts cold: the server session was not kept either.
	c, err = NewClient(cfg, logging.Discard())
	require.NoError(t, err)
	defer c.Close()

	third, err := c.Sync(ctx, false)
	require.NoError(t, err)
	assert.True(t, third.Fetched)
	assert.Equal(t, int32(2), pipeline.runs.Load())
}

func TestClientResetForcesRefetchThroughServerSession(t *testing.T) {
	t.Parallel()

	pipeline := &countingPipeline{}
	cfg := config.Default()
	cfg.Client.BaseURL = newTestServer(t, pipeline).URL
	cfg.Client.CacheDir = t.TempDir()

	ctx := context.Background()
	c, err := NewClient(cfg, logging.Discard())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Sync(ctx, false)
	require.NoError(t, err)
	require.NoError(t, c.Reset(ctx))

	// The server still considers the session fresh, so the cold client
	// cache has to force a second enrichment run.
	res, err := c.Sync(ctx, false)
	require.NoError(t, err)
	assert.True(t, res.Fetched)
	require.Len(t, res.Pieces, 1)
	assert.Equal(t, 2, res.Pieces[0].Score)
}

func TestClientMeReturnsServerProfile(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Client.BaseURL = newTestServer(t, &countingPipeline{}).URL
	cfg.Client.CacheDir = ""

	c, err := NewClient(cfg, logging.Discard())
	require.NoError(t, err)
	defer c.Close()

	raw, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"lacarte_bot"}`, string(raw))
}

func TestClientTiersEndToEnd(t *testing.T) {
	t.Parallel()

	pipeline := &countingPipeline{}
	loader := usecase.NewLoader(pipeline, usecase.LoaderConfig{
		StampKey: "lacarteLastFetch",
		Window:   time.Hour,
		Logger:   logging.Discard(),
	})
	server := httptest.NewServer(httpapi.NewRouter(httpapi.Deps{
		Loader:   loader,
		Pipeline: pipeline,
		Logger:   logging.Discard(),
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Client.BaseURL = server.URL
	cfg.Client.CacheDir = t.TempDir()
	cfg.Client.StaleWindow = 20 * time.Minute

	ctx := context.Background()

	c, err := NewClient(cfg, logging.Discard())
	require.NoError(t, err)

	first, err := c.Sync(ctx, false)
	require.NoError(t, err)
	assert.True(t, first.Fetched)
	require.Len(t, first.Pieces, 1)
	assert.Equal(t, 1, first.Pieces[0].Score)

	second, err := c.Sync(ctx, false)
	require.NoError(t, err)
	assert.False(t, second.Fetched)
	assert.Equal(t, first.Pieces, second.Pieces)
	assert.Equal(t, int32(1), pipeline.runs.Load())
	require.NoError(t, c.Close())

	// The cache and the server session survive a restart of the CLI.
	c, err = NewClient(cfg, logging.Discard())
	require.NoError(t, err)
	defer c.Close()

	third, err := c.Sync(ctx, false)
	require.NoError(t, err)
	assert.False(t, third.Fetched)
	assert.Equal(t, int32(1), pipeline.runs.Load())

	forced, err := c.Sync(ctx, true)
	require.NoError(t, err)
	assert.True(t, forced.Fetched)
	assert.Equal(t, 2, forced.Pieces[0].Score)
	assert.Equal(t, int32(2), pipeline.runs.Load())
}
