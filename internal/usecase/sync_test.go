package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LaCarte/internal/domain"
	"LaCarte/internal/logging"
	"LaCarte/internal/staleness"
)

// scriptedServer answers Load calls in order and records the refresh flags.
type scriptedServer struct {
	pages     []domain.PageLoad
	err       error
	refreshes []bool
}

func (s *scriptedServer) Load(_ context.Context, refresh bool) (domain.PageLoad, error) {
	s.refreshes = append(s.refreshes, refresh)
	if s.err != nil {
		return domain.PageLoad{}, s.err
	}
	i := len(s.refreshes) - 1
	if i >= len(s.pages) {
		i = len(s.pages) - 1
	}
	return s.pages[i], nil
}

func newSyncer(server PageLoader, store *staleness.MemoryStore, clock clockwork.Clock) (*Syncer, *staleness.Gate[domain.EnrichedPiece]) {
	gate := staleness.New[domain.EnrichedPiece](store, staleness.Options{
		Tier:     "client",
		Window:   20 * time.Minute,
		StampKey: "lastFetch",
		ItemsKey: "pieces",
		Clock:    clock,
		Logger:   logging.Discard(),
	})
	return NewSyncer(server, gate, logging.Discard()), gate
}

func fetchedPage(ids ...string) domain.PageLoad {
	page := domain.PageLoad{Fetched: true, LastFetch: "1740830400000"}
	for _, id := range ids {
		page.Pieces = append(page.Pieces, domain.EnrichedPiece{ID: id})
	}
	return page
}

func TestSync_ColdCacheAcceptsServerPieces(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(loaderEpoch)
	server := &scriptedServer{pages: []domain.PageLoad{fetchedPage("a", "b")}}
	syncer, gate := newSyncer(server, staleness.NewMemoryStore(), clock)

	res, err := syncer.Sync(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, res.Fetched)
	assert.Equal(t, domain.StateUnknown, res.State)
	assert.Len(t, res.Pieces, 2)

	stored, ok := gate.Items(context.Background())
	require.True(t, ok)
	assert.Len(t, stored, 2)
}

func TestSync_FreshCacheMakesNoRequest(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(loaderEpoch)
	server := &scriptedServer{pages: []domain.PageLoad{fetchedPage("a")}}
	syncer, _ := newSyncer(server, staleness.NewMemoryStore(), clock)

	_, err := syncer.Sync(context.Background(), false)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	res, err := syncer.Sync(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, res.Fetched)
	assert.Equal(t, domain.StateFresh, res.State)
	assert.Len(t, res.Pieces, 1)
	assert.Len(t, server.refreshes, 1)
}

func TestSync_ServerUnchangedKeepsLocalPieces(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(loaderEpoch)
	server := &scriptedServer{pages: []domain.PageLoad{
		fetchedPage("a"),
		{Fetched: false, LastFetch: "1740830400000", Pieces: []domain.EnrichedPiece{}},
	}}
	syncer, _ := newSyncer(server, staleness.NewMemoryStore(), clock)

	_, err := syncer.Sync(context.Background(), false)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	res, err := syncer.Sync(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, res.Fetched)
	assert.Equal(t, []domain.EnrichedPiece{{ID: "a"}}, res.Pieces)
	assert.WithinDuration(t, loaderEpoch, res.LastFetch, 0)
	assert.Equal(t, []bool{false, false}, server.refreshes)
}

func TestSync_ColdCacheWithFreshServerForcesRefresh(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(loaderEpoch)
	server := &scriptedServer{pages: []domain.PageLoad{
		{Fetched: false, LastFetch: "1740830400000"},
		fetchedPage("x"),
	}}
	syncer, _ := newSyncer(server, staleness.NewMemoryStore(), clock)

	res, err := syncer.Sync(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, res.Fetched)
	assert.Equal(t, []bool{false, true}, server.refreshes)
	assert.Len(t, res.Pieces, 1)
}

func TestSync_ForcePassesThroughToServer(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(loaderEpoch)
	server := &scriptedServer{pages: []domain.PageLoad{fetchedPage("a"), fetchedPage("b")}}
	syncer, _ := newSyncer(server, staleness.NewMemoryStore(), clock)

	_, err := syncer.Sync(context.Background(), false)
	require.NoError(t, err)
	res, err := syncer.Sync(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "b", res.Pieces[0].ID)
	assert.Equal(t, []bool{false, true}, server.refreshes)
}

func TestSync_ServerErrorKeepsStamp(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(loaderEpoch)
	server := &scriptedServer{err: errors.New("502 Bad Gateway")}
	store := staleness.NewMemoryStore()
	syncer, _ := newSyncer(server, store, clock)

	_, err := syncer.Sync(context.Background(), false)
	require.Error(t, err)

	_, ok, _ := store.Get(context.Background(), "lastFetch")
	assert.False(t, ok)
}
