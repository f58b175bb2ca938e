// Package staleness implements the timestamp gate shared by both cache tiers.
//
// A Gate reads a last-fetch timestamp from a KVStore and decides whether the
// caller may reuse what it has or must run the pipeline. The server tier keeps
// only the timestamp (in a cookie); the client tier also keeps the items.
package staleness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"LaCarte/internal/domain"
	"LaCarte/internal/metrics"
	"LaCarte/internal/ports"
)

// ErrUnchanged is returned by a FetchFunc when upstream has nothing newer than
// the stored items. The gate then serves the stored items and leaves the
// timestamp alone.
var ErrUnchanged = errors.New("upstream data unchanged")

// FetchFunc runs the expensive pipeline.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Options parameterise one tier.
type Options struct {
	Tier     string
	Window   time.Duration
	StampKey string
	// ItemsKey is empty for a tier that does not hold the items itself.
	ItemsKey string
	Clock    clockwork.Clock
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// Result describes one pass through the gate.
type Result[T any] struct {
	Fetched bool
	State   domain.FetchState
	// LastFetch is the stamp in effect after the pass.
	LastFetch time.Time
	Items     []T
}

// Gate is a staleness-gated cache over a KVStore.
type Gate[T any] struct {
	store ports.KVStore
	opts  Options
}

func New[T any](store ports.KVStore, opts Options) *Gate[T] {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Gate[T]{store: store, opts: opts}
}

// State classifies the stored timestamp. force always yields STALE.
func (g *Gate[T]) State(ctx context.Context, force bool) domain.FetchState {
	st := g.read(ctx)
	if force {
		st.State = domain.StateStale
	}
	g.opts.Metrics.CacheDecision(g.opts.Tier, string(st.State))
	g.opts.Logger.Debug("staleness decision",
		"tier", g.opts.Tier,
		"state", st.State,
		"last_fetch", st.LastFetch,
		"force", force,
	)
	return st
}

func (g *Gate[T]) read(ctx context.Context) domain.FetchState {
	raw, ok, err := g.store.Get(ctx, g.opts.StampKey)
	if err != nil {
		g.opts.Logger.Warn("cannot read last fetch stamp", "tier", g.opts.Tier, "error", err)
		return domain.FetchState{State: domain.StateUnknown}
	}
	if !ok {
		return domain.FetchState{State: domain.StateUnknown}
	}

	at, err := ParseStamp(raw)
	if err != nil {
		g.opts.Logger.Warn("unparseable last fetch stamp", "tier", g.opts.Tier, "value", raw)
		return domain.FetchState{State: domain.StateUnknown}
	}

	st := domain.FetchState{LastFetch: at, HasStamp: true, State: domain.StateFresh}
	if g.opts.Clock.Since(at) > g.opts.Window {
		st.State = domain.StateStale
	}
	return st
}

// Load returns stored items while FRESH and otherwise runs fetch. The stamp
// advances only when fetch succeeds.
func (g *Gate[T]) Load(ctx context.Context, force bool, fetch FetchFunc[T]) (Result[T], error) {
	st := g.State(ctx, force)

	if !st.State.NeedsRefresh() {
		if g.opts.ItemsKey == "" {
			return Result[T]{State: st, LastFetch: st.LastFetch}, nil
		}
		items, ok := g.Items(ctx)
		if ok {
			return Result[T]{State: st, LastFetch: st.LastFetch, Items: items}, nil
		}
		// A stamp without items cannot be served.
		st.State = domain.StateUnknown
	}

	items, err := fetch(ctx)
	if errors.Is(err, ErrUnchanged) {
		stored, _ := g.Items(ctx)
		return Result[T]{State: st, LastFetch: st.LastFetch, Items: stored}, nil
	}
	if err != nil {
		return Result[T]{State: st, LastFetch: st.LastFetch}, err
	}

	now, err := g.Commit(ctx, items)
	if err != nil {
		return Result[T]{State: st, LastFetch: st.LastFetch}, err
	}
	return Result[T]{Fetched: true, State: st, LastFetch: now, Items: items}, nil
}

// Commit stores items (for tiers that hold them) and then the current time.
func (g *Gate[T]) Commit(ctx context.Context, items []T) (time.Time, error) {
	if g.opts.ItemsKey != "" {
		if items == nil {
			items = []T{}
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return time.Time{}, fmt.Errorf("encode %s items: %w", g.opts.Tier, err)
		}
		if err := g.store.Set(ctx, g.opts.ItemsKey, string(raw)); err != nil {
			return time.Time{}, fmt.Errorf("store %s items: %w", g.opts.Tier, err)
		}
	}

	now := g.opts.Clock.Now()
	if err := g.store.Set(ctx, g.opts.StampKey, FormatStamp(now)); err != nil {
		return time.Time{}, fmt.Errorf("store %s stamp: %w", g.opts.Tier, err)
	}
	return now, nil
}

// Items returns the stored items of a tier that holds them.
func (g *Gate[T]) Items(ctx context.Context) ([]T, bool) {
	if g.opts.ItemsKey == "" {
		return nil, false
	}
	raw, ok, err := g.store.Get(ctx, g.opts.ItemsKey)
	if err != nil || !ok {
		return nil, false
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		g.opts.Logger.Warn("discarding corrupt cached items", "tier", g.opts.Tier, "error", err)
		return nil, false
	}
	return items, true
}

// FormatStamp encodes t as epoch milliseconds.
func FormatStamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseStamp decodes an epoch-millisecond stamp.
func ParseStamp(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stamp %q: %w", raw, err)
	}
	return time.UnixMilli(ms), nil
}
