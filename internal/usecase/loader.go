package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"LaCarte/internal/domain"
	"LaCarte/internal/metrics"
	"LaCarte/internal/ports"
	"LaCarte/internal/staleness"
)

// PieceFetcher runs one fetch-and-enrich cycle.
type PieceFetcher interface {
	Pieces(ctx context.Context) ([]domain.EnrichedPiece, error)
}

// LoaderConfig describes the server tier.
type LoaderConfig struct {
	StampKey string
	Window   time.Duration
	Clock    clockwork.Clock
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// Loader is the server-tier gate. It keeps only the stamp, in a store scoped
// to the caller's session, and relies on the caller to hold the pieces.
type Loader struct {
	fetcher PieceFetcher
	cfg     LoaderConfig
}

func NewLoader(fetcher PieceFetcher, cfg LoaderConfig) *Loader {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Loader{fetcher: fetcher, cfg: cfg}
}

// Load runs the pipeline when the session stamp is stale, unknown or force is set.
func (l *Loader) Load(ctx context.Context, session ports.KVStore, force bool) (domain.PageLoad, error) {
	gate := staleness.New[domain.EnrichedPiece](session, staleness.Options{
		Tier:     "server",
		Window:   l.cfg.Window,
		StampKey: l.cfg.StampKey,
		Clock:    l.cfg.Clock,
		Logger:   l.cfg.Logger,
		Metrics:  l.cfg.Metrics,
	})

	res, err := gate.Load(ctx, force, l.fetcher.Pieces)
	if err != nil {
		return domain.PageLoad{}, err
	}

	page := domain.PageLoad{Fetched: res.Fetched, Pieces: res.Items}
	if res.Fetched || res.State.HasStamp {
		page.LastFetch = staleness.FormatStamp(res.LastFetch)
	}
	if page.Pieces == nil {
		page.Pieces = []domain.EnrichedPiece{}
	}
	if res.Fetched {
		l.cfg.Logger.Info("fetched fresh pieces", "count", len(page.Pieces), "last_fetch", page.LastFetch)
	}
	return page, nil
}
