package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"LaCarte/internal/config"
	"LaCarte/internal/domain"
	"LaCarte/internal/infrastructure/client"
	"LaCarte/internal/infrastructure/scheduler"
	"LaCarte/internal/infrastructure/storage"
	"LaCarte/internal/logging"
	"LaCarte/internal/ports"
	"LaCarte/internal/staleness"
	"LaCarte/internal/usecase"
)

const (
	clientStampKey = "lacarte/lastFetch"
	clientItemsKey = "lacarte/pieces"
)

type clientStore interface {
	ports.KVStore
	Delete(ctx context.Context, key string) error
}

// Client wires the durable client cache in front of the server.
type Client struct {
	store  clientStore
	close  func() error
	server *client.Client
	syncer *usecase.Syncer
}

// NewClient opens the local cache under cfg.Client.CacheDir. An empty
// CacheDir keeps the cache and the server session in memory for this run.
func NewClient(cfg config.Config, baseLogger *slog.Logger) (*Client, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	var (
		store   clientStore
		closeFn = func() error { return nil }
	)
	if cfg.Client.CacheDir == "" {
		store = staleness.NewMemoryStore()
	} else {
		db, err := storage.OpenBadger(storage.BadgerConfig{
			Path:       cfg.Client.CacheDir,
			SyncWrites: true,
			Logger:     baseLogger.With("component", "badger"),
		})
		if err != nil {
			return nil, fmt.Errorf("open client cache: %w", err)
		}
		store, closeFn = db, db.Close
	}

	jar, err := storage.NewCookieJar(store, baseLogger.With("component", "cookies"))
	if err != nil {
		_ = closeFn()
		return nil, err
	}
	server := client.New(cfg.Client.BaseURL, cfg.Client.Timeout, jar, baseLogger.With("component", "client"))

	gate := staleness.New[domain.EnrichedPiece](store, staleness.Options{
		Tier:     "client",
		Window:   cfg.Client.StaleWindow,
		StampKey: clientStampKey,
		ItemsKey: clientItemsKey,
		Logger:   baseLogger.With("component", "client-cache"),
	})

	return &Client{
		store:  store,
		close:  closeFn,
		server: server,
		syncer: usecase.NewSyncer(server, gate, baseLogger.With("component", "sync")),
	}, nil
}

// Sync serves pieces through the client cache once.
func (c *Client) Sync(ctx context.Context, force bool) (usecase.SyncResult, error) {
	return c.syncer.Sync(ctx, force)
}

// Watch syncs every interval until ctx is cancelled.
func (c *Client) Watch(ctx context.Context, interval time.Duration, report func(usecase.SyncResult, error)) error {
	sched := usecase.NewScheduler(scheduler.NewTickerScheduler(interval, nil), c.syncer, report)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start watch: %w", err)
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Me returns the Reddit profile the server is authorised as.
func (c *Client) Me(ctx context.Context) (json.RawMessage, error) {
	return c.server.Me(ctx)
}

// Reset drops the cached pieces and their stamp so the next sync refetches.
func (c *Client) Reset(ctx context.Context) error {
	for _, key := range []string{clientStampKey, clientItemsKey} {
		if err := c.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("reset client cache: %w", err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	return c.close()
}
