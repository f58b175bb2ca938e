package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"LaCarte/internal/domain"
	"LaCarte/internal/staleness"
)

// PageLoader asks the server tier for pieces.
type PageLoader interface {
	Load(ctx context.Context, refresh bool) (domain.PageLoad, error)
}

// SyncResult is what the client tier serves.
type SyncResult struct {
	Pieces    []domain.EnrichedPiece
	Fetched   bool
	LastFetch time.Time
	State     domain.Staleness
}

// Syncer is the client-tier gate in front of the server.
type Syncer struct {
	server PageLoader
	gate   *staleness.Gate[domain.EnrichedPiece]
	logger *slog.Logger
}

func NewSyncer(server PageLoader, gate *staleness.Gate[domain.EnrichedPiece], logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{server: server, gate: gate, logger: logger}
}

// Sync serves the local cache while it is fresh. Otherwise it asks the
// server; if the server has nothing new and the local cache is cold, the
// server is asked to refresh so the client always ends up with pieces.
func (s *Syncer) Sync(ctx context.Context, force bool) (SyncResult, error) {
	res, err := s.gate.Load(ctx, force, func(ctx context.Context) ([]domain.EnrichedPiece, error) {
		page, err := s.server.Load(ctx, force)
		if err != nil {
			return nil, err
		}
		if page.Fetched {
			return page.Pieces, nil
		}

		if _, ok := s.gate.Items(ctx); ok {
			s.logger.Debug("server data unchanged, keeping local pieces", "server_last_fetch", page.LastFetch)
			return nil, staleness.ErrUnchanged
		}

		s.logger.Info("local cache is cold, asking server to refresh")
		page, err = s.server.Load(ctx, true)
		if err != nil {
			return nil, err
		}
		if !page.Fetched {
			return nil, fmt.Errorf("server did not refresh on request")
		}
		return page.Pieces, nil
	})
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync pieces: %w", err)
	}

	pieces := res.Items
	if pieces == nil {
		pieces = []domain.EnrichedPiece{}
	}
	return SyncResult{
		Pieces:    pieces,
		Fetched:   res.Fetched,
		LastFetch: res.LastFetch,
		State:     res.State.State,
	}, nil
}
