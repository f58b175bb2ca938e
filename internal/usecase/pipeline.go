package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"LaCarte/internal/domain"
	"LaCarte/internal/ports"
)

// PipelineDeps wires the driven adapters into the fetch-and-enrich pipeline.
type PipelineDeps struct {
	Source   ports.PostSource
	Enricher ports.Enricher
	Logger   *slog.Logger
}

// Pipeline pulls the current feed and enriches it.
type Pipeline struct {
	source   ports.PostSource
	enricher ports.Enricher
	logger   *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:   deps.Source,
		enricher: deps.Enricher,
		logger:   logger,
	}
}

// Pieces runs one full fetch-and-enrich cycle. Source and model failures
// are returned as domain.ErrUpstream; no partial result is produced.
func (p *Pipeline) Pieces(ctx context.Context) ([]domain.EnrichedPiece, error) {
	if p.source == nil || p.enricher == nil {
		return nil, fmt.Errorf("pipeline is not configured")
	}

	posts, err := p.source.FetchPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}
	p.logger.Debug("posts fetched", "count", len(posts))

	pieces, err := p.enricher.Enrich(ctx, posts)
	if err != nil {
		return nil, fmt.Errorf("enrich posts: %w", err)
	}
	return pieces, nil
}
