package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"LaCarte/internal/domain"
	"LaCarte/internal/metrics"
	"LaCarte/internal/ports"
)

// EnricherDeps wires the model adapters into the orchestrator.
type EnricherDeps struct {
	Tones       ports.ToneRater
	Topics      ports.TopicTagger
	Projector   ports.Projector
	DefaultTone float64
	Source      string
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Enricher joins posts with tone, topics and topic projection.
type Enricher struct {
	tones       ports.ToneRater
	topics      ports.TopicTagger
	projector   ports.Projector
	defaultTone float64
	source      string
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

var _ ports.Enricher = (*Enricher)(nil)

func NewEnricher(deps EnricherDeps) *Enricher {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defaultTone := deps.DefaultTone
	if defaultTone < 0 || defaultTone > 1 {
		defaultTone = domain.DefaultTone
	}
	return &Enricher{
		tones:       deps.Tones,
		topics:      deps.Topics,
		projector:   deps.Projector,
		defaultTone: defaultTone,
		source:      deps.Source,
		logger:      logger,
		metrics:     deps.Metrics,
	}
}

// Enrich returns one piece per post in input order. A failed model call
// fails the whole run with domain.ErrUpstream.
func (e *Enricher) Enrich(ctx context.Context, posts []domain.RawPost) ([]domain.EnrichedPiece, error) {
	if len(posts) == 0 {
		return []domain.EnrichedPiece{}, nil
	}

	started := time.Now()
	logger := e.logger.With("run_id", uuid.NewString())
	logger.Info("enrichment started", "posts", len(posts))

	var (
		tones  map[string]float64
		topics map[string][]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tones, err = e.tones.Tones(gctx, posts)
		return err
	})
	g.Go(func() error {
		var err error
		topics, err = e.topics.Topics(gctx, posts)
		return err
	})
	if err := g.Wait(); err != nil {
		e.metrics.EnrichRun("error", time.Since(started))
		logger.Error("enrichment failed", "error", err)
		return nil, fmt.Errorf("%w: enrich: %w", domain.ErrUpstream, err)
	}

	tagLists := make([][]string, len(posts))
	for i, post := range posts {
		tags := topics[post.ID]
		if tags == nil {
			tags = []string{}
		}
		tagLists[i] = tags
	}

	projections := e.projector.ProjectBatch(ctx, tagLists)

	pieces := make([]domain.EnrichedPiece, len(posts))
	for i, post := range posts {
		tone, ok := tones[post.ID]
		if !ok {
			tone = e.defaultTone
		}
		projection := domain.DefaultProjection
		if i < len(projections) {
			projection = projections[i]
		}
		pieces[i] = domain.NewEnrichedPiece(post, domain.TonedTopics{Tone: tone, Tags: tagLists[i]}, projection, e.source)
	}

	e.metrics.EnrichRun("ok", time.Since(started))
	logger.Info("enrichment finished",
		"posts", len(posts),
		"rated", len(tones),
		"tagged", len(topics),
		"took", time.Since(started).Round(time.Millisecond),
	)
	return pieces, nil
}
