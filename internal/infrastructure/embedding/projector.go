// Package embedding maps topic tag lists onto a single [0,1] axis.
//
// The tags of a post are joined into one text, embedded with mean pooling and
// normalisation, and the vector is reduced to the arithmetic mean of its
// components. A normalised embedding has a mean roughly in [-1,1], which is
// shifted to [0,1] and clamped. The result is a coarse ordering signal, not a
// semantic similarity measure.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"LaCarte/internal/domain"
	"LaCarte/internal/metrics"
	"LaCarte/internal/ports"
)

// DefaultOptions are the feature-extraction options every projection uses.
var DefaultOptions = ports.EmbedOptions{Pooling: "mean", Normalize: true}

// ProjectorConfig tunes fallback and parallelism.
type ProjectorConfig struct {
	Fallback    float64
	Concurrency int
}

// Projector implements ports.Projector on top of an Embedder.
type Projector struct {
	embedder    ports.Embedder
	fallback    float64
	concurrency int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

var _ ports.Projector = (*Projector)(nil)

func NewProjector(embedder ports.Embedder, cfg ProjectorConfig, logger *slog.Logger, m *metrics.Metrics) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	fallback := cfg.Fallback
	if fallback < 0 || fallback > 1 {
		fallback = domain.DefaultProjection
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Projector{
		embedder:    embedder,
		fallback:    fallback,
		concurrency: concurrency,
		logger:      logger,
		metrics:     m,
	}
}

// Project maps one tag list to [0,1].
func (p *Projector) Project(ctx context.Context, tags []string) float64 {
	return p.ProjectBatch(ctx, [][]string{tags})[0]
}

// ProjectBatch projects every list independently; order and length are kept
// and a failing item gets the fallback without affecting the others.
func (p *Projector) ProjectBatch(ctx context.Context, tagLists [][]string) []float64 {
	out := make([]float64, len(tagLists))
	for i := range out {
		out[i] = p.fallback
	}
	if len(tagLists) == 0 {
		return out
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, tags := range tagLists {
		g.Go(func() error {
			v, err := p.projectOne(ctx, tags)
			if err != nil {
				p.metrics.EmbeddingFailed()
				p.logger.Error("embedding failed, using fallback projection",
					"tags", strings.Join(tags, " "), "fallback", p.fallback, "error", err)
				return nil
			}
			out[i] = v
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (p *Projector) projectOne(ctx context.Context, tags []string) (v float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("embedding panicked: %v", r)
		}
	}()

	if p.embedder == nil {
		return 0, errors.New("no embedding model configured")
	}
	vec, err := p.embedder.Embed(ctx, strings.Join(tags, " "), DefaultOptions)
	if err != nil {
		return 0, err
	}
	return Reduce(vec)
}

// Reduce turns a vector into its projection: clamp((mean+1)/2, 0, 1).
func Reduce(vec []float32) (float64, error) {
	if len(vec) == 0 {
		return 0, errEmptyVector
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v)
	}
	mean := sum / float64(len(vec))
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0, errors.New("embedding vector has non-finite components")
	}
	return domain.Clamp01((mean + 1) / 2), nil
}
