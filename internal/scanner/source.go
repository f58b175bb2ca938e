package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"LaCarte/internal/domain"
	"LaCarte/internal/ports"
)

// Target binds a configured feed to the scanner that reads it.
type Target struct {
	Name    string
	Scanner string
	Listing string
	Limit   int
	Options map[string]string
}

// StrategySource implements ports.PostSource via registered scanner strategies.
type StrategySource struct {
	registry *Registry
	targets  []Target
	logger   *slog.Logger
}

var _ ports.PostSource = (*StrategySource)(nil)

// NewStrategySource wires the registry with configured targets.
func NewStrategySource(reg *Registry, targets []Target, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		targets:  targets,
		logger:   log,
	}
}

// FetchPosts runs every target in order; duplicates across targets keep their
// first position.
func (s *StrategySource) FetchPosts(ctx context.Context) ([]domain.RawPost, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch posts", "targets", len(s.targets))

	var aggregated []domain.RawPost
	seen := map[string]struct{}{}
	for _, target := range s.targets {
		strategy, err := s.registry.Resolve(target.Scanner)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", target.Name, err)
		}

		results, err := strategy.Scan(ctx, Request{
			SourceName: target.Name,
			Listing:    target.Listing,
			Limit:      target.Limit,
			Options:    target.Options,
		})
		if err != nil {
			return nil, fmt.Errorf("scan target %s: %w", target.Name, err)
		}

		for _, post := range results {
			if _, ok := seen[post.ID]; ok {
				continue
			}
			seen[post.ID] = struct{}{}
			aggregated = append(aggregated, post)
		}
		s.debug("target produced posts", "target", target.Name, "count", len(results))
	}

	s.debug("strategy source done", "total_posts", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
