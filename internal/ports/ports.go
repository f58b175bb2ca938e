package ports

import (
	"context"
	"encoding/json"

	"LaCarte/internal/domain"
)

// PostSource pulls the current feed from the platform.
type PostSource interface {
	FetchPosts(ctx context.Context) ([]domain.RawPost, error)
}

// AccountSource returns the raw profile of the account the source acts for.
type AccountSource interface {
	Me(ctx context.Context) (json.RawMessage, error)
}

// ChatModel sends one system instruction plus one user payload and returns the completion text.
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// EmbedOptions mirrors the feature-extraction options of embedding models.
type EmbedOptions struct {
	Pooling   string
	Normalize bool
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string, opts EmbedOptions) ([]float32, error)
}

// ToneRater scores posts from whimsical (0) to serious (1).
type ToneRater interface {
	Tones(ctx context.Context, posts []domain.RawPost) (map[string]float64, error)
}

// TopicTagger assigns topic tags to posts.
type TopicTagger interface {
	Topics(ctx context.Context, posts []domain.RawPost) (map[string][]string, error)
}

// Projector maps tag lists onto the [0,1] topic axis.
type Projector interface {
	ProjectBatch(ctx context.Context, tagLists [][]string) []float64
}

// Enricher runs the enrichment pipeline over a batch of posts.
type Enricher interface {
	Enrich(ctx context.Context, posts []domain.RawPost) ([]domain.EnrichedPiece, error)
}

// KVStore is the minimal string store both cache tiers persist into.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(context.Context)) error
	Stop(ctx context.Context) error
}
