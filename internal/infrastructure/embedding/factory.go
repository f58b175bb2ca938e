package embedding

import (
	"context"
	"fmt"

	"LaCarte/internal/config"
	"LaCarte/internal/ports"
)

// NewFromConfig returns the lazily-built model handle for the configured provider.
func NewFromConfig(cfg config.EmbeddingConfig) *Lazy {
	return NewLazy(func(context.Context) (ports.Embedder, error) {
		switch cfg.Provider {
		case config.ProviderHuggingFace, "":
			return NewHuggingFaceEmbedder(cfg.Endpoint, cfg.Model, cfg.APIKey, cfg.Timeout), nil
		case config.ProviderOpenAI:
			return NewOpenAIEmbedder(cfg.Endpoint, cfg.Model, cfg.APIKey, cfg.Timeout), nil
		default:
			return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
		}
	})
}
