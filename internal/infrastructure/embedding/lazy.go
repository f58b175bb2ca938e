package embedding

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"LaCarte/internal/ports"
)

// Builder constructs the embedding model handle.
type Builder func(ctx context.Context) (ports.Embedder, error)

// Lazy builds the embedding model on first use and shares it for the life of
// the process. Concurrent first callers wait for a single build; a failed
// build is attempted again on the next call.
type Lazy struct {
	build  Builder
	mu     sync.Mutex
	handle atomic.Pointer[handle]
}

type handle struct {
	embedder ports.Embedder
}

var _ ports.Embedder = (*Lazy)(nil)

func NewLazy(build Builder) *Lazy {
	return &Lazy{build: build}
}

// Get returns the shared handle, building it if needed.
func (l *Lazy) Get(ctx context.Context) (ports.Embedder, error) {
	if h := l.handle.Load(); h != nil {
		return h.embedder, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if h := l.handle.Load(); h != nil {
		return h.embedder, nil
	}

	embedder, err := l.build(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize embedding model: %w", err)
	}
	l.handle.Store(&handle{embedder: embedder})
	return embedder, nil
}

func (l *Lazy) Embed(ctx context.Context, text string, opts ports.EmbedOptions) ([]float32, error) {
	embedder, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return embedder.Embed(ctx, text, opts)
}
