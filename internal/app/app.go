package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"LaCarte/internal/config"
	"LaCarte/internal/infrastructure/embedding"
	"LaCarte/internal/infrastructure/httpapi"
	"LaCarte/internal/infrastructure/llm"
	"LaCarte/internal/infrastructure/reddit"
	"LaCarte/internal/logging"
	"LaCarte/internal/metrics"
	"LaCarte/internal/retry"
	"LaCarte/internal/scanner"
	"LaCarte/internal/usecase"
)

// Server wires configs to the enrichment use cases and the HTTP surface.
type Server struct {
	http *httpapi.Server
}

// NewServer builds the server application.
func NewServer(cfg config.Config, baseLogger *slog.Logger) *Server {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	if cfg.Reddit.Token == "" {
		baseLogger.Warn("no reddit token configured; listing requests will be rejected")
	}
	redditClient := reddit.NewClient(cfg.Reddit, baseLogger.With("component", "reddit"), m)

	registry := scanner.NewRegistry()
	registry.Register(reddit.NewListingScanner(redditClient))
	source := scanner.NewStrategySource(registry, []scanner.Target{{
		Name:    cfg.Enrichment.Source,
		Scanner: "reddit",
		Listing: cfg.Reddit.ListingPath,
		Limit:   cfg.Reddit.Limit,
	}}, baseLogger.With("component", "source"))

	policy := retry.DefaultPolicy()
	if cfg.Chat.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Chat.MaxAttempts
	}
	if cfg.Chat.DefaultDelay > 0 {
		policy.Delay = retry.RetryAfterOr(cfg.Chat.DefaultDelay)
	}
	if cfg.Chat.APIKey == "" {
		baseLogger.Warn("no chat API key configured; enrichment runs will fail")
	}
	rater := llm.NewRater(llm.NewChatGPTClient(cfg.Chat, nil), policy, baseLogger.With("component", "rater"), m)

	projector := embedding.NewProjector(
		embedding.NewFromConfig(cfg.Embedding),
		embedding.ProjectorConfig{Fallback: cfg.Embedding.Fallback, Concurrency: cfg.Embedding.Concurrency},
		baseLogger.With("component", "projector"),
		m,
	)

	enricher := usecase.NewEnricher(usecase.EnricherDeps{
		Tones:       rater,
		Topics:      rater,
		Projector:   projector,
		DefaultTone: cfg.Enrichment.DefaultTone,
		Source:      cfg.Enrichment.Source,
		Logger:      baseLogger.With("component", "enricher"),
		Metrics:     m,
	})
	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:   source,
		Enricher: enricher,
		Logger:   baseLogger.With("component", "pipeline"),
	})
	loader := usecase.NewLoader(pipeline, usecase.LoaderConfig{
		StampKey: cfg.Server.CookieName,
		Window:   cfg.Server.StaleWindow,
		Logger:   baseLogger.With("component", "server-cache"),
		Metrics:  m,
	})

	router := httpapi.NewRouter(httpapi.Deps{
		Loader:    loader,
		Pipeline:  pipeline,
		Account:   redditClient,
		Projector: projector,
		Gatherer:  reg,
		Logger:    baseLogger.With("component", "http"),
	})

	return &Server{
		http: httpapi.NewServer(cfg.Server.ListenAddr, router, baseLogger.With("component", "http")),
	}
}

// Run serves HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.http.Run(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
