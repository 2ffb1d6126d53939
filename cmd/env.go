package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/communisaas/resolver-cli/internal/agent"
	"github.com/communisaas/resolver-cli/internal/backend"
	"github.com/communisaas/resolver-cli/internal/cache"
	"github.com/communisaas/resolver-cli/internal/composite"
	"github.com/communisaas/resolver-cli/internal/provider"
	"github.com/communisaas/resolver-cli/internal/router"
	anthropicpkg "github.com/communisaas/resolver-cli/pkg/anthropic"
	"github.com/communisaas/resolver-cli/pkg/firecrawl"
	"github.com/communisaas/resolver-cli/pkg/gemini"
	"github.com/communisaas/resolver-cli/pkg/perplexity"
)

// Provider registry priorities. The composite is the default path; the
// search provider is the fallback tier; the agent is the expensive last
// resort.
const (
	priorityComposite  = 100
	priorityPerplexity = 50
	priorityAgent      = 10
)

// env bundles everything a command needs to resolve requests.
type env struct {
	Router *router.Router
	Store  cache.Store
}

// Close releases the environment's resources.
func (e *env) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close cache store", zap.Error(err))
		}
	}
}

// initEnv builds the client stack, cache, and provider registry from config.
func initEnv(ctx context.Context) (*env, error) {
	if err := cfg.Validate("resolve"); err != nil {
		return nil, err
	}

	store, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	geminiClient, err := gemini.NewClient(ctx, cfg.Gemini.Key, gemini.WithModel(cfg.Gemini.Model))
	if err != nil {
		return nil, eris.Wrap(err, "init gemini client")
	}
	firecrawlClient := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))

	strategyCfg := composite.DefaultConfig()
	if cfg.Strategy.File != "" {
		strategyCfg, err = composite.LoadConfig(cfg.Strategy.File)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Strategy.VerifyTimeoutMS > 0 {
		strategyCfg.VerifyTimeout = time.Duration(cfg.Strategy.VerifyTimeoutMS) * time.Millisecond
	}
	strategyCfg.SettleDelay = time.Duration(cfg.Strategy.SettleDelayMS) * time.Millisecond
	if cfg.Cache.TTLHours > 0 {
		strategyCfg.CacheTTL = time.Duration(cfg.Cache.TTLHours) * time.Hour
	}

	registry := provider.NewRegistry()
	registry.Register(composite.New(strategyCfg, geminiClient, firecrawlClient, store), priorityComposite)

	if cfg.Perplexity.Key != "" {
		perplexityClient := perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
		registry.Register(backend.NewPerplexityProvider(perplexityClient), priorityPerplexity)

		if cfg.Anthropic.Key != "" {
			anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key, anthropicpkg.WithModel(cfg.Anthropic.Model))
			investigator := agent.New(anthropicClient, perplexityClient, firecrawlClient,
				agent.WithModel(cfg.Anthropic.Model),
				agent.WithMaxTokens(int64(cfg.Anthropic.MaxTokens)),
				agent.WithMaxIterations(cfg.Anthropic.MaxToolIterations),
			)
			registry.Register(backend.NewAgentProvider(investigator), priorityAgent)
		}
	}

	timeout := time.Duration(cfg.Router.TimeoutSecs) * time.Second
	return &env{
		Router: router.New(registry, timeout),
		Store:  store,
	}, nil
}

// initStore opens the configured cache backend. Driver "off" disables
// caching entirely.
func initStore(ctx context.Context) (cache.Store, error) {
	var (
		store cache.Store
		err   error
	)
	switch cfg.Cache.Driver {
	case "off":
		return nil, nil
	case "postgres":
		store, err = cache.NewPostgres(ctx, cfg.Cache.DatabaseURL)
	case "sqlite":
		store, err = cache.NewSQLite(cfg.Cache.Path)
	default:
		return nil, eris.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "init cache store")
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, eris.Wrap(err, "migrate cache store")
	}
	return store, nil
}
