package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ziadkadry99/circuitchat/internal/auth"
	"github.com/ziadkadry99/circuitchat/internal/circuitgen"
	"github.com/ziadkadry99/circuitchat/internal/config"
	"github.com/ziadkadry99/circuitchat/internal/db"
	"github.com/ziadkadry99/circuitchat/internal/embeddings"
	"github.com/ziadkadry99/circuitchat/internal/history"
	"github.com/ziadkadry99/circuitchat/internal/llm"
	"github.com/ziadkadry99/circuitchat/internal/logging"
	"github.com/ziadkadry99/circuitchat/internal/metrics"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `circuitchat init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	return logging.New(logging.Options{Verbose: verbose})
}

// createLLMProviderFromConfig creates the configured provider. A missing API
// key is not fatal: the provider fails each request instead, which the API
// reports as "API key not configured.".
func createLLMProviderFromConfig(cfg *config.Config, logger *zap.Logger) (llm.Provider, error) {
	provider, err := llm.NewProviderWithKeys(string(cfg.Provider), cfg.Model, auth.KeyLookup())
	if errors.Is(err, llm.ErrMissingAPIKey) {
		logger.Warn("no API key configured; generation requests will fail",
			zap.String("provider", string(cfg.Provider)),
			zap.String("env", config.APIKeyEnvVar(cfg.Provider)))
		provider, err = llm.Unconfigured(string(cfg.Provider), err), nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if cfg.LLM.RateLimitRPM > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.LLM.RateLimitRPM)
	}
	return provider, nil
}

// createEmbedderFromConfig returns nil when similar-prompt search is off.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	return embeddings.New(string(cfg.Embedding.Provider), cfg.Embedding.Model, auth.KeyLookup())
}

// app holds the shared pieces every generation command needs.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *db.DB
	store     *history.Store
	index     *history.Index
	metrics   *metrics.Registry
	generator *circuitgen.Generator
}

func (a *app) dbPath() string   { return filepath.Join(a.cfg.DataDir, "circuitchat.db") }
func (a *app) indexDir() string { return filepath.Join(a.cfg.DataDir, "index") }

// openApp loads config, opens the history database, restores the
// similar-prompt index when embeddings are configured, and builds the
// generator.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, metrics: metrics.DefaultRegistry()}

	a.db, err = db.Open(a.dbPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.store = history.NewStore(a.db)

	if err := a.openIndex(ctx); err != nil {
		logger.Warn("similar-prompt search disabled", zap.Error(err))
		a.index = nil
	}

	provider, err := createLLMProviderFromConfig(cfg, logger)
	if err != nil {
		a.db.Close()
		return nil, err
	}
	a.generator = circuitgen.New(provider, circuitgen.Options{
		Model:     cfg.Model,
		Timeout:   cfg.LLM.Timeout,
		MaxTokens: cfg.LLM.MaxTokens,
		Logger:    logger,
		Recorder:  history.NewRecorder(a.store, a.index, logger),
		Metrics:   a.metrics,
	})
	return a, nil
}

func (a *app) openIndex(ctx context.Context) error {
	embedder, err := createEmbedderFromConfig(a.cfg)
	if err != nil || embedder == nil {
		return err
	}
	a.index, err = history.NewIndex(embedder)
	if err != nil {
		return err
	}
	if err := a.index.Load(a.indexDir()); err != nil {
		a.logger.Warn("could not load prompt index, rebuilding", zap.Error(err))
	}
	if a.index.Count() == 0 {
		n, err := a.index.Rebuild(ctx, a.store)
		if err != nil {
			return fmt.Errorf("rebuilding prompt index: %w", err)
		}
		a.logger.Debug("prompt index rebuilt", zap.Int("entries", n))
	}
	return nil
}

// Close persists the index and closes the database.
func (a *app) Close() {
	if a.index != nil {
		if err := a.index.Persist(a.indexDir()); err != nil {
			a.logger.Warn("persisting prompt index", zap.Error(err))
		}
	}
	a.db.Close()
	_ = a.logger.Sync()
}
