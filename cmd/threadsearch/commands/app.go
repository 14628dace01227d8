// ABOUTME: Shared wiring for CLI commands
// ABOUTME: Loads .env and config, builds the logger, embedder and snapshot store
package commands

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/threadsearch/internal/config"
	"github.com/harper/threadsearch/internal/llm"
	"github.com/harper/threadsearch/internal/logging"
	"github.com/harper/threadsearch/internal/retrieval"
	"github.com/harper/threadsearch/internal/storage/sqlite"
)

type app struct {
	cfg *config.Config
	log *logging.Logger
}

func loadApp() (*app, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log, err := logging.New(cfg.LogMode, verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) embedder() (retrieval.Embedder, error) {
	switch a.cfg.Embedder {
	case config.EmbedderHash:
		return llm.NewHashEmbedder(a.cfg.HashDimensions)
	default:
		if a.cfg.OpenAIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not set (or use THREADSEARCH_EMBEDDER=hash for offline search)")
		}
		return llm.NewOpenAIEmbedderWithConfig(&llm.ClientConfig{
			APIKey:         a.cfg.OpenAIKey,
			EmbeddingModel: openai.EmbeddingModel(a.cfg.EmbeddingModel),
			Dimensions:     a.cfg.EmbeddingDimensions,
			Timeout:        a.cfg.Timeout,
			MaxRetries:     a.cfg.MaxRetries,
			RetryDelay:     a.cfg.RetryDelay,
		})
	}
}

func (a *app) engine() (*retrieval.Engine, error) {
	embedder, err := a.embedder()
	if err != nil {
		return nil, err
	}
	return retrieval.NewEngine(embedder,
		retrieval.WithLogger(a.log),
		retrieval.WithWorkers(a.cfg.Workers),
	), nil
}

func (a *app) openStore() (*sqlite.DB, *sqlite.SnapshotStore, error) {
	db, err := sqlite.Open(a.cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", a.cfg.DBPath, err)
	}
	return db, sqlite.NewSnapshotStore(db), nil
}

// noIndexError turns a missing snapshot into an actionable message.
func (a *app) noIndexError(err error) error {
	if errors.Is(err, retrieval.ErrNoSnapshot) {
		return fmt.Errorf("no index found in %s; run 'threadsearch index <posts.json>' first", a.cfg.DBPath)
	}
	return err
}
