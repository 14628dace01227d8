// ABOUTME: Centralized configuration for the threadsearch CLI and MCP server
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Embedder backends
const (
	EmbedderOpenAI = "openai"
	EmbedderHash   = "hash"
)

// Config holds all configuration for threadsearch
type Config struct {
	// Charm settings
	CharmHost   string
	CharmDBName string
	AutoSync    bool

	// OpenAI settings
	OpenAIKey           string
	EmbeddingModel      string
	EmbeddingDimensions int
	Timeout             time.Duration
	MaxRetries          int
	RetryDelay          time.Duration

	// Retrieval settings
	Embedder       string
	HashDimensions int
	DBPath         string
	Workers        int
	TopK           int
	LogMode        string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		CharmHost:           getEnv("CHARM_HOST", "cloud.charm.sh"),
		CharmDBName:         getEnv("CHARM_DB", "threadsearch"),
		AutoSync:            getEnvBool("CHARM_AUTO_SYNC", false),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		EmbeddingModel:      getEnv("THREADSEARCH_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: getEnvInt("THREADSEARCH_EMBEDDING_DIMENSIONS", 0),
		Timeout:             getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:          getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:          getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		Embedder:            getEnv("THREADSEARCH_EMBEDDER", EmbedderOpenAI),
		HashDimensions:      getEnvInt("THREADSEARCH_HASH_DIMENSIONS", 384),
		DBPath:              getEnv("THREADSEARCH_DB_PATH", DefaultDBPath()),
		Workers:             getEnvInt("THREADSEARCH_WORKERS", 8),
		TopK:                getEnvInt("THREADSEARCH_TOP_K", 5),
		LogMode:             getEnv("THREADSEARCH_LOG_MODE", "dev"),
	}

	return cfg, cfg.Validate()
}

// Validate checks ranges and enumerations. A missing OpenAI key is not an
// error here; it only matters once the openai embedder is constructed.
func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.EmbeddingDimensions < 0 {
		return fmt.Errorf("THREADSEARCH_EMBEDDING_DIMENSIONS must be >= 0, got %d", c.EmbeddingDimensions)
	}
	if c.Embedder != EmbedderOpenAI && c.Embedder != EmbedderHash {
		return fmt.Errorf("THREADSEARCH_EMBEDDER must be %q or %q, got %q", EmbedderOpenAI, EmbedderHash, c.Embedder)
	}
	if c.HashDimensions <= 0 {
		return fmt.Errorf("THREADSEARCH_HASH_DIMENSIONS must be positive, got %d", c.HashDimensions)
	}
	if c.Workers < 1 || c.Workers > 256 {
		return fmt.Errorf("THREADSEARCH_WORKERS must be 1-256, got %d", c.Workers)
	}
	if c.TopK < 1 {
		return fmt.Errorf("THREADSEARCH_TOP_K must be positive, got %d", c.TopK)
	}
	if c.LogMode != "dev" && c.LogMode != "prod" {
		return fmt.Errorf("THREADSEARCH_LOG_MODE must be dev or prod, got %q", c.LogMode)
	}
	return nil
}

// DefaultDataDir returns the XDG data directory for threadsearch.
// XDG_DATA_HOME is read at call time so tests can redirect it.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "threadsearch")
}

// DefaultDBPath returns the default snapshot database path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "threadsearch.db")
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
