// ABOUTME: Tests for environment-driven configuration
// ABOUTME: Covers defaults, overrides, unparsable values and range checks
package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"CHARM_HOST", "CHARM_DB", "CHARM_AUTO_SYNC",
	"OPENAI_API_KEY", "THREADSEARCH_EMBEDDING_MODEL", "THREADSEARCH_EMBEDDING_DIMENSIONS",
	"OPENAI_TIMEOUT", "OPENAI_MAX_RETRIES", "OPENAI_RETRY_DELAY",
	"THREADSEARCH_EMBEDDER", "THREADSEARCH_HASH_DIMENSIONS", "THREADSEARCH_DB_PATH",
	"THREADSEARCH_WORKERS", "THREADSEARCH_TOP_K", "THREADSEARCH_LOG_MODE",
}

// clearConfigEnv blanks every key Load reads; empty values fall back to defaults.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func validConfig() *Config {
	return &Config{
		MaxRetries:     3,
		Embedder:       EmbedderHash,
		HashDimensions: 384,
		Workers:        8,
		TopK:           5,
		LogMode:        "dev",
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Config
	}{
		{
			name: "defaults",
			env:  map[string]string{"XDG_DATA_HOME": "/tmp/xdg-test"},
			want: Config{
				CharmHost:      "cloud.charm.sh",
				CharmDBName:    "threadsearch",
				EmbeddingModel: "text-embedding-3-small",
				Timeout:        30 * time.Second,
				MaxRetries:     3,
				RetryDelay:     2 * time.Second,
				Embedder:       EmbedderOpenAI,
				HashDimensions: 384,
				DBPath:         filepath.Join("/tmp/xdg-test", "threadsearch", "threadsearch.db"),
				Workers:        8,
				TopK:           5,
				LogMode:        "dev",
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"CHARM_HOST":                        "charm.internal",
				"CHARM_DB":                          "forum",
				"CHARM_AUTO_SYNC":                   "1",
				"OPENAI_API_KEY":                    "sk-test",
				"THREADSEARCH_EMBEDDING_MODEL":      "text-embedding-3-large",
				"THREADSEARCH_EMBEDDING_DIMENSIONS": "256",
				"OPENAI_TIMEOUT":                    "1m",
				"OPENAI_MAX_RETRIES":                "0",
				"OPENAI_RETRY_DELAY":                "500ms",
				"THREADSEARCH_EMBEDDER":             "hash",
				"THREADSEARCH_HASH_DIMENSIONS":      "64",
				"THREADSEARCH_DB_PATH":              "/srv/forum/index.db",
				"THREADSEARCH_WORKERS":              "16",
				"THREADSEARCH_TOP_K":                "10",
				"THREADSEARCH_LOG_MODE":             "prod",
			},
			want: Config{
				CharmHost:           "charm.internal",
				CharmDBName:         "forum",
				AutoSync:            true,
				OpenAIKey:           "sk-test",
				EmbeddingModel:      "text-embedding-3-large",
				EmbeddingDimensions: 256,
				Timeout:             time.Minute,
				MaxRetries:          0,
				RetryDelay:          500 * time.Millisecond,
				Embedder:            EmbedderHash,
				HashDimensions:      64,
				DBPath:              "/srv/forum/index.db",
				Workers:             16,
				TopK:                10,
				LogMode:             "prod",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if *cfg != tt.want {
				t.Errorf("Load() =\n%+v\nwant\n%+v", *cfg, tt.want)
			}
		})
	}
}

func TestLoad_InvalidValueFails(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("THREADSEARCH_EMBEDDER", "word2vec")

	if _, err := Load(); err == nil {
		t.Error("Load() should fail for unknown embedder")
	}
}

func TestLoad_UnparsableFallsBackToDefault(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("THREADSEARCH_WORKERS", "many")
	t.Setenv("OPENAI_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want default 8", cfg.Workers)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want default 30s", cfg.Timeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"retries too high", func(c *Config) { c.MaxRetries = 15 }, "OPENAI_MAX_RETRIES"},
		{"retries negative", func(c *Config) { c.MaxRetries = -1 }, "OPENAI_MAX_RETRIES"},
		{"negative dimensions", func(c *Config) { c.EmbeddingDimensions = -1 }, "EMBEDDING_DIMENSIONS"},
		{"unknown embedder", func(c *Config) { c.Embedder = "bert" }, "THREADSEARCH_EMBEDDER"},
		{"zero hash dimensions", func(c *Config) { c.HashDimensions = 0 }, "HASH_DIMENSIONS"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "THREADSEARCH_WORKERS"},
		{"too many workers", func(c *Config) { c.Workers = 257 }, "THREADSEARCH_WORKERS"},
		{"zero top k", func(c *Config) { c.TopK = 0 }, "THREADSEARCH_TOP_K"},
		{"bad log mode", func(c *Config) { c.LogMode = "loud" }, "THREADSEARCH_LOG_MODE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"maybe", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("THREADSEARCH_TEST_BOOL", tt.value)
			if got := getEnvBool("THREADSEARCH_TEST_BOOL", tt.def); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
			}
		})
	}
}
