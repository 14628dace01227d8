// ABOUTME: Charm KV client wrapper for cloud-synced snapshot mirroring
// ABOUTME: Pushes and pulls published snapshots with automatic SSH key auth
package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"

	"github.com/harper/threadsearch/internal/config"
)

// Key layout in the KV store
const (
	SubthreadPrefix = "subthread:"
	MetaKey         = "snapshot:meta"
)

var (
	// ErrNoRemoteSnapshot is returned by Pull when nothing has been pushed yet.
	ErrNoRemoteSnapshot = errors.New("no snapshot in charm kv")

	errKeyNotFound = errors.New("key not found")
)

// Config holds charm client configuration
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// ConfigFrom extracts the charm settings from the application config.
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		Host:     cfg.CharmHost,
		DBName:   cfg.CharmDBName,
		AutoSync: cfg.AutoSync,
	}
}

// store is the subset of *kv.KV the mirror uses.
type store interface {
	Set(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
	Close() error
}

// Client wraps charm KV for snapshot mirroring
type Client struct {
	kv     store
	config *Config
	mu     sync.Mutex
}

// NewClient opens the charm KV database named in cfg
func NewClient(cfg *Config) (*Client, error) {
	// kv reads CHARM_HOST when it connects
	if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
		return nil, fmt.Errorf("failed to set CHARM_HOST: %w", err)
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}
	return newClientWithStore(db, cfg), nil
}

func newClientWithStore(s store, cfg *Config) *Client {
	return &Client{kv: s, config: cfg}
}

// Close closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		err := c.kv.Close()
		c.kv = nil
		return err
	}
	return nil
}

// Config returns the client configuration
func (c *Client) Config() *Config {
	return c.config
}

// ID returns the charm user ID
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// Sync manually triggers a sync with the cloud
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// Reset wipes all local data
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}

func (c *Client) syncIfEnabled() error {
	if c.config.AutoSync {
		return c.kv.Sync()
	}
	return nil
}

func (c *Client) setJSON(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := c.kv.Set([]byte(key), data); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (c *Client) getJSON(key string, dest any) error {
	data, err := c.kv.Get([]byte(key))
	if err != nil {
		return fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if data == nil {
		return fmt.Errorf("%w: %s", errKeyNotFound, key)
	}
	return json.Unmarshal(data, dest)
}

func (c *Client) listKeys(prefix string) ([]string, error) {
	keys, err := c.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var result []string
	for _, key := range keys {
		if k := string(key); strings.HasPrefix(k, prefix) {
			result = append(result, k)
		}
	}
	sort.Strings(result)
	return result, nil
}

// SubthreadKey generates the KV key for a subthread index key
func SubthreadKey(indexKey string) string {
	return SubthreadPrefix + indexKey
}
