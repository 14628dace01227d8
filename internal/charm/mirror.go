// ABOUTME: Snapshot mirror on top of the charm client
// ABOUTME: One KV entry per subthread plus a metadata entry listing index order
package charm

import (
	"errors"
	"fmt"
	"time"

	"github.com/harper/threadsearch/internal/models"
	"github.com/harper/threadsearch/internal/retrieval"
)

type snapshotMeta struct {
	SnapshotID string    `json:"snapshot_id"`
	CreatedAt  time.Time `json:"created_at"`
	Dimension  int       `json:"dimension"`
	Keys       []string  `json:"keys"`
}

type mirrorEntry struct {
	Subthread models.Subthread `json:"subthread"`
	Vector    []float32        `json:"vector"`
}

// Status summarizes what the KV store currently mirrors.
type Status struct {
	Host       string
	DBName     string
	AutoSync   bool
	SnapshotID string
	CreatedAt  time.Time
	Dimension  int
	Subthreads int
}

// Push writes snap to the KV store, removes subthreads that are no longer
// part of it and syncs once at the end when auto sync is on. The metadata
// entry is written last so a reader never sees keys it cannot resolve.
func (c *Client) Push(snap *retrieval.Snapshot) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := snap.Entries()
	meta := snapshotMeta{
		SnapshotID: snap.ID,
		CreatedAt:  snap.CreatedAt,
		Dimension:  snap.Dim(),
		Keys:       make([]string, 0, len(entries)),
	}

	keep := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		key := SubthreadKey(e.Subthread.Key())
		if err := c.setJSON(key, mirrorEntry{Subthread: e.Subthread, Vector: e.Vector}); err != nil {
			return 0, err
		}
		keep[key] = struct{}{}
		meta.Keys = append(meta.Keys, key)
	}

	if err := c.setJSON(MetaKey, meta); err != nil {
		return 0, err
	}

	stale, err := c.listKeys(SubthreadPrefix)
	if err != nil {
		return 0, err
	}
	for _, key := range stale {
		if _, ok := keep[key]; ok {
			continue
		}
		if err := c.kv.Delete([]byte(key)); err != nil {
			return 0, fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}

	if err := c.syncIfEnabled(); err != nil {
		return 0, fmt.Errorf("failed to sync: %w", err)
	}
	return len(entries), nil
}

// Pull syncs when auto sync is on and rebuilds the mirrored snapshot.
func (c *Client) Pull() (*retrieval.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.syncIfEnabled(); err != nil {
		return nil, fmt.Errorf("failed to sync: %w", err)
	}

	meta, err := c.readMeta()
	if err != nil {
		return nil, err
	}

	entries := make([]retrieval.Entry, 0, len(meta.Keys))
	for _, key := range meta.Keys {
		var e mirrorEntry
		if err := c.getJSON(key, &e); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", meta.SnapshotID, err)
		}
		entries = append(entries, retrieval.Entry{Subthread: e.Subthread, Vector: e.Vector})
	}
	return retrieval.Restore(meta.SnapshotID, meta.CreatedAt, entries)
}

// Status reports the mirrored snapshot, if any, without syncing.
func (c *Client) Status() (*Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := &Status{
		Host:     c.config.Host,
		DBName:   c.config.DBName,
		AutoSync: c.config.AutoSync,
	}
	meta, err := c.readMeta()
	if errors.Is(err, ErrNoRemoteSnapshot) {
		return st, nil
	}
	if err != nil {
		return nil, err
	}
	st.SnapshotID = meta.SnapshotID
	st.CreatedAt = meta.CreatedAt
	st.Dimension = meta.Dimension
	st.Subthreads = len(meta.Keys)
	return st, nil
}

func (c *Client) readMeta() (*snapshotMeta, error) {
	keys, err := c.listKeys(MetaKey)
	if err != nil {
		return nil, err
	}
	found := false
	for _, k := range keys {
		if k == MetaKey {
			found = true
		}
	}
	if !found {
		return nil, ErrNoRemoteSnapshot
	}

	var meta snapshotMeta
	if err := c.getJSON(MetaKey, &meta); err != nil {
		if errors.Is(err, errKeyNotFound) {
			return nil, ErrNoRemoteSnapshot
		}
		return nil, err
	}
	return &meta, nil
}
