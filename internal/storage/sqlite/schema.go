// ABOUTME: SQLite schema for persisted retrieval snapshots
// ABOUTME: One published snapshot plus the history of build reports
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Published snapshot metadata (singleton)
CREATE TABLE IF NOT EXISTS snapshot (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    snapshot_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    dimension INTEGER NOT NULL,
    subthread_count INTEGER NOT NULL
);

-- Subthreads of the published snapshot, in index insertion order
CREATE TABLE IF NOT EXISTS subthreads (
    position INTEGER PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    conversation_title TEXT NOT NULL,
    root_post_number INTEGER NOT NULL,
    post_numbers TEXT NOT NULL,
    combined_text TEXT NOT NULL,
    vector BLOB NOT NULL,
    UNIQUE (conversation_id, root_post_number)
);

-- Build reports, newest last
CREATE TABLE IF NOT EXISTS build_reports (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    build_id TEXT NOT NULL UNIQUE,
    finished_at TEXT NOT NULL,
    report TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_subthreads_conversation ON subthreads(conversation_id);
`

// SchemaVersion is stamped into PRAGMA user_version.
const SchemaVersion = 1
