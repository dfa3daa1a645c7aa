// Package cache provides a SQLite-backed content-addressed parse cache.
//
// Entries are keyed by (path, mtime, size): a file whose metadata is
// unchanged since the previous scan skips re-parsing. The cache is passed
// explicitly to the scan phase rather than held as ambient state, and a
// stale-entry sweep runs after each scan.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/checksum"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/parser"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS parse_cache (
	path     TEXT    NOT NULL,
	mtime_ns INTEGER NOT NULL,
	size     INTEGER NOT NULL,
	checksum TEXT    NOT NULL DEFAULT '',
	result   TEXT    NOT NULL,
	PRIMARY KEY (path, mtime_ns, size)
);

CREATE INDEX IF NOT EXISTS idx_parse_cache_path ON parse_cache(path);
`

// Cache wraps a sql.DB with parse-cache operations. Safe for concurrent use
// by scan workers.
type Cache struct {
	mu   sync.Mutex
	conn *sql.DB
}

// Open opens (or creates) the cache database and applies the schema.
func Open(dsn string) (*Cache, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cache: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: apply schema: %w", err)
	}
	return &Cache{conn: conn}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.conn.Close()
}

// Get returns the cached parse result for (path, modTime, size), or false on
// a miss. Corrupt rows count as misses.
func (c *Cache) Get(path string, modTime time.Time, size int64) (*parser.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var payload string
	err := c.conn.QueryRow(
		`SELECT result FROM parse_cache WHERE path = ? AND mtime_ns = ? AND size = ?`,
		path, modTime.UnixNano(), size,
	).Scan(&payload)
	if err != nil {
		return nil, false
	}
	var res parser.Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, false
	}
	return &res, true
}

// Put stores the parse result of data under (path, modTime, size), replacing
// any entry for the same path with different metadata.
func (c *Cache) Put(path string, modTime time.Time, size int64, data []byte, res *parser.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache: marshal result: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.conn.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	// One live entry per path: older metadata keys are superseded.
	if _, err := tx.Exec(`DELETE FROM parse_cache WHERE path = ?`, path); err != nil {
		return fmt.Errorf("cache: evict old entry: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO parse_cache (path, mtime_ns, size, checksum, result) VALUES (?, ?, ?, ?, ?)`,
		path, modTime.UnixNano(), size, checksum.Sum(data), string(payload),
	)
	if err != nil {
		return fmt.Errorf("cache: insert: %w", err)
	}
	return tx.Commit()
}

// Prune removes entries for paths no longer present in the vault.
func (c *Cache) Prune(live map[string]struct{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.conn.Query(`SELECT DISTINCT path FROM parse_cache`)
	if err != nil {
		return fmt.Errorf("cache: list paths: %w", err)
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return err
		}
		if _, ok := live[p]; !ok {
			stale = append(stale, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range stale {
		if _, err := c.conn.Exec(`DELETE FROM parse_cache WHERE path = ?`, p); err != nil {
			return fmt.Errorf("cache: prune %s: %w", p, err)
		}
	}
	return nil
}
