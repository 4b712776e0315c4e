// Package cache persists extraction results keyed by record identity,
// prompt version, model, and canonical-input fingerprint. A hit means
// the exact same request was answered before; reruns become free and
// deterministic.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the default cache database location.
const DefaultPath = ".trialspec_cache.db"

// Key identifies one extraction request. Any change to the record's
// canonical text, the prompt, or the model yields a different key, so
// stale results are never reused.
type Key struct {
	RCTID         string `json:"rct_id"`
	PromptVersion string `json:"prompt_version"`
	Model         string `json:"model"`
	Fingerprint   string `json:"input_hash"`
}

// Hash returns the stable hex digest used as the storage key.
func (k Key) Hash() string {
	// Field order is fixed by the struct; json.Marshal is deterministic
	// for structs, so the digest is stable across runs.
	b, _ := json.Marshal(k)
	return fmt.Sprintf("%x", sha256.Sum256(b))
}

// Entry is one cached extraction outcome, successful or not. Failed
// outcomes are cached too: a record that failed both attempts should
// not burn tokens again on rerun.
type Entry struct {
	RCTID         string
	OK            bool
	Diagnostics   []string
	RawText       string
	Extraction    json.RawMessage // nil when the response never parsed
	PromptVersion string
	Model         string
	CreatedAt     time.Time
}

// Stats summarizes cache contents.
type Stats struct {
	Entries int64
	OKCount int64
}

// Cache is a SQLite-backed extraction cache.
// Pass ":memory:" for in-memory databases (testing).
type Cache struct {
	db    *sql.DB
	locks [64]sync.Mutex
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	if path == "" {
		path = DefaultPath
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running cache migrations: %w", err)
	}
	return c, nil
}

func (c *Cache) migrate() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS extractions (
			key            TEXT PRIMARY KEY,
			rct_id         TEXT NOT NULL,
			ok             INTEGER NOT NULL,
			diagnostics    TEXT NOT NULL,
			raw_text       TEXT NOT NULL,
			extraction     TEXT,
			prompt_version TEXT NOT NULL,
			model          TEXT NOT NULL,
			created_at     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_extractions_rct_id ON extractions(rct_id);
	`)
	return err
}

// Get looks up a cached outcome. The second return is false on miss.
func (c *Cache) Get(ctx context.Context, key Key) (*Entry, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT rct_id, ok, diagnostics, raw_text, extraction, prompt_version, model, created_at
		FROM extractions WHERE key = ?`, key.Hash())

	var e Entry
	var ok int
	var diagnostics string
	var extraction sql.NullString
	var createdAt string
	err := row.Scan(&e.RCTID, &ok, &diagnostics, &e.RawText, &extraction, &e.PromptVersion, &e.Model, &createdAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	e.OK = ok != 0
	if err := json.Unmarshal([]byte(diagnostics), &e.Diagnostics); err != nil {
		return nil, false, fmt.Errorf("parsing cached diagnostics: %w", err)
	}
	if extraction.Valid && extraction.String != "" {
		e.Extraction = json.RawMessage(extraction.String)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		e.CreatedAt = t
	}
	return &e, true, nil
}

// Put stores an outcome, replacing any previous entry under the key.
func (c *Cache) Put(ctx context.Context, key Key, e *Entry) error {
	diagnostics, err := json.Marshal(e.Diagnostics)
	if err != nil {
		return fmt.Errorf("marshaling diagnostics: %w", err)
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var extraction any
	if len(e.Extraction) > 0 {
		extraction = string(e.Extraction)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO extractions
			(key, rct_id, ok, diagnostics, raw_text, extraction, prompt_version, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key.Hash(), e.RCTID, boolToInt(e.OK), string(diagnostics), e.RawText,
		extraction, e.PromptVersion, e.Model, createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Stats returns entry counts for observability output.
func (c *Cache) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	row := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(ok), 0) FROM extractions`)
	if err := row.Scan(&s.Entries, &s.OKCount); err != nil {
		return nil, fmt.Errorf("reading cache stats: %w", err)
	}
	return &s, nil
}

// Lock acquires the write stripe for a key, serializing concurrent
// fill attempts for the same request. Callers must Unlock with the
// same key. Distinct keys may share a stripe; that only costs
// parallelism, never correctness.
func (c *Cache) Lock(key Key) {
	c.locks[stripe(key)].Lock()
}

// Unlock releases the write stripe for a key.
func (c *Cache) Unlock(key Key) {
	c.locks[stripe(key)].Unlock()
}

func stripe(key Key) int {
	h := sha256.Sum256([]byte(key.Hash()))
	return int(h[0]) % 64
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
