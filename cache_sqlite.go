package main

import (
	"database/sql"
	"log"
	"time"
)

// SQLiteCache is a CacheProvider persisted in the bot's SQLite database, so
// cached intents and responses survive restarts. Entries store an absolute
// expires_at timestamp; a reloaded cache evaluates expiry without needing to
// reconstruct the original TTL.
type SQLiteCache struct {
	db *sql.DB
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_expires_at ON cache_entries(expires_at);
`

func NewSQLiteCache(db *sql.DB) (*SQLiteCache, error) {
	if _, err := db.Exec(createCacheTable); err != nil {
		return nil, err
	}
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Get(key string) ([]byte, bool) {
	var value []byte
	var expiresAt time.Time
	err := c.db.QueryRow(
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("cache sqlite get error key=%s: %v", key, err)
		}
		return nil, false
	}
	if time.Now().After(expiresAt) {
		// Lazy eviction, same contract as the in-memory provider.
		if _, err := c.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
			log.Printf("cache sqlite evict error key=%s: %v", key, err)
		}
		return nil, false
	}
	return value, true
}

func (c *SQLiteCache) Set(key string, value []byte, ttl time.Duration) {
	now := time.Now().UTC()
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO cache_entries (key, value, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		key, value, now, now.Add(ttl),
	)
	if err != nil {
		// A failed write only costs a recomputation later.
		log.Printf("cache sqlite set error key=%s: %v", key, err)
	}
}

func (c *SQLiteCache) Delete(key string) {
	if _, err := c.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		log.Printf("cache sqlite delete error key=%s: %v", key, err)
	}
}

// DeletePrefix removes every entry whose key starts with prefix. Keys are
// cache-namespace strings (prefix, user id, hex digest), never LIKE wildcards.
func (c *SQLiteCache) DeletePrefix(prefix string) {
	if _, err := c.db.Exec(`DELETE FROM cache_entries WHERE key LIKE ?`, prefix+"%"); err != nil {
		log.Printf("cache sqlite delete prefix error prefix=%s: %v", prefix, err)
	}
}

func (c *SQLiteCache) Clear() {
	if _, err := c.db.Exec(`DELETE FROM cache_entries`); err != nil {
		log.Printf("cache sqlite clear error: %v", err)
	}
}
