// Package buildcache keeps compiled executables keyed by program content
// hash, so rebuilding an unchanged program skips the Go toolchain.
//
// Executables live under <dir>/objects/<key>; an SQLite index in
// <dir>/index.db records size, build time and hit count per key.
package buildcache

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("brainiac.buildcache")

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("build cache is closed")

// Entry describes one cached executable.
type Entry struct {
	Key     string
	Size    int64
	BuiltAt time.Time
	Hits    int
}

// Cache is a directory of executables with an SQLite index.
type Cache struct {
	dir string
	db  *sql.DB
	mu  sync.Mutex
}

// Open opens or creates the cache rooted at dir.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Join(dir, "objects"), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS builds (
		key TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		built_at INTEGER NOT NULL,
		hits INTEGER NOT NULL DEFAULT 0
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Cache{dir: dir, db: db}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

// Close closes the index.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *Cache) objectPath(key string) string {
	return filepath.Join(c.dir, "objects", key)
}

// Restore copies the executable stored under key to dest. A missing entry,
// or an index row whose object is gone or has the wrong size, is a miss;
// stale rows are dropped.
func (c *Cache) Restore(key, dest string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return false, ErrClosed
	}

	var size int64
	err := c.db.QueryRow("SELECT size FROM builds WHERE key = ?", key).Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying build: %w", err)
	}

	obj := c.objectPath(key)
	info, err := os.Stat(obj)
	if err != nil || info.Size() != size {
		log.Infof("dropping stale cache entry %s", key)
		if _, err := c.db.Exec("DELETE FROM builds WHERE key = ?", key); err != nil {
			return false, fmt.Errorf("deleting stale build: %w", err)
		}
		os.Remove(obj)
		return false, nil
	}

	if err := copyFile(obj, dest, 0o755); err != nil {
		return false, fmt.Errorf("restoring %s: %w", dest, err)
	}
	if _, err := c.db.Exec("UPDATE builds SET hits = hits + 1 WHERE key = ?", key); err != nil {
		return true, fmt.Errorf("recording hit: %w", err)
	}
	return true, nil
}

// Store copies the executable at path into the cache under key, replacing
// any previous entry.
func (c *Cache) Store(key, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return ErrClosed
	}

	obj := c.objectPath(key)
	tmp := obj + ".tmp-" + uuid.NewString()
	if err := copyFile(path, tmp, 0o755); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("copying executable: %w", err)
	}
	if err := os.Rename(tmp, obj); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("installing executable: %w", err)
	}

	info, err := os.Stat(obj)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO builds (key, size, built_at, hits) VALUES (?, ?, ?, 0)",
		key, info.Size(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving build: %w", err)
	}
	return nil
}

// Entries lists cached executables, most recently built first.
func (c *Cache) Entries() ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil, ErrClosed
	}

	rows, err := c.db.Query("SELECT key, size, built_at, hits FROM builds ORDER BY built_at DESC, key")
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var builtAt int64
		if err := rows.Scan(&e.Key, &e.Size, &builtAt, &e.Hits); err != nil {
			return nil, err
		}
		e.BuiltAt = time.Unix(builtAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes every cached executable.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return ErrClosed
	}

	if _, err := c.db.Exec("DELETE FROM builds"); err != nil {
		return fmt.Errorf("clearing builds: %w", err)
	}
	objects := filepath.Join(c.dir, "objects")
	if err := os.RemoveAll(objects); err != nil {
		return err
	}
	return os.MkdirAll(objects, 0o755)
}

func copyFile(src, dest string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile only applies perm when creating.
	return os.Chmod(dest, perm)
}
