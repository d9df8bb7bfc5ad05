// This file implements the prefs store on top of modernc.org/sqlite.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory prefs store.
const MemoryPath = ":memory:"

// Prefs is a small durable key/value store. Values are strings; integer
// helpers parse and format them. Safe for use by multiple goroutines.
type Prefs struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the prefs database at path. The parent
// directory is created when missing.
func Open(path string) (*Prefs, error) {
	if path == "" {
		return nil, errors.New("prefs path must not be empty")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating prefs directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening prefs %s: %w", path, err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createPrefs); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating prefs schema: %w", err)
	}
	return &Prefs{db: db, path: path}, nil
}

// Path returns the database path.
func (p *Prefs) Path() string {
	return p.path
}

// Close releases the database. Close is idempotent.
func (p *Prefs) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

// GetString returns the value stored under key. ok is false when the key is
// absent.
func (p *Prefs) GetString(key string) (value string, ok bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.get(p.db, key)
}

// SetString stores value under key, replacing any previous value.
func (p *Prefs) SetString(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.set(p.db, key, value)
}

// Delete removes key. Deleting a missing key is not an error.
func (p *Prefs) Delete(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return errClosed
	}
	if _, err := p.db.Exec(deletePref, key); err != nil {
		return fmt.Errorf("deleting pref %q: %w", key, err)
	}
	return nil
}

// Keys returns the stored keys that start with prefix, sorted.
func (p *Prefs) Keys(prefix string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil, errClosed
	}

	rows, err := p.db.Query(listPrefKeys)
	if err != nil {
		return nil, fmt.Errorf("listing prefs: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning pref key: %w", err)
		}
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, rows.Err()
}

// GetInt returns the integer stored under key, or 0 when the key is absent.
func (p *Prefs) GetInt(key string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getInt(p.db, key)
}

// SetInt stores n under key.
func (p *Prefs) SetInt(key string, n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.set(p.db, key, strconv.Itoa(n))
}

// IncrementInt adds one to the integer under key inside a transaction and
// returns the new value. A missing key counts as 0.
func (p *Prefs) IncrementInt(key string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return 0, errClosed
	}

	tx, err := p.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning increment: %w", err)
	}
	defer tx.Rollback()

	n, err := p.getInt(tx, key)
	if err != nil {
		return 0, err
	}
	n++
	if err := p.set(tx, key, strconv.Itoa(n)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing increment: %w", err)
	}
	return n, nil
}

var errClosed = errors.New("prefs store is closed")

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

func (p *Prefs) get(q querier, key string) (string, bool, error) {
	if p.db == nil {
		return "", false, errClosed
	}
	var value string
	err := q.QueryRow(selectPref, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading pref %q: %w", key, err)
	}
	return value, true, nil
}

func (p *Prefs) getInt(q querier, key string) (int, error) {
	value, ok, err := p.get(q, key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("pref %q is not an integer: %w", key, err)
	}
	return n, nil
}

func (p *Prefs) set(q querier, key, value string) error {
	if p.db == nil {
		return errClosed
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := q.Exec(upsertPref, key, value, now); err != nil {
		return fmt.Errorf("writing pref %q: %w", key, err)
	}
	return nil
}
