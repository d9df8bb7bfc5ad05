// Package sqlite implements the persisted key/value store that keeps the
// chosen folder handle, its access grant, and the read counter.
package sqlite

// Schema DDL for the prefs store.
const (
	createPrefs = `CREATE TABLE IF NOT EXISTS prefs (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

// Statements.
const (
	selectPref = `SELECT value FROM prefs WHERE key = ?`
	deletePref = `DELETE FROM prefs WHERE key = ?`

	upsertPref = `INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	listPrefKeys = `SELECT key FROM prefs ORDER BY key`
)
