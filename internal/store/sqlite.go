package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/oneofjob/internal/model"
)

// SQLiteStore keeps crawl-aligned cache snapshots in a SQLite database so a
// restarted server can keep serving the current crawl.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// cache_snapshots table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	// Times are unix nanoseconds so crawl boundaries compare exactly.
	createTable := `CREATE TABLE IF NOT EXISTS cache_snapshots (
		key             TEXT PRIMARY KEY,
		data            BLOB NOT NULL,
		timestamp       INTEGER NOT NULL,
		last_crawl_time INTEGER NOT NULL
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache_snapshots table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save writes snap, replacing any snapshot with the same key.
func (s *SQLiteStore) Save(snap model.Snapshot) error {
	_, err := s.db.Exec(
		`INSERT INTO cache_snapshots (key, data, timestamp, last_crawl_time) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, timestamp = excluded.timestamp, last_crawl_time = excluded.last_crawl_time`,
		snap.Key, snap.Data, snap.Timestamp.UnixNano(), snap.LastCrawlTime.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", snap.Key, err)
	}
	return nil
}

// LoadAll returns every stored snapshot ordered by key.
func (s *SQLiteStore) LoadAll() ([]model.Snapshot, error) {
	rows, err := s.db.Query("SELECT key, data, timestamp, last_crawl_time FROM cache_snapshots ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		var (
			snap          model.Snapshot
			ts, lastCrawl int64
		)
		if err := rows.Scan(&snap.Key, &snap.Data, &ts, &lastCrawl); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snap.Timestamp = time.Unix(0, ts)
		snap.LastCrawlTime = time.Unix(0, lastCrawl)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading snapshots: %w", err)
	}
	return snaps, nil
}

// Delete removes the snapshot for key. Missing keys are not an error.
func (s *SQLiteStore) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM cache_snapshots WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", key, err)
	}
	return nil
}

// Clear removes every snapshot.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM cache_snapshots"); err != nil {
		return fmt.Errorf("clearing snapshots: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
