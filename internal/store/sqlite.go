package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	clog "github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"panelforge/internal/allocation"
	"panelforge/internal/boxes"
	"panelforge/internal/grid"
	"panelforge/internal/progression"
	"panelforge/internal/snapshot"
)

// Persisted record keys. Each logical record is one JSON value in the
// panel_state table.
const (
	keyBoxes       = "boxes.v1"
	keyItems       = "items.v1"
	keyManualSnap  = "snapshot.manual.v1"
	keyBackupRing  = "snapshot.ring.v1"
	keyProgression = "progression.v1"
	keyAllocations = "stats.alloc.v1"
)

// SQLiteStore is the persistence façade behind every model. Accessors
// never surface storage errors to callers: a missing or corrupt record
// decodes to the empty default and the session keeps running, with the
// failure logged. Writes are last-writer-wins per key.
type SQLiteStore struct {
	db  *sql.DB
	log *clog.Logger
}

func NewSQLite(path string, logger *clog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = clog.Default()
	}
	return &SQLiteStore{db: db, log: logger}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS panel_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadBoxRecords() map[string]boxes.Record {
	out := map[string]boxes.Record{}
	s.loadJSON(keyBoxes, &out)
	if out == nil {
		out = map[string]boxes.Record{}
	}
	return out
}

func (s *SQLiteStore) SaveBoxRecords(m map[string]boxes.Record) {
	s.saveJSON(keyBoxes, m)
}

func (s *SQLiteStore) LoadItemPlacements() map[string]grid.Placement {
	out := map[string]grid.Placement{}
	s.loadJSON(keyItems, &out)
	if out == nil {
		out = map[string]grid.Placement{}
	}
	return out
}

func (s *SQLiteStore) SaveItemPlacements(m map[string]grid.Placement) {
	s.saveJSON(keyItems, m)
}

func (s *SQLiteStore) LoadManualSnapshot() (snapshot.Snapshot, bool) {
	var snap snapshot.Snapshot
	if !s.loadJSON(keyManualSnap, &snap) {
		return snapshot.Snapshot{}, false
	}
	return snap, true
}

func (s *SQLiteStore) SaveManualSnapshot(snap snapshot.Snapshot) {
	s.saveJSON(keyManualSnap, snap)
}

func (s *SQLiteStore) LoadBackupRing() []snapshot.Snapshot {
	var ring []snapshot.Snapshot
	s.loadJSON(keyBackupRing, &ring)
	return ring
}

func (s *SQLiteStore) SaveBackupRing(ring []snapshot.Snapshot) {
	s.saveJSON(keyBackupRing, ring)
}

func (s *SQLiteStore) LoadProgression() (progression.State, bool) {
	var st progression.State
	if !s.loadJSON(keyProgression, &st) {
		return progression.State{}, false
	}
	return st, true
}

func (s *SQLiteStore) SaveProgression(st progression.State) {
	s.saveJSON(keyProgression, st)
}

func (s *SQLiteStore) LoadAllocations() map[string]int {
	out := map[string]int{}
	s.loadJSON(keyAllocations, &out)
	if out == nil {
		out = map[string]int{}
	}
	return out
}

func (s *SQLiteStore) SaveAllocations(m map[string]int) {
	s.saveJSON(keyAllocations, m)
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// loadJSON reports whether a decodable record existed for the key.
func (s *SQLiteStore) loadJSON(key string, dst any) bool {
	var raw string
	err := s.db.QueryRowContext(context.Background(),
		`SELECT value FROM panel_state WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		s.log.Warn("state read failed", "key", key, "err", err)
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.log.Warn("discarding corrupt state record", "key", key, "err", err)
		return false
	}
	return true
}

func (s *SQLiteStore) saveJSON(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("state encode failed", "key", key, "err", err)
		return
	}
	if _, err := s.db.ExecContext(context.Background(), `
		INSERT INTO panel_state(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, string(raw)); err != nil {
		s.log.Warn("state write failed", "key", key, "err", err)
	}
}

// Interface conformance for every model the store backs.
var (
	_ boxes.RecordStore   = (*SQLiteStore)(nil)
	_ grid.PlacementStore = (*SQLiteStore)(nil)
	_ snapshot.Store      = (*SQLiteStore)(nil)
	_ progression.Store   = (*SQLiteStore)(nil)
	_ allocation.Store    = (*SQLiteStore)(nil)
)
