// Package slots provides numbered save slots backed by SQLite.
package slots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/PtiCalin/simple-game-engine/engine/save"
	"github.com/PtiCalin/simple-game-engine/types"
)

// ErrSlotNotFound is returned when a slot has never been written.
var ErrSlotNotFound = errors.New("save slot not found")

// Slot is the preview metadata of a save slot.
type Slot struct {
	ID      int
	SceneID string
	SavedAt time.Time
}

// Store persists save slots in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

const schema = `CREATE TABLE IF NOT EXISTS save_slots (
	slot_id  INTEGER PRIMARY KEY,
	scene_id TEXT NOT NULL,
	saved_at INTEGER NOT NULL,
	record   BLOB NOT NULL
)`

// Open opens (or creates) the slot database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("slot database path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create slot schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveSlot writes the state into slot id, replacing any previous content.
func (s *Store) SaveSlot(ctx context.Context, id int, st *types.State) (Slot, error) {
	if err := ctx.Err(); err != nil {
		return Slot{}, err
	}
	data, err := save.Save(st)
	if err != nil {
		return Slot{}, fmt.Errorf("encode slot %d: %w", id, err)
	}
	slot := Slot{ID: id, SceneID: st.CurrentScene, SavedAt: s.now().UTC().Truncate(time.Second)}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO save_slots (slot_id, scene_id, saved_at, record) VALUES (?, ?, ?, ?)
		 ON CONFLICT(slot_id) DO UPDATE SET scene_id = excluded.scene_id,
		   saved_at = excluded.saved_at, record = excluded.record`,
		id, slot.SceneID, slot.SavedAt.Unix(), data,
	)
	if err != nil {
		return Slot{}, fmt.Errorf("write slot %d: %w", id, err)
	}
	return slot, nil
}

// LoadSlot reads slot id. The returned record can be applied with save.Apply.
func (s *Store) LoadSlot(ctx context.Context, id int) (*save.Record, Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, Slot{}, err
	}
	var (
		sceneID string
		savedAt int64
		data    []byte
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT scene_id, saved_at, record FROM save_slots WHERE slot_id = ?`, id,
	).Scan(&sceneID, &savedAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Slot{}, ErrSlotNotFound
	}
	if err != nil {
		return nil, Slot{}, fmt.Errorf("read slot %d: %w", id, err)
	}
	rec, err := save.Load(data)
	if err != nil {
		return nil, Slot{}, fmt.Errorf("decode slot %d: %w", id, err)
	}
	return rec, Slot{ID: id, SceneID: sceneID, SavedAt: time.Unix(savedAt, 0).UTC()}, nil
}

// DeleteSlot removes slot id. Deleting an empty slot is not an error.
func (s *Store) DeleteSlot(ctx context.Context, id int) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM save_slots WHERE slot_id = ?`, id); err != nil {
		return fmt.Errorf("delete slot %d: %w", id, err)
	}
	return nil
}

// List returns the metadata of every written slot, ordered by slot id.
func (s *Store) List(ctx context.Context) ([]Slot, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT slot_id, scene_id, saved_at FROM save_slots ORDER BY slot_id`)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		var (
			slot    Slot
			savedAt int64
		)
		if err := rows.Scan(&slot.ID, &slot.SceneID, &savedAt); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slot.SavedAt = time.Unix(savedAt, 0).UTC()
		result = append(result, slot)
	}
	return result, rows.Err()
}
