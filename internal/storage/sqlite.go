//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"lymphos/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `DELETE FROM antibodies; DELETE FROM sessions;`)
	return err
}

// SaveAntibody relies on the primary key for insert-if-absent: the first
// effort recorded for an antigen survives all later saves.
func (s *SQLiteStore) SaveAntibody(ctx context.Context, antibody model.Antibody) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO antibodies (value, schema_version, codec_version, effort, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(value) DO NOTHING
	`, antibody.Antigen.Value, CurrentSchemaVersion, CurrentCodecVersion, antibody.Effort, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) FindAntibody(ctx context.Context, value int) (model.Antibody, bool, error) {
	_, ok, err := s.GetAntibodyRecord(ctx, value)
	if err != nil || !ok {
		return model.Antibody{}, false, err
	}
	return model.Antibody{Antigen: model.Antigen{Value: value}, Effort: 0}, true, nil
}

func (s *SQLiteStore) GetAntibodyRecord(ctx context.Context, value int) (model.AntibodyRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.AntibodyRecord{}, false, err
	}

	var record model.AntibodyRecord
	err = db.QueryRowContext(ctx, `
		SELECT value, schema_version, codec_version, effort, recorded_at
		FROM antibodies WHERE value = ?
	`, value).Scan(&record.Value, &record.SchemaVersion, &record.CodecVersion, &record.Effort, &record.RecordedAtUTC)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AntibodyRecord{}, false, nil
		}
		return model.AntibodyRecord{}, false, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.AntibodyRecord{}, false, fmt.Errorf("decode antibody %d: %w", value, err)
	}
	return record, true, nil
}

func (s *SQLiteStore) ListAntibodyRecords(ctx context.Context) ([]model.AntibodyRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT value, schema_version, codec_version, effort, recorded_at
		FROM antibodies ORDER BY value
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AntibodyRecord{}
	for rows.Next() {
		var record model.AntibodyRecord
		if err := rows.Scan(&record.Value, &record.SchemaVersion, &record.CodecVersion, &record.Effort, &record.RecordedAtUTC); err != nil {
			return nil, err
		}
		if err := checkVersion(record.VersionedRecord); err != nil {
			return nil, fmt.Errorf("decode antibody %d: %w", record.Value, err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveSession(ctx context.Context, session model.SessionRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeSession(session)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO sessions (id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, session.ID, session.SchemaVersion, session.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (model.SessionRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.SessionRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM sessions WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SessionRecord{}, false, nil
		}
		return model.SessionRecord{}, false, err
	}

	session, err := DecodeSession(payload)
	if err != nil {
		return model.SessionRecord{}, false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS antibodies (
			value INTEGER PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			effort INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
