package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps saves in a single SQLite file.
type SQLiteStore struct {
	conn *sqlx.DB
}

type saveRow struct {
	ID        string `db:"id"`
	Slot      string `db:"slot"`
	Tick      int64  `db:"tick"`
	Size      int    `db:"size"`
	Checksum  string `db:"checksum"`
	CreatedAt int64  `db:"created_at"` // unix milliseconds
	Data      []byte `db:"data"`
}

func (r saveRow) record() (Record, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Record{}, fmt.Errorf("save id %q: %w", r.ID, err)
	}
	return Record{
		ID:        id,
		Slot:      r.Slot,
		Tick:      uint64(r.Tick),
		Size:      r.Size,
		Checksum:  r.Checksum,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
	}, nil
}

// OpenSQLite opens or creates the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create save dir: %w", err)
		}
	}
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := migrate(ctx, conn.DB, "sqlite3", "migrations/sqlite"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, slot string, tick uint64, blob []byte) (Record, error) {
	slot, err := NormalizeSlot(slot)
	if err != nil {
		return Record{}, err
	}
	rec := newRecord(slot, tick, blob)
	rec.CreatedAt = rec.CreatedAt.Truncate(time.Millisecond)
	_, err = s.conn.NamedExecContext(ctx,
		`INSERT INTO saves (id, slot, tick, size, checksum, data, created_at)
		 VALUES (:id, :slot, :tick, :size, :checksum, :data, :created_at)`,
		saveRow{
			ID:        rec.ID.String(),
			Slot:      rec.Slot,
			Tick:      int64(rec.Tick),
			Size:      rec.Size,
			Checksum:  rec.Checksum,
			CreatedAt: rec.CreatedAt.UnixMilli(),
			Data:      blob,
		},
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert save: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) LoadLatest(ctx context.Context, slot string) (Record, []byte, error) {
	slot, err := NormalizeSlot(slot)
	if err != nil {
		return Record{}, nil, err
	}
	var row saveRow
	err = s.conn.GetContext(ctx, &row,
		`SELECT id, slot, tick, size, checksum, created_at, data
		 FROM saves WHERE slot = ?
		 ORDER BY seq DESC LIMIT 1`, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, nil, fmt.Errorf("%w: slot %s", ErrNotFound, slot)
	}
	if err != nil {
		return Record{}, nil, fmt.Errorf("load save: %w", err)
	}
	rec, err := row.record()
	if err != nil {
		return Record{}, nil, err
	}
	if got := checksumOf(row.Data); got != rec.Checksum {
		return Record{}, nil, fmt.Errorf("%w: save %s", ErrChecksum, rec.ID)
	}
	return rec, row.Data, nil
}

func (s *SQLiteStore) List(ctx context.Context, slot string) ([]Record, error) {
	slot, err := NormalizeSlot(slot)
	if err != nil {
		return nil, err
	}
	var rows []saveRow
	if err := s.conn.SelectContext(ctx, &rows,
		`SELECT id, slot, tick, size, checksum, created_at
		 FROM saves WHERE slot = ?
		 ORDER BY seq DESC`, slot); err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	result := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, nil
}

func (s *SQLiteStore) Prune(ctx context.Context, slot string, keep int) (int, error) {
	slot, err := NormalizeSlot(slot)
	if err != nil {
		return 0, err
	}
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM saves
		 WHERE slot = ? AND seq NOT IN (
		     SELECT seq FROM saves WHERE slot = ? ORDER BY seq DESC LIMIT ?)`,
		slot, slot, max(keep, 0))
	if err != nil {
		return 0, fmt.Errorf("prune saves: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
