package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps saves in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Save(ctx context.Context, slot string, tick uint64, blob []byte) (Record, error) {
	slot, err := NormalizeSlot(slot)
	if err != nil {
		return Record{}, err
	}
	rec := newRecord(slot, tick, blob)
	err = s.pool.QueryRow(ctx,
		`INSERT INTO saves (id, slot, tick, size, checksum, data)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		rec.ID, rec.Slot, int64(rec.Tick), rec.Size, rec.Checksum, blob,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("insert save: %w", err)
	}
	return rec, nil
}

func (s *PGStore) LoadLatest(ctx context.Context, slot string) (Record, []byte, error) {
	slot, err := NormalizeSlot(slot)
	if err != nil {
		return Record{}, nil, err
	}
	var (
		rec  Record
		tick int64
		blob []byte
	)
	err = s.pool.QueryRow(ctx,
		`SELECT id, slot, tick, size, checksum, created_at, data
		 FROM saves WHERE slot = $1
		 ORDER BY seq DESC LIMIT 1`, slot,
	).Scan(&rec.ID, &rec.Slot, &tick, &rec.Size, &rec.Checksum, &rec.CreatedAt, &blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, nil, fmt.Errorf("%w: slot %s", ErrNotFound, slot)
	}
	if err != nil {
		return Record{}, nil, fmt.Errorf("load save: %w", err)
	}
	rec.Tick = uint64(tick)
	if got := checksumOf(blob); got != rec.Checksum {
		return Record{}, nil, fmt.Errorf("%w: save %s", ErrChecksum, rec.ID)
	}
	return rec, blob, nil
}

func (s *PGStore) List(ctx context.Context, slot string) ([]Record, error) {
	slot, err := NormalizeSlot(slot)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, slot, tick, size, checksum, created_at
		 FROM saves WHERE slot = $1
		 ORDER BY seq DESC`, slot,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		var (
			rec  Record
			tick int64
		)
		if err := rows.Scan(&rec.ID, &rec.Slot, &tick, &rec.Size, &rec.Checksum, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Tick = uint64(tick)
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (s *PGStore) Prune(ctx context.Context, slot string, keep int) (int, error) {
	slot, err := NormalizeSlot(slot)
	if err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM saves
		 WHERE slot = $1 AND seq NOT IN (
		     SELECT seq FROM saves WHERE slot = $1 ORDER BY seq DESC LIMIT $2)`,
		slot, max(keep, 0),
	)
	if err != nil {
		return 0, fmt.Errorf("prune saves: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
