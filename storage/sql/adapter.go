package sql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sig-0/feemeta/storage"
	"github.com/sig-0/feemeta/storage/types"
)

const (
	saveSnapshotQuery = `
INSERT INTO metadata_snapshots (id, generated_at, exchanges, rows)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET generated_at = EXCLUDED.generated_at,
    exchanges    = EXCLUDED.exchanges,
    rows         = EXCLUDED.rows`

	loadSnapshotQuery = `
SELECT id, generated_at, exchanges, rows
FROM metadata_snapshots
ORDER BY generated_at DESC
LIMIT 1`

	lastGeneratedQuery = `
SELECT generated_at
FROM metadata_snapshots
ORDER BY generated_at DESC
LIMIT 1`
)

var errMissingID = errors.New("missing snapshot ID")

// DB is the subset of the pgx connection (or pool) the storage uses
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage keeps every generated snapshot in Postgres,
// and serves the latest one
type Storage struct {
	db DB
}

func NewStorage(db DB) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) SaveSnapshot(ctx context.Context, snapshot *types.Snapshot) error {
	if snapshot.ID == "" {
		return errMissingID
	}

	if snapshot.Table == nil {
		return errors.New("missing snapshot table")
	}

	rows, err := json.Marshal(snapshot.Table.Rows)
	if err != nil {
		return fmt.Errorf("unable to encode rows: %w", err)
	}

	exchanges := make([]string, 0, len(snapshot.Table.Exchanges))
	for _, exchange := range snapshot.Table.Exchanges {
		exchanges = append(exchanges, exchange.String())
	}

	if _, err = s.db.Exec(
		ctx,
		saveSnapshotQuery,
		snapshot.ID,
		timeToTimestampz(snapshot.GeneratedAt),
		exchanges,
		rows,
	); err != nil {
		return fmt.Errorf("unable to save snapshot: %w", err)
	}

	return nil
}

func (s *Storage) LoadSnapshot(ctx context.Context) (*types.Snapshot, error) {
	var (
		id          string
		generatedAt pgtype.Timestamptz
		exchanges   []string
		rows        []byte
	)

	if err := s.db.QueryRow(ctx, loadSnapshotQuery).Scan(
		&id,
		&generatedAt,
		&exchanges,
		&rows,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("%w: %w", storage.ErrCacheRead, err)
	}

	table := &types.Table{
		Exchanges: make([]types.Exchange, 0, len(exchanges)),
		Rows:      make([]*types.Row, 0),
	}

	for _, exchange := range exchanges {
		table.Exchanges = append(table.Exchanges, types.Exchange(exchange))
	}

	if err := json.Unmarshal(rows, &table.Rows); err != nil {
		return nil, fmt.Errorf("%w: unable to decode rows: %w", storage.ErrCacheRead, err)
	}

	for _, row := range table.Rows {
		if row == nil || len(row.Entries) != len(table.Exchanges) {
			return nil, fmt.Errorf("%w: misaligned row", storage.ErrCacheRead)
		}
	}

	return &types.Snapshot{
		GeneratedAt: timestampzToTime(generatedAt),
		Table:       table,
		ID:          id,
	}, nil
}

func (s *Storage) LastGenerated(ctx context.Context) (time.Time, error) {
	var generatedAt pgtype.Timestamptz

	if err := s.db.QueryRow(ctx, lastGeneratedQuery).Scan(&generatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}

		return time.Time{}, fmt.Errorf("%w: %w", storage.ErrCacheRead, err)
	}

	if !generatedAt.Valid {
		return time.Time{}, fmt.Errorf("%w: missing generation time", storage.ErrCacheRead)
	}

	return timestampzToTime(generatedAt), nil
}

// timeToTimestampz converts the time value to postgres timestamp
func timeToTimestampz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

// timestampzToTime converts the postgres timestamp value to time
func timestampzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}

	return ts.Time.UTC()
}
