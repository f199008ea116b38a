package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sig-0/feemeta/storage"
	"github.com/sig-0/feemeta/storage/types"
)

// DefaultKeyPrefix is the default namespace for the metadata keys
const DefaultKeyPrefix = "feemeta"

const (
	tableKey     = "table"
	generatedKey = "generated_at" // unix microseconds
	idKey        = "id"
)

// Storage keeps the latest snapshot in Redis, as a JSON table
// and a generation record written in a single transaction
type Storage struct {
	client redis.UniversalClient
	prefix string
}

func NewStorage(client redis.UniversalClient, opts ...Option) *Storage {
	s := &Storage{
		client: client,
		prefix: DefaultKeyPrefix,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Storage) SaveSnapshot(ctx context.Context, snapshot *types.Snapshot) error {
	if snapshot.Table == nil {
		return errors.New("missing snapshot table")
	}

	table, err := json.Marshal(snapshot.Table)
	if err != nil {
		return fmt.Errorf("unable to encode table: %w", err)
	}

	if _, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		// The table goes first, so the record never points at a missing table
		pipe.Set(ctx, s.key(tableKey), table, 0)
		pipe.HSet(
			ctx,
			s.key(generatedKey),
			generatedKey, strconv.FormatInt(snapshot.GeneratedAt.UnixMicro(), 10),
			idKey, snapshot.ID,
		)

		return nil
	}); err != nil {
		return fmt.Errorf("unable to save snapshot: %w", err)
	}

	return nil
}

func (s *Storage) LoadSnapshot(ctx context.Context) (*types.Snapshot, error) {
	generatedAt, id, err := s.record(ctx)
	if err != nil {
		return nil, err
	}

	content, err := s.client.Get(ctx, s.key(tableKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: table is missing", storage.ErrCacheRead)
		}

		return nil, fmt.Errorf("%w: %w", storage.ErrCacheRead, err)
	}

	table, err := decodeTable(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrCacheRead, err)
	}

	return &types.Snapshot{
		GeneratedAt: generatedAt,
		Table:       table,
		ID:          id,
	}, nil
}

func (s *Storage) LastGenerated(ctx context.Context) (time.Time, error) {
	generatedAt, _, err := s.record(ctx)

	return generatedAt, err
}

// record fetches the generation record
func (s *Storage) record(ctx context.Context) (time.Time, string, error) {
	values, err := s.client.HGetAll(ctx, s.key(generatedKey)).Result()
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %w", storage.ErrCacheRead, err)
	}

	// HGETALL on a missing key yields an empty hash
	if len(values) == 0 {
		return time.Time{}, "", storage.ErrNotFound
	}

	generatedAt, err := parseGeneratedAt(values[generatedKey])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %w", storage.ErrCacheRead, err)
	}

	return generatedAt, values[idKey], nil
}

func (s *Storage) key(name string) string {
	return s.prefix + ":" + name
}

// parseGeneratedAt parses the unix microsecond generation time
func parseGeneratedAt(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("missing generation time")
	}

	micros, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid generation time %q: %w", value, err)
	}

	return time.UnixMicro(micros).UTC(), nil
}

// decodeTable decodes the JSON table, making sure the rows are aligned
func decodeTable(content []byte) (*types.Table, error) {
	var table types.Table

	if err := json.Unmarshal(content, &table); err != nil {
		return nil, fmt.Errorf("unable to decode table: %w", err)
	}

	if table.Rows == nil {
		table.Rows = make([]*types.Row, 0)
	}

	for _, row := range table.Rows {
		if row == nil || len(row.Entries) != len(table.Exchanges) {
			return nil, errors.New("misaligned table row")
		}
	}

	return &table, nil
}
