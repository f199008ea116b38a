package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sig-0/feemeta/storage"
	"github.com/sig-0/feemeta/storage/types"
)

const (
	// TableFile is the name of the CSV metadata table file
	TableFile = "metadata.csv"

	// TimestampFile is the name of the JSON generation record file
	TimestampFile = "metadata_timestamp.json"
)

// timestampRecord is the persisted generation record
type timestampRecord struct {
	ID            string  `json:"id,omitempty"`
	LastGenerated float64 `json:"last_generated"` // unix seconds
}

// Storage persists the metadata snapshot as a CSV table
// and a JSON generation record, inside a single directory
type Storage struct {
	dir string

	mu sync.Mutex
}

func NewStorage(dir string) *Storage {
	return &Storage{
		dir: dir,
	}
}

func (s *Storage) SaveSnapshot(_ context.Context, snapshot *types.Snapshot) error {
	if snapshot.Table == nil {
		return errors.New("missing snapshot table")
	}

	var table bytes.Buffer

	if err := EncodeTable(&table, snapshot.Table); err != nil {
		return fmt.Errorf("unable to encode table: %w", err)
	}

	record, err := json.Marshal(timestampRecord{
		ID:            snapshot.ID,
		LastGenerated: unixSeconds(snapshot.GeneratedAt),
	})
	if err != nil {
		return fmt.Errorf("unable to encode generation record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("unable to create metadata directory: %w", err)
	}

	// The table goes first, so the record never points at a missing table
	if err = writeFileAtomic(s.path(TableFile), table.Bytes()); err != nil {
		return fmt.Errorf("unable to write table: %w", err)
	}

	if err = writeFileAtomic(s.path(TimestampFile), record); err != nil {
		return fmt.Errorf("unable to write generation record: %w", err)
	}

	return nil
}

func (s *Storage) LoadSnapshot(_ context.Context) (*types.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.readRecord()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(s.path(TableFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: table file is missing", storage.ErrCacheRead)
		}

		return nil, fmt.Errorf("%w: %w", storage.ErrCacheRead, err)
	}
	defer f.Close()

	table, err := DecodeTable(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrCacheRead, err)
	}

	return &types.Snapshot{
		GeneratedAt: fromUnixSeconds(record.LastGenerated),
		Table:       table,
		ID:          record.ID,
	}, nil
}

func (s *Storage) LastGenerated(_ context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.readRecord()
	if err != nil {
		return time.Time{}, err
	}

	return fromUnixSeconds(record.LastGenerated), nil
}

// readRecord reads the generation record
func (s *Storage) readRecord() (*timestampRecord, error) {
	content, err := os.ReadFile(s.path(TimestampFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("%w: %w", storage.ErrCacheRead, err)
	}

	var record timestampRecord

	if err = json.Unmarshal(content, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrCacheRead, err)
	}

	if record.LastGenerated <= 0 {
		return nil, fmt.Errorf("%w: missing generation time", storage.ErrCacheRead)
	}

	return &record, nil
}

func (s *Storage) path(name string) string {
	return filepath.Join(s.dir, name)
}

// writeFileAtomic writes the file through a temporary file and a rename,
// so readers never observe a partial write
func writeFileAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()

	defer func() {
		// No-op if the rename went through
		_ = os.Remove(tmpPath)
	}()

	if _, err = tmp.Write(content); err != nil {
		_ = tmp.Close()

		return err
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()

		return err
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// unixSeconds converts the time to fractional unix seconds
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// fromUnixSeconds converts fractional unix seconds to time, with microsecond precision
func fromUnixSeconds(seconds float64) time.Time {
	return time.UnixMicro(int64(math.Round(seconds * 1e6))).UTC()
}
