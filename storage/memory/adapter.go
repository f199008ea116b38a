package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sig-0/feemeta/storage"
	"github.com/sig-0/feemeta/storage/types"
)

type Storage struct {
	snapshot *types.Snapshot

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{}
}

func (s *Storage) SaveSnapshot(_ context.Context, snapshot *types.Snapshot) error {
	elem := copySnapshot(snapshot)
	elem.GeneratedAt = elem.GeneratedAt.UTC()

	s.mu.Lock()
	s.snapshot = elem
	s.mu.Unlock()

	return nil
}

func (s *Storage) LoadSnapshot(_ context.Context) (*types.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, storage.ErrNotFound
	}

	return copySnapshot(s.snapshot), nil
}

func (s *Storage) LastGenerated(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return time.Time{}, storage.ErrNotFound
	}

	return s.snapshot.GeneratedAt, nil
}

// copySnapshot deep-copies the snapshot, so callers can't mutate the stored table
func copySnapshot(snapshot *types.Snapshot) *types.Snapshot {
	cp := *snapshot

	if snapshot.Table == nil {
		return &cp
	}

	table := &types.Table{
		Exchanges: append([]types.Exchange(nil), snapshot.Table.Exchanges...),
		Rows:      make([]*types.Row, 0, len(snapshot.Table.Rows)),
	}

	for _, row := range snapshot.Table.Rows {
		table.Rows = append(table.Rows, &types.Row{
			Symbol:  row.Symbol,
			Entries: append([]types.Entry(nil), row.Entries...),
		})
	}

	cp.Table = table

	return &cp
}
