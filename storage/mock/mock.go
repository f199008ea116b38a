package mock

import (
	"context"
	"time"

	"github.com/sig-0/feemeta/storage/types"
)

type (
	SaveSnapshotDelegate  func(context.Context, *types.Snapshot) error
	LoadSnapshotDelegate  func(context.Context) (*types.Snapshot, error)
	LastGeneratedDelegate func(context.Context) (time.Time, error)
)

type Storage struct {
	SaveSnapshotFn  SaveSnapshotDelegate
	LoadSnapshotFn  LoadSnapshotDelegate
	LastGeneratedFn LastGeneratedDelegate
}

func (m *Storage) SaveSnapshot(ctx context.Context, snapshot *types.Snapshot) error {
	if m.SaveSnapshotFn != nil {
		return m.SaveSnapshotFn(ctx, snapshot)
	}

	return nil
}

func (m *Storage) LoadSnapshot(ctx context.Context) (*types.Snapshot, error) {
	if m.LoadSnapshotFn != nil {
		return m.LoadSnapshotFn(ctx)
	}

	return nil, nil
}

func (m *Storage) LastGenerated(ctx context.Context) (time.Time, error) {
	if m.LastGeneratedFn != nil {
		return m.LastGeneratedFn(ctx)
	}

	return time.Time{}, nil
}
