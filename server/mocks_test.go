package server

import (
	"context"

	"github.com/sig-0/feemeta/storage/types"
)

type snapshotDelegate func(context.Context) (*types.Snapshot, error)

type mockMetadata struct {
	snapshotFn snapshotDelegate
}

func (m *mockMetadata) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	if m.snapshotFn != nil {
		return m.snapshotFn(ctx)
	}

	return nil, nil
}
