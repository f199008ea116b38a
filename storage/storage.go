package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sig-0/feemeta/storage/types"
)

var (
	// ErrNotFound is returned when no metadata snapshot has been persisted
	ErrNotFound = errors.New("metadata snapshot not found")

	// ErrCacheRead is returned when the persisted snapshot is unreadable or corrupt
	ErrCacheRead = errors.New("unable to read metadata snapshot")
)

// Storage is an abstraction over the persisted metadata snapshot
type Storage interface {
	// SaveSnapshot persists the snapshot table, followed by its generation record.
	// A failed save never leaves a generation record pointing at a stale table
	SaveSnapshot(context.Context, *types.Snapshot) error

	// LoadSnapshot loads the persisted snapshot
	LoadSnapshot(context.Context) (*types.Snapshot, error)

	// LastGenerated returns the generation time of the persisted snapshot
	LastGenerated(context.Context) (time.Time, error)
}
