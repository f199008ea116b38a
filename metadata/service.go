package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sig-0/feemeta/exchange"
	"github.com/sig-0/feemeta/metrics"
	"github.com/sig-0/feemeta/network"
	"github.com/sig-0/feemeta/storage"
	"github.com/sig-0/feemeta/storage/types"
)

const (
	// DefaultMaxAge is the age after which the cached metadata is regenerated
	DefaultMaxAge = time.Hour

	// DefaultQuoteAsset is the quote asset of the tracked trading symbols
	DefaultQuoteAsset = "USDT"

	// DefaultRefreshTimeout bounds a single shared regeneration
	DefaultRefreshTimeout = 5 * time.Minute
)

const refreshKey = "refresh"

var (
	errMissingStorage  = errors.New("missing metadata storage")
	errMissingAdapters = errors.New("no exchange adapters provided")
	errInvalidAdapter  = errors.New("invalid exchange adapter")
	errDuplicateName   = errors.New("duplicate exchange adapter")
	errEmptySnapshot   = errors.New("empty metadata snapshot")
)

// Service serves the cross-exchange metadata table, regenerating it
// from the exchanges once the persisted snapshot goes stale
type Service struct {
	storage  storage.Storage
	adapters []exchange.Adapter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	reference      network.Reference
	threshold      float64
	maxAge         time.Duration
	refreshTimeout time.Duration
	quote          string

	// concurrent regenerations share a single run
	group singleflight.Group
}

// New creates a new metadata service over the given storage and exchanges.
// The merged table entries follow the order of the adapters
func New(
	storage storage.Storage,
	adapters []exchange.Adapter,
	opts ...Option,
) (*Service, error) {
	if storage == nil {
		return nil, errMissingStorage
	}

	if len(adapters) == 0 {
		return nil, errMissingAdapters
	}

	seen := make(map[types.Exchange]struct{}, len(adapters))

	for _, adapter := range adapters {
		if adapter == nil || adapter.Exchange() == "" {
			return nil, errInvalidAdapter
		}

		if _, ok := seen[adapter.Exchange()]; ok {
			return nil, fmt.Errorf("%w: %s", errDuplicateName, adapter.Exchange())
		}

		seen[adapter.Exchange()] = struct{}{}
	}

	s := &Service{
		storage:        storage,
		adapters:       adapters,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:            time.Now,
		threshold:      network.DefaultThreshold,
		maxAge:         DefaultMaxAge,
		refreshTimeout: DefaultRefreshTimeout,
		quote:          DefaultQuoteAsset,
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	if s.reference == nil {
		reference, err := network.DefaultReference()
		if err != nil {
			return nil, fmt.Errorf("unable to load default reliability reference: %w", err)
		}

		s.reference = reference
	}

	return s, nil
}

// IsFresh checks if the persisted snapshot was generated within the max age.
// An unreadable generation record is never fresh
func (s *Service) IsFresh(ctx context.Context) bool {
	last, err := s.storage.LastGenerated(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn(
				"unable to read metadata generation time",
				"err", err,
			)

			s.cacheError()
		}

		return false
	}

	return s.now().Sub(last) < s.maxAge
}

// Get returns the metadata table, regenerating it if the cache is stale
func (s *Service) Get(ctx context.Context) (*types.Table, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return snapshot.Table, nil
}

// Snapshot returns the persisted snapshot if it is fresh,
// otherwise regenerates and persists a new one
func (s *Service) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	if s.IsFresh(ctx) {
		snapshot, err := s.storage.LoadSnapshot(ctx)
		if err == nil && (snapshot == nil || snapshot.Table == nil) {
			err = errEmptySnapshot
		}

		if err == nil {
			s.logger.Debug(
				"serving cached metadata",
				"id", snapshot.ID,
				"age", s.now().Sub(snapshot.GeneratedAt).String(),
			)

			if s.metrics != nil {
				s.metrics.CacheHit()
			}

			return snapshot, nil
		}

		// Unreadable cache is the same as a stale one
		s.logger.Warn(
			"unable to read cached metadata",
			"err", err,
		)

		s.cacheError()
	}

	return s.Refresh(ctx)
}

// Refresh regenerates the metadata from the exchanges, and persists it.
// Concurrent calls share the result of a single regeneration, which
// outlives the caller that started it and is bounded by the refresh timeout.
// Each caller stops waiting once its own context is done.
// Any exchange error aborts the regeneration
func (s *Service) Refresh(ctx context.Context) (*types.Snapshot, error) {
	resCh := s.group.DoChan(refreshKey, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()

		return s.regenerate(runCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resCh:
		if res.Err != nil {
			return nil, res.Err
		}

		snapshot, _ := res.Val.(*types.Snapshot)

		return snapshot, nil
	}
}

// regenerate builds, merges and persists a new snapshot
func (s *Service) regenerate(ctx context.Context) (*types.Snapshot, error) {
	start := s.now()

	s.logger.Info(
		"generating new metadata",
		"exchanges", len(s.adapters),
	)

	snapshot, err := s.generate(ctx)

	if s.metrics != nil {
		s.metrics.ObserveRefresh(s.now().Sub(start), err)
	}

	if err != nil {
		s.logger.Error(
			"unable to generate metadata",
			"err", err,
		)

		return nil, err
	}

	s.logger.Info(
		"generated new metadata",
		"id", snapshot.ID,
		"symbols", len(snapshot.Table.Rows),
	)

	return snapshot, nil
}

func (s *Service) generate(ctx context.Context) (*types.Snapshot, error) {
	tables := make([]*types.ExchangeTable, len(s.adapters))

	g, gCtx := errgroup.WithContext(ctx)

	for i, adapter := range s.adapters {
		g.Go(func() error {
			table, err := BuildExchangeTable(
				gCtx,
				adapter,
				s.reference,
				s.threshold,
				s.quote,
			)
			if err != nil {
				return err
			}

			tables[i] = table

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, table := range tables {
		s.logger.Debug(
			"built exchange table",
			"exchange", table.Exchange.String(),
			"symbols", len(table.Rows),
		)

		if s.metrics != nil {
			s.metrics.SetExchangeRows(table.Exchange.String(), len(table.Rows))
		}
	}

	snapshot := &types.Snapshot{
		GeneratedAt: s.now().UTC(),
		Table:       Merge(tables...),
		ID:          xid.New().String(),
	}

	if err := s.storage.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("unable to persist metadata: %w", err)
	}

	if s.metrics != nil {
		s.metrics.SetTableRows(len(snapshot.Table.Rows))
	}

	return snapshot, nil
}

func (s *Service) cacheError() {
	if s.metrics != nil {
		s.metrics.CacheError()
	}
}
