package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// Observer is notified after every load attempt.
type Observer interface {
	DatasetLoaded(ds *models.Dataset, installed bool, err error)
}

// Store publishes the current dataset snapshot to concurrent readers.
// Snapshots are swapped atomically and never modified in place.
type Store struct {
	source   Source
	logger   *zap.Logger
	observer Observer

	current  atomic.Pointer[models.Dataset]
	reloadMu sync.Mutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithObserver registers an observer for load outcomes.
func WithObserver(o Observer) StoreOption {
	return func(s *Store) { s.observer = o }
}

// NewStore creates an empty store backed by source.
func NewStore(source Source, logger *zap.Logger, opts ...StoreOption) *Store {
	s := &Store{source: source, logger: logger.Named("dataset")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStaticStore creates a store already holding ds. Reload is unavailable.
func NewStaticStore(ds *models.Dataset) *Store {
	s := &Store{logger: zap.NewNop()}
	s.current.Store(ds)
	return s
}

// Load performs the startup load. Whatever loaded is installed, so a partial
// failure leaves the healthy tables queryable; the returned error names the rest.
func (s *Store) Load(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if s.source == nil {
		return errors.New("store has no source")
	}
	ds, err := s.source.Load(ctx)
	if ds != nil {
		s.current.Store(ds)
	}
	s.notify(ds, ds != nil, err)
	return err
}

// Reload loads a fresh snapshot and installs it only if every table loaded.
// On failure the previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) (*models.Dataset, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if s.source == nil {
		return nil, errors.New("store has no source")
	}
	ds, err := s.source.Load(ctx)
	if err == nil && !ds.Complete() {
		err = ds.Require(models.AllTables...)
	}
	if err != nil {
		s.notify(ds, false, err)
		s.logger.Warn("Dataset reload rejected, keeping previous snapshot", zap.Error(err))
		return nil, fmt.Errorf("%w: reload failed: %w", apperrors.ErrDatasetUnavailable, err)
	}

	s.current.Store(ds)
	s.notify(ds, true, nil)
	s.logger.Info("Dataset reloaded", zap.Time("loaded_at", ds.LoadedAt))
	return ds, nil
}

// Snapshot returns the current dataset, or nil before the first load.
func (s *Store) Snapshot() *models.Dataset {
	return s.current.Load()
}

func (s *Store) notify(ds *models.Dataset, installed bool, err error) {
	if s.observer != nil {
		s.observer.DatasetLoaded(ds, installed, err)
	}
}
