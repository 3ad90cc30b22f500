package directory

import (
	"context"
	"sync"
	"time"

	"github.com/bie-paris/delegate-directory/internal/joomla"
	"github.com/bie-paris/delegate-directory/internal/pkg/logger"
)

// DelegateSource is the slice of the gateway the service needs to keep the
// canonical collection current. The full joomla.Client satisfies it; tests
// inject doubles.
type DelegateSource interface {
	GetAllDelegates(ctx context.Context) ([]joomla.RawDelegate, error)
}

// Snapshotter persists the last-known-good raw payload across restarts.
// Optional: a nil Snapshotter disables priming and snapshot writes.
type Snapshotter interface {
	Save(ctx context.Context, raws []joomla.RawDelegate) error
	Load(ctx context.Context) ([]joomla.RawDelegate, time.Time, error)
}

// Service owns the pipeline's refresh cycle. Fetches are full replacements,
// never an incremental merge, and a failed fetch leaves the last good
// collection in place: stale data with an error banner beats an empty page.
//
// Overlapping refreshes are possible (the periodic tick plus a manual
// trigger); whichever completes last wins, which is the completion-order
// semantics an interactive reload button implies.
type Service struct {
	source    DelegateSource
	pipeline  *Pipeline
	snapshots Snapshotter

	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once

	mu        sync.RWMutex
	lastFetch time.Time
	lastErr   string
	dropped   int
	stale     bool // collection primed from snapshot, not yet confirmed live
	everGood  bool
}

// NewService creates a refresh service around the given source.
func NewService(source DelegateSource, pipeline *Pipeline, interval time.Duration) *Service {
	if pipeline == nil {
		pipeline = NewPipeline()
	}
	return &Service{
		source:   source,
		pipeline: pipeline,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// SetSnapshotter wires the optional last-known-good payload store.
func (s *Service) SetSnapshotter(sn Snapshotter) {
	s.snapshots = sn
}

// Pipeline exposes the owned pipeline for handlers.
func (s *Service) Pipeline() *Pipeline {
	return s.pipeline
}

// Refresh fetches the full delegate list and replaces the canonical
// collection. On failure the collection is untouched and the error becomes
// user-visible state instead of propagating.
func (s *Service) Refresh(ctx context.Context) error {
	raws, err := s.source.GetAllDelegates(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		logger.Error("delegate refresh failed", "error", err.Error())
		return err
	}

	// Applying the batch and bookkeeping happen under one lock so a snapshot
	// prime can never interleave with a live load.
	s.mu.Lock()
	result := s.pipeline.Load(raws)
	s.lastErr = ""
	s.lastFetch = time.Now()
	s.dropped = result.Dropped
	s.stale = false
	s.everGood = true
	s.mu.Unlock()

	if result.Dropped > 0 {
		logger.Warn("delegate refresh dropped malformed records", "dropped", result.Dropped, "total", result.Total)
	}
	logger.Info("delegate collection refreshed", "total", result.Total)

	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, raws); err != nil {
			logger.Warn("failed to save delegate snapshot", "error", err.Error())
		}
	}
	return nil
}

// PrimeFromSnapshot loads the last-known-good payload into the pipeline when
// the collection is still empty, so a restart behind a broken CMS serves
// stale data instead of nothing. No-op without a snapshotter or after a live
// fetch has landed.
func (s *Service) PrimeFromSnapshot(ctx context.Context) bool {
	if s.snapshots == nil || s.pipeline.Len() > 0 {
		return false
	}

	raws, generatedAt, err := s.snapshots.Load(ctx)
	if err != nil {
		logger.Warn("failed to load delegate snapshot", "error", err.Error())
		return false
	}
	if len(raws) == 0 {
		return false
	}

	s.mu.Lock()
	if s.everGood {
		// A live fetch won the race; its data is fresher than any snapshot.
		s.mu.Unlock()
		return false
	}
	s.stale = true
	s.lastFetch = generatedAt
	result := s.pipeline.Load(raws)
	s.mu.Unlock()
	logger.Info("delegate collection primed from snapshot", "total", result.Total, "generated_at", generatedAt.Format(time.RFC3339))
	return true
}

// Start begins periodic refreshing. The initial fetch happens synchronously
// in the loop goroutine; callers that need data before serving should call
// Refresh (or PrimeFromSnapshot) themselves first.
func (s *Service) Start() {
	go s.refreshLoop()
}

// Stop halts the periodic refresh. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Service) refreshLoop() {
	s.refreshOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshOnce()
		case <-s.stopChan:
			logger.Info("delegate refresh loop stopped")
			return
		}
	}
}

func (s *Service) refreshOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	_ = s.Refresh(ctx) // already reflected in error state
}

// LastFetch reports when the current collection was obtained (live or from
// snapshot). Zero when nothing has ever loaded.
func (s *Service) LastFetch() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetch
}

// LastError reports the most recent fetch failure; empty after a success.
func (s *Service) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Stale reports whether the collection came from a snapshot rather than a
// live fetch.
func (s *Service) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

// DroppedCount reports how many raw records the last successful load skipped.
func (s *Service) DroppedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}
