// Package gc reclaims extents that no blob, snapshot or staged block
// references anymore. Handlers release extents eagerly on the happy path;
// the sweeper catches everything dropped on error paths or lost to races.
package gc

import (
	"context"
	"sync"
	"time"

	"github.com/bloblite/bloblite/internal/logger"
	"github.com/bloblite/bloblite/pkg/metrics"
	"github.com/bloblite/bloblite/pkg/store/extent"
	"github.com/bloblite/bloblite/pkg/store/metadata"
)

// DefaultInterval is the sweep period used when none is configured.
const DefaultInterval = 5 * time.Minute

// Sweeper periodically deletes unreferenced extents.
type Sweeper struct {
	meta     metadata.Store
	extents  extent.Store
	metrics  *metrics.Metrics
	interval time.Duration

	mu        sync.Mutex
	started   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}

	sweeps  int
	removed int

	// candidates holds the extents found orphaned by the previous sweep.
	// An extent is only deleted once two consecutive sweeps agree it is
	// unreferenced, so an upload in flight between the snapshot reads can
	// never be reaped.
	candidates map[string]struct{}
}

// New creates a sweeper. metrics may be nil.
func New(meta metadata.Store, extents extent.Store, m *metrics.Metrics, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		meta:       meta,
		extents:    extents,
		metrics:    m,
		interval:   interval,
		stopCh:     make(chan struct{}),
		stoppedCh:  make(chan struct{}),
		candidates: make(map[string]struct{}),
	}
}

// Start begins the sweep loop. It returns immediately; sweeps run in a
// background goroutine until Stop is called or the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	logger.Info("starting extent garbage collector", "interval", s.interval.String())

	go func() {
		defer close(s.stoppedCh)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					logger.Error("extent sweep failed", "error", err)
				}
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop(timeout time.Duration) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	close(s.stopCh)
	select {
	case <-s.stoppedCh:
		logger.Debug("extent garbage collector stopped")
	case <-time.After(timeout):
		logger.Warn("extent garbage collector stop timed out")
	}
}

// Sweep runs one collection pass and returns the number of extents removed.
//
// Deletion needs confirmation from two consecutive passes: the first pass
// only records an unreferenced extent as a candidate, the second deletes it
// if it is still unreferenced. Extents written ahead of their metadata
// reference (every upload does this) survive the window between the two
// snapshot reads.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	ids, err := s.extents.IDs(ctx)
	if err != nil {
		return 0, err
	}
	live, err := s.meta.ReferencedExtents(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	confirmed := s.candidates
	s.mu.Unlock()

	before := s.extents.TotalSize()
	removed := 0
	next := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := live[id]; ok {
			continue
		}
		if _, ok := confirmed[id]; !ok {
			next[id] = struct{}{}
			continue
		}
		if err := s.extents.Delete(ctx, id); err != nil {
			logger.Warn("failed to delete orphaned extent", "extent_id", id, "error", err)
			next[id] = struct{}{}
			continue
		}
		removed++
	}
	swept := before - s.extents.TotalSize()

	s.mu.Lock()
	s.sweeps++
	s.removed += removed
	s.candidates = next
	s.mu.Unlock()

	if removed > 0 {
		logger.Info("extent sweep completed",
			"removed", removed,
			"bytes", swept,
			"live", len(live),
		)
	} else {
		logger.Debug("extent sweep completed", "removed", 0, "live", len(live))
	}
	s.metrics.ObserveSweep(swept)
	if containers, blobs, err := s.meta.Stats(ctx); err == nil {
		s.metrics.SetStoreStats(s.extents.TotalSize(), containers, blobs)
	}
	return removed, nil
}

// Stats returns the number of completed sweeps and total extents removed.
func (s *Sweeper) Stats() (sweeps, removed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweeps, s.removed
}
