package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"filefinder/internal/backend"
	"filefinder/internal/disks"
)

// ErrSearchInProgress is returned when a search is requested while another
// is in flight. The request is dropped, not queued.
var ErrSearchInProgress = errors.New("search already in progress")

// Controller owns all mutable session state and orchestrates backend calls.
// Backend calls run outside the state lock, so readers never wait on the
// network.
type Controller struct {
	backend backend.Backend
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string

	// notifyMu serializes mutate+notify so observers see versions in order.
	notifyMu sync.Mutex

	mu            sync.Mutex
	version       uint64
	state         State
	criteria      Criteria
	initialized   bool
	disks         []disks.Summary
	diskIDs       []string
	diskErr       error
	results       []backend.SearchResult
	resultsFor    Criteria
	history       []HistoryEntry
	durationLabel string
	lastErr       error
	inflight      string // ID of the in-flight request, "" when none

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the logger used for state transitions.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a controller in the Idle state.
func New(b backend.Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: b,
		logger:  zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
		state:   Idle,
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn to receive every settled snapshot. fn runs on the
// goroutine that caused the change and must not call back into the
// controller synchronously.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// Snapshot returns the current settled state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Initialize loads the disk list. Only the first call per session reaches the
// backend; failures leave the list empty and are not retried.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return nil
	}
	c.initialized = true
	c.mu.Unlock()

	return c.loadDisks(ctx)
}

// RefreshDisks re-fetches the disk list on explicit user request.
func (c *Controller) RefreshDisks(ctx context.Context) error {
	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	return c.loadDisks(ctx)
}

func (c *Controller) loadDisks(ctx context.Context) error {
	list, err := c.backend.GetDisks(ctx)

	c.mutate(func() bool {
		if err != nil {
			c.diskErr = err
			return true
		}

		c.disks = append([]disks.Summary(nil), list...)
		c.diskIDs = disks.DisplayIDs(c.disks)
		c.diskErr = nil

		// Drop a disk filter that no longer names a known disk
		if c.criteria.Disk != "" && !contains(c.diskIDs, c.criteria.Disk) {
			c.criteria.Disk = ""
		}
		return true
	})

	if err != nil {
		c.logger.Warn("failed to load disks", zap.Error(err))
		return fmt.Errorf("failed to load disks: %w", err)
	}
	c.logger.Info("disks loaded", zap.Int("count", len(list)))
	return nil
}

// UpdateCriteria applies fn to the staged criteria. An in-flight search keeps
// the criteria it captured; the change applies to the next search.
func (c *Controller) UpdateCriteria(fn func(*Criteria)) {
	c.mutate(func() bool {
		fn(&c.criteria)
		return true
	})
}

// Begin moves the session into Searching and captures the request. It
// returns false, changing nothing, when a search is already in flight.
func (c *Controller) Begin() (Request, bool) {
	var (
		req Request
		ok  bool
	)

	c.mutate(func() bool {
		if c.state == Searching {
			return false
		}
		req = Request{
			ID:       c.newID(),
			Criteria: c.criteria,
			Started:  c.now(),
		}
		c.state = Searching
		c.lastErr = nil
		c.inflight = req.ID
		ok = true
		return true
	})

	if ok {
		c.logger.Info("search started",
			zap.String("request_id", req.ID),
			zap.String("query", req.Criteria.Query),
			zap.String("extension", req.Criteria.Extension),
			zap.String("disk", req.Criteria.Disk),
			zap.Bool("folders", req.Criteria.IncludeFolders))
	} else {
		c.logger.Debug("search dropped: already in progress")
	}
	return req, ok
}

// Execute runs a request obtained from Begin and commits its outcome.
// Success stores results, records history and shows results; failure returns
// to Idle with an empty result set and the error kept for display.
func (c *Controller) Execute(ctx context.Context, req Request) error {
	hits, err := c.backend.SearchForFile(ctx, req.Wire())

	c.mutate(func() bool {
		if c.inflight != req.ID {
			return false
		}
		c.inflight = ""

		if err != nil {
			c.state = Idle
			c.results = []backend.SearchResult{}
			c.resultsFor = Criteria{}
			c.durationLabel = ""
			c.lastErr = err
			return true
		}

		finished := c.now()
		if hits == nil {
			hits = []backend.SearchResult{}
		}
		c.results = hits
		c.resultsFor = req.Criteria
		c.durationLabel = FormatDuration(finished.Sub(req.Started))
		c.history = append([]HistoryEntry{{
			Query:           req.Criteria.Query,
			TimestampMillis: finished.UnixMilli(),
		}}, c.history...)
		c.state = ShowingResults
		return true
	})

	if err != nil {
		c.logger.Warn("search failed", zap.String("request_id", req.ID), zap.Error(err))
		return fmt.Errorf("search failed: %w", err)
	}
	c.logger.Info("search finished",
		zap.String("request_id", req.ID),
		zap.Int("results", len(hits)),
		zap.Duration("elapsed", c.now().Sub(req.Started)))
	return nil
}

// Search runs a full search with the current criteria and blocks until the
// backend answers. While another search is in flight it is a no-op that
// returns ErrSearchInProgress.
func (c *Controller) Search(ctx context.Context) error {
	req, ok := c.Begin()
	if !ok {
		return ErrSearchInProgress
	}
	return c.Execute(ctx, req)
}

// SelectHistoryEntry replays a past query. Only the query text is restored;
// extension, disk and folder filters keep their current values.
func (c *Controller) SelectHistoryEntry(ctx context.Context, entry HistoryEntry) error {
	c.UpdateCriteria(func(cr *Criteria) { cr.Query = entry.Query })
	return c.Search(ctx)
}

// SelectHistoryEntryAsync is SelectHistoryEntry for callers that run the
// backend call themselves via Execute.
func (c *Controller) SelectHistoryEntryAsync(entry HistoryEntry) (Request, bool) {
	c.UpdateCriteria(func(cr *Criteria) { cr.Query = entry.Query })
	return c.Begin()
}

// OpenResult asks the backend to reveal path in the file manager. Session
// state is untouched.
func (c *Controller) OpenResult(ctx context.Context, path string) error {
	if err := c.backend.ShowInExplorer(ctx, path); err != nil {
		c.logger.Warn("reveal failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to reveal %s: %w", path, err)
	}
	return nil
}

// GoBackToQuery returns from the results view to the form. Results and
// history are kept.
func (c *Controller) GoBackToQuery() {
	c.mutate(func() bool {
		if c.state != ShowingResults {
			return false
		}
		c.state = Idle
		return true
	})
}

// mutate applies fn under the state lock. When fn reports a change it bumps
// the version and notifies observers with the settled snapshot after the
// lock is released; otherwise nothing is observable.
func (c *Controller) mutate(fn func() bool) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if !fn() {
		c.mu.Unlock()
		return
	}
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Version:       c.version,
		State:         c.state,
		Criteria:      c.criteria,
		Disks:         append([]disks.Summary(nil), c.disks...),
		DiskIDs:       append([]string(nil), c.diskIDs...),
		DiskError:     c.diskErr,
		Results:       append([]backend.SearchResult(nil), c.results...),
		ResultsFor:    c.resultsFor,
		History:       append([]HistoryEntry(nil), c.history...),
		DurationLabel: c.durationLabel,
		LastError:     c.lastErr,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
