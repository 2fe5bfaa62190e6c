package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"filefinder/internal/backend"
	"filefinder/internal/disks"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeBackend records calls and can hold a search open until released.
type fakeBackend struct {
	mu sync.Mutex

	disks     []disks.Summary
	disksErr  error
	diskCalls int

	results   []backend.SearchResult
	searchErr error
	searches  []backend.SearchRequest
	onSearch  func()

	// When gate is set, SearchForFile signals entered and waits on gate.
	gate    chan struct{}
	entered chan struct{}

	revealed  []string
	revealErr error
}

func (f *fakeBackend) GetDisks(ctx context.Context) ([]disks.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diskCalls++
	return f.disks, f.disksErr
}

func (f *fakeBackend) SearchForFile(ctx context.Context, req backend.SearchRequest) ([]backend.SearchResult, error) {
	f.mu.Lock()
	f.searches = append(f.searches, req)
	gate, entered, onSearch := f.gate, f.entered, f.onSearch
	f.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	if onSearch != nil {
		onSearch()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results, f.searchErr
}

func (f *fakeBackend) ShowInExplorer(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revealed = append(f.revealed, path)
	return f.revealErr
}

func (f *fakeBackend) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

func newTestController(fb *fakeBackend, clock *fakeClock) *Controller {
	return New(fb, WithClock(clock.Now))
}

func TestNewController(t *testing.T) {
	c := New(&fakeBackend{})
	snap := c.Snapshot()

	assert.Equal(t, Idle, snap.State)
	assert.Empty(t, snap.Results)
	assert.Empty(t, snap.History)
	assert.Empty(t, snap.Disks)
	assert.Equal(t, Criteria{}, snap.Criteria)
	assert.Empty(t, snap.DurationLabel)
	assert.NoError(t, snap.LastError)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Idle", Idle.String())
	assert.Equal(t, "Searching", Searching.String())
	assert.Equal(t, "ShowingResults", ShowingResults.String())
	assert.Equal(t, "Unknown", State(42).String())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 milliseconds"},
		{450 * time.Millisecond, "450 milliseconds"},
		{999*time.Millisecond + 900*time.Microsecond, "999 milliseconds"},
		{time.Second, "1.00 seconds"},
		{1500 * time.Millisecond, "1.50 seconds"},
		{12345 * time.Millisecond, "12.35 seconds"},
		{-time.Second, "0 milliseconds"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), "duration %v", tt.in)
	}
}

func TestInitialize(t *testing.T) {
	fb := &fakeBackend{disks: []disks.Summary{
		{Name: "C", MountPoint: "C://"},
		{Name: "home", MountPoint: "/home"},
	}}
	c := New(fb)

	require.NoError(t, c.Initialize(context.Background()))
	require.NoError(t, c.Initialize(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, 1, fb.diskCalls, "disks are fetched once per session")
	assert.Len(t, snap.Disks, 2)
	assert.Equal(t, []string{"C:", "/home"}, snap.DiskIDs)
	assert.NoError(t, snap.DiskError)
}

func TestInitialize_Failure(t *testing.T) {
	fb := &fakeBackend{disksErr: errors.New("host unreachable")}
	c := New(fb)

	err := c.Initialize(context.Background())
	require.Error(t, err)

	snap := c.Snapshot()
	assert.Empty(t, snap.Disks)
	assert.Error(t, snap.DiskError)
	assert.Equal(t, Idle, snap.State)

	// No automatic retry
	require.NoError(t, c.Initialize(context.Background()))
	assert.Equal(t, 1, fb.diskCalls)
}

func TestRefreshDisks(t *testing.T) {
	fb := &fakeBackend{disks: []disks.Summary{{MountPoint: "/a"}, {MountPoint: "/b"}}}
	c := New(fb)
	require.NoError(t, c.Initialize(context.Background()))

	c.UpdateCriteria(func(cr *Criteria) { cr.Disk = "/b" })

	fb.mu.Lock()
	fb.disks = []disks.Summary{{MountPoint: "/a"}}
	fb.mu.Unlock()

	require.NoError(t, c.RefreshDisks(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, 2, fb.diskCalls)
	assert.Equal(t, []string{"/a"}, snap.DiskIDs)
	assert.Empty(t, snap.Criteria.Disk, "filter on a vanished disk is cleared")
}

func TestSearch_Success(t *testing.T) {
	clock := newFakeClock()
	fb := &fakeBackend{
		disks: []disks.Summary{{Name: "C", MountPoint: "C://"}, {Name: "D", MountPoint: "D://"}},
		results: []backend.SearchResult{
			{Path: "C:/a/report.txt", Name: "report.txt", Size: 10},
			{Path: "C:/b/report.txt", Name: "report.txt", Size: 20},
			{Path: "D:/report.txt", Name: "report.txt", Size: 30},
		},
		onSearch: func() { clock.Advance(450 * time.Millisecond) },
	}
	c := newTestController(fb, clock)
	require.NoError(t, c.Initialize(context.Background()))

	c.UpdateCriteria(func(cr *Criteria) {
		cr.Query = "report"
		cr.Extension = ".txt"
	})
	require.NoError(t, c.Search(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, ShowingResults, snap.State)
	assert.Len(t, snap.Results, 3)
	assert.Equal(t, "450 milliseconds", snap.DurationLabel)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "report", snap.History[0].Query)
	assert.Equal(t, clock.Now().UnixMilli(), snap.History[0].TimestampMillis)

	require.Len(t, fb.searches, 1)
	assert.Equal(t, backend.SearchRequest{SearchQuery: "report", Extension: ".txt"}, fb.searches[0])
}

func TestSearch_SlowSearchReportsSeconds(t *testing.T) {
	clock := newFakeClock()
	fb := &fakeBackend{onSearch: func() { clock.Advance(2345 * time.Millisecond) }}
	c := newTestController(fb, clock)

	require.NoError(t, c.Search(context.Background()))
	assert.Equal(t, "2.35 seconds", c.Snapshot().DurationLabel)
}

func TestSearch_ZeroResultsStillRecordsHistory(t *testing.T) {
	c := newTestController(&fakeBackend{}, newFakeClock())
	c.UpdateCriteria(func(cr *Criteria) { cr.Query = "nothing" })

	require.NoError(t, c.Search(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, ShowingResults, snap.State)
	assert.NotNil(t, snap.Results)
	assert.Empty(t, snap.Results)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "nothing", snap.History[0].Query)
}

func TestSearch_EmptyQueryIsAllowed(t *testing.T) {
	fb := &fakeBackend{}
	c := newTestController(fb, newFakeClock())

	require.NoError(t, c.Search(context.Background()))
	require.Len(t, fb.searches, 1)
	assert.Equal(t, "", fb.searches[0].SearchQuery)
	assert.Equal(t, "", c.Snapshot().History[0].Query)
}

func TestSearch_HistoryIsNewestFirst(t *testing.T) {
	clock := newFakeClock()
	fb := &fakeBackend{onSearch: func() { clock.Advance(time.Second) }}
	c := newTestController(fb, clock)

	for i, q := range []string{"alpha", "beta", "gamma"} {
		c.UpdateCriteria(func(cr *Criteria) { cr.Query = q })
		require.NoError(t, c.Search(context.Background()))
		c.GoBackToQuery()
		assert.Len(t, c.Snapshot().History, i+1)
	}

	hist := c.Snapshot().History
	assert.Equal(t, "gamma", hist[0].Query)
	assert.Equal(t, "beta", hist[1].Query)
	assert.Equal(t, "alpha", hist[2].Query)
	assert.Greater(t, hist[0].TimestampMillis, hist[2].TimestampMillis)
}

func TestSearch_FailureReturnsToIdle(t *testing.T) {
	fb := &fakeBackend{searchErr: errors.New("backend exploded")}
	c := newTestController(fb, newFakeClock())
	c.UpdateCriteria(func(cr *Criteria) { cr.Query = "x" })

	err := c.Search(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend exploded")

	snap := c.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Empty(t, snap.Results)
	assert.Empty(t, snap.History, "failed searches are not recorded")
	assert.Empty(t, snap.DurationLabel)
	require.Error(t, snap.LastError)

	// A later search clears the error and may succeed
	fb.mu.Lock()
	fb.searchErr = nil
	fb.mu.Unlock()

	require.NoError(t, c.Search(context.Background()))
	snap = c.Snapshot()
	assert.NoError(t, snap.LastError)
	assert.Equal(t, ShowingResults, snap.State)
}

func TestSearch_FailureClearsPreviousResults(t *testing.T) {
	fb := &fakeBackend{results: []backend.SearchResult{{Path: "/a", Name: "a"}}}
	c := newTestController(fb, newFakeClock())
	require.NoError(t, c.Search(context.Background()))
	c.GoBackToQuery()

	fb.mu.Lock()
	fb.searchErr = errors.New("boom")
	fb.mu.Unlock()

	require.Error(t, c.Search(context.Background()))
	snap := c.Snapshot()
	assert.Empty(t, snap.Results)
	assert.Len(t, snap.History, 1)
}

func TestSearch_NoOpWhileSearching(t *testing.T) {
	fb := &fakeBackend{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
		results: []backend.SearchResult{{Path: "/x/a.txt", Name: "a.txt"}},
	}
	c := newTestController(fb, newFakeClock())
	c.UpdateCriteria(func(cr *Criteria) { cr.Query = "a" })

	done := make(chan error, 1)
	go func() { done <- c.Search(context.Background()) }()
	<-fb.entered

	assert.Equal(t, Searching, c.Snapshot().State)

	var notified int
	unsubscribe := c.Subscribe(func(Snapshot) { notified++ })
	before := c.Snapshot().Version

	err := c.Search(context.Background())
	assert.ErrorIs(t, err, ErrSearchInProgress)

	_, ok := c.Begin()
	assert.False(t, ok)
	assert.Equal(t, 1, fb.searchCount(), "no second backend call")
	assert.Equal(t, before, c.Snapshot().Version, "dropped search is not observable")
	assert.Zero(t, notified)
	unsubscribe()

	close(fb.gate)
	require.NoError(t, <-done)

	snap := c.Snapshot()
	assert.Equal(t, ShowingResults, snap.State)
	assert.Len(t, snap.History, 1)
}

func TestUpdateCriteria_DuringSearchAppliesToNextSearch(t *testing.T) {
	fb := &fakeBackend{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	c := newTestController(fb, newFakeClock())
	c.UpdateCriteria(func(cr *Criteria) { cr.Query = "first" })

	done := make(chan error, 1)
	go func() { done <- c.Search(context.Background()) }()
	<-fb.entered

	c.UpdateCriteria(func(cr *Criteria) {
		cr.Query = "second"
		cr.IncludeFolders = true
	})
	close(fb.gate)
	require.NoError(t, <-done)

	snap := c.Snapshot()
	assert.Equal(t, "first", snap.History[0].Query, "in-flight search keeps its captured query")
	assert.Equal(t, "second", snap.Criteria.Query)
	assert.Equal(t, Criteria{Query: "first"}, snap.ResultsFor, "results keep the criteria they were found with")

	fb.mu.Lock()
	fb.gate = nil
	fb.mu.Unlock()

	c.GoBackToQuery()
	require.NoError(t, c.Search(context.Background()))
	require.Len(t, fb.searches, 2)
	assert.Equal(t, "second", fb.searches[1].SearchQuery)
	assert.True(t, fb.searches[1].SearchFolders)
}

func TestSearch_FromShowingResults(t *testing.T) {
	fb := &fakeBackend{}
	c := newTestController(fb, newFakeClock())

	require.NoError(t, c.Search(context.Background()))
	require.Equal(t, ShowingResults, c.Snapshot().State)

	require.NoError(t, c.Search(context.Background()))
	assert.Len(t, c.Snapshot().History, 2)
}

func TestBeginExecute(t *testing.T) {
	clock := newFakeClock()
	fb := &fakeBackend{onSearch: func() { clock.Advance(10 * time.Millisecond) }}
	c := newTestController(fb, clock)
	c.UpdateCriteria(func(cr *Criteria) {
		cr.Query = "q"
		cr.Disk = "/data"
	})

	req, ok := c.Begin()
	require.True(t, ok)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "q", req.Criteria.Query)
	assert.Equal(t, clock.Now(), req.Started)
	assert.Equal(t, Searching, c.Snapshot().State)

	require.NoError(t, c.Execute(context.Background(), req))
	assert.Equal(t, "10 milliseconds", c.Snapshot().DurationLabel)
	assert.Equal(t, "/data", fb.searches[0].Disk)
}

func TestExecute_StaleRequestIsIgnored(t *testing.T) {
	fb := &fakeBackend{results: []backend.SearchResult{{Path: "/a", Name: "a"}}}
	c := newTestController(fb, newFakeClock())

	require.NoError(t, c.Execute(context.Background(), Request{ID: "not-started"}))

	snap := c.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Empty(t, snap.Results)
	assert.Empty(t, snap.History)
}

func TestSelectHistoryEntry_ReplaysQueryOnly(t *testing.T) {
	fb := &fakeBackend{}
	c := newTestController(fb, newFakeClock())

	c.UpdateCriteria(func(cr *Criteria) { cr.Query = "old" })
	require.NoError(t, c.Search(context.Background()))
	c.GoBackToQuery()

	c.UpdateCriteria(func(cr *Criteria) {
		cr.Query = "something else"
		cr.Extension = ".pdf"
		cr.Disk = "/mnt"
		cr.IncludeFolders = true
	})

	entry := c.Snapshot().History[0]
	require.NoError(t, c.SelectHistoryEntry(context.Background(), entry))

	require.Len(t, fb.searches, 2)
	assert.Equal(t, backend.SearchRequest{
		SearchQuery:   "old",
		Extension:     ".pdf",
		Disk:          "/mnt",
		SearchFolders: true,
	}, fb.searches[1])

	snap := c.Snapshot()
	assert.Equal(t, "old", snap.Criteria.Query)
	assert.Len(t, snap.History, 2)
	assert.Equal(t, "old", snap.History[0].Query)
}

func TestSelectHistoryEntryAsync(t *testing.T) {
	fb := &fakeBackend{}
	c := newTestController(fb, newFakeClock())

	req, ok := c.SelectHistoryEntryAsync(HistoryEntry{Query: "notes"})
	require.True(t, ok)
	assert.Equal(t, "notes", req.Criteria.Query)

	// While searching the query is staged but nothing starts
	_, ok = c.SelectHistoryEntryAsync(HistoryEntry{Query: "later"})
	assert.False(t, ok)
	assert.Equal(t, "later", c.Snapshot().Criteria.Query)

	require.NoError(t, c.Execute(context.Background(), req))
	assert.Equal(t, "notes", fb.searches[0].SearchQuery)
}

func TestGoBackToQuery(t *testing.T) {
	fb := &fakeBackend{results: []backend.SearchResult{{Path: "/a", Name: "a"}}}
	c := newTestController(fb, newFakeClock())

	// No-op outside ShowingResults
	c.GoBackToQuery()
	assert.Equal(t, Idle, c.Snapshot().State)
	assert.Zero(t, c.Snapshot().Version)

	require.NoError(t, c.Search(context.Background()))
	c.GoBackToQuery()

	snap := c.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Len(t, snap.Results, 1, "results survive going back")
	assert.Len(t, snap.History, 1)
}

func TestOpenResult(t *testing.T) {
	fb := &fakeBackend{results: []backend.SearchResult{{Path: "/a/b.txt", Name: "b.txt"}}}
	c := newTestController(fb, newFakeClock())
	require.NoError(t, c.Search(context.Background()))
	before := c.Snapshot()

	require.NoError(t, c.OpenResult(context.Background(), "/a/b.txt"))
	assert.Equal(t, []string{"/a/b.txt"}, fb.revealed)

	fb.mu.Lock()
	fb.revealErr = errors.New("no file manager")
	fb.mu.Unlock()

	err := c.OpenResult(context.Background(), "/a/b.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no file manager")

	after := c.Snapshot()
	assert.Equal(t, before.Version, after.Version, "reveal does not touch session state")
	assert.Equal(t, ShowingResults, after.State)
}

func TestSubscribe(t *testing.T) {
	fb := &fakeBackend{}
	c := newTestController(fb, newFakeClock())

	var (
		mu    sync.Mutex
		snaps []Snapshot
	)
	unsubscribe := c.Subscribe(func(s Snapshot) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	})

	require.NoError(t, c.Search(context.Background()))

	mu.Lock()
	require.Len(t, snaps, 2)
	assert.Equal(t, Searching, snaps[0].State)
	assert.Equal(t, ShowingResults, snaps[1].State)
	assert.Less(t, snaps[0].Version, snaps[1].Version)
	mu.Unlock()

	unsubscribe()
	c.GoBackToQuery()

	mu.Lock()
	assert.Len(t, snaps, 2)
	mu.Unlock()
}

func TestSnapshotIsACopy(t *testing.T) {
	fb := &fakeBackend{results: []backend.SearchResult{{Path: "/a", Name: "a"}}}
	c := newTestController(fb, newFakeClock())
	require.NoError(t, c.Search(context.Background()))

	snap := c.Snapshot()
	snap.Results[0].Name = "mutated"
	snap.History[0].Query = "mutated"

	fresh := c.Snapshot()
	assert.Equal(t, "a", fresh.Results[0].Name)
	assert.NotEqual(t, "mutated", fresh.History[0].Query)
}

func TestControllerLogsTransitions(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	fb := &fakeBackend{searchErr: errors.New("nope")}
	c := New(fb, WithLogger(zap.New(core)), WithClock(newFakeClock().Now))

	require.Error(t, c.Search(context.Background()))

	assert.Equal(t, 1, logs.FilterMessage("search started").Len())
	failed := logs.FilterMessage("search failed").All()
	require.Len(t, failed, 1)
	assert.NotEmpty(t, failed[0].ContextMap()["request_id"])
}

func TestRequestWire(t *testing.T) {
	req := Request{Criteria: Criteria{Query: "q", Extension: ".go", Disk: "/src", IncludeFolders: true}}
	assert.Equal(t, backend.SearchRequest{
		SearchQuery:   "q",
		Extension:     ".go",
		Disk:          "/src",
		SearchFolders: true,
	}, req.Wire())
}
