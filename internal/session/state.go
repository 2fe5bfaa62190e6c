// Package session implements the search session controller: the single owner
// of query criteria, search state, results and history for one screen.
package session

import (
	"fmt"
	"time"

	"filefinder/internal/backend"
	"filefinder/internal/disks"
)

// State is the phase of the search session.
type State int

// Session states
const (
	Idle           State = iota // Query form shown, nothing in flight
	Searching                   // A search request is in flight
	ShowingResults              // Results of the last completed search are shown
)

// String returns the string representation of a state
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Searching:
		return "Searching"
	case ShowingResults:
		return "ShowingResults"
	default:
		return "Unknown"
	}
}

// Criteria is the staged search input. Empty Extension and Disk mean
// unfiltered.
type Criteria struct {
	Query          string
	Extension      string
	Disk           string
	IncludeFolders bool
}

// HistoryEntry records one completed search.
type HistoryEntry struct {
	Query           string
	TimestampMillis int64
}

// Time returns the entry timestamp as a time.Time.
func (h HistoryEntry) Time() time.Time {
	return time.UnixMilli(h.TimestampMillis)
}

// Request is a search captured at Begin time. Later criteria edits do not
// affect it.
type Request struct {
	ID       string
	Criteria Criteria
	Started  time.Time
}

// Wire converts the captured criteria to the search_for_file payload.
func (r Request) Wire() backend.SearchRequest {
	return backend.SearchRequest{
		SearchQuery:   r.Criteria.Query,
		Extension:     r.Criteria.Extension,
		Disk:          r.Criteria.Disk,
		SearchFolders: r.Criteria.IncludeFolders,
	}
}

// Snapshot is a settled, immutable copy of the controller state.
type Snapshot struct {
	Version       uint64
	State         State
	Criteria      Criteria
	Disks         []disks.Summary
	DiskIDs       []string
	DiskError     error
	Results       []backend.SearchResult
	ResultsFor    Criteria // criteria the shown results were found with
	History       []HistoryEntry
	DurationLabel string
	LastError     error
}

// FormatDuration renders an elapsed search time: whole milliseconds below
// one second, otherwise seconds with two decimals.
//
// Examples:
//
//	FormatDuration(450*time.Millisecond)  -> "450 milliseconds"
//	FormatDuration(1500*time.Millisecond) -> "1.50 seconds"
func FormatDuration(d time.Duration) string {
	if ms := d.Milliseconds(); ms < 1000 {
		if ms < 0 {
			ms = 0
		}
		return fmt.Sprintf("%d milliseconds", ms)
	}
	return fmt.Sprintf("%.2f seconds", d.Seconds())
}
