package state

import (
	"time"

	"filefinder/internal/session"
)

// SessionChangedMsg carries a settled controller snapshot to the view.
type SessionChangedMsg struct {
	Snapshot session.Snapshot
}

// SearchDoneMsg reports the end of a search started from the view.
type SearchDoneMsg struct {
	Err error
}

// DisksLoadedMsg reports the end of an initial load or a manual refresh.
type DisksLoadedMsg struct {
	Err     error
	Refresh bool
}

// RevealDoneMsg reports the outcome of a show-in-file-manager request.
type RevealDoneMsg struct {
	Path string
	Err  error
}

// FlashExpiredMsg clears the flash message if it is still the one shown.
type FlashExpiredMsg struct {
	Seq  int
	Time time.Time
}
