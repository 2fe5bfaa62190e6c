package screens

import "filefinder/internal/session"

// Screen represents the views of the application
type Screen int

// Screen constants define all possible screens in the application
const (
	ScreenQuery Screen = iota
	ScreenResults
)

// String returns the string representation of a screen
func (s Screen) String() string {
	switch s {
	case ScreenQuery:
		return "Query"
	case ScreenResults:
		return "Results"
	default:
		return "Unknown"
	}
}

// ForState maps a session state to the screen that presents it. Searching
// keeps the query form visible with a spinner.
func ForState(st session.State) Screen {
	if st == session.ShowingResults {
		return ScreenResults
	}
	return ScreenQuery
}

// Field is a focusable element of the query form
type Field int

// Form fields in tab order
const (
	FieldQuery Field = iota
	FieldExtension
	FieldFolders
	FieldDisk
	FieldSearch
	FieldHistory

	fieldCount
)

// String returns the string representation of a field
func (f Field) String() string {
	switch f {
	case FieldQuery:
		return "Query"
	case FieldExtension:
		return "Extension"
	case FieldFolders:
		return "Folders"
	case FieldDisk:
		return "Disk"
	case FieldSearch:
		return "Search"
	case FieldHistory:
		return "History"
	default:
		return "Unknown"
	}
}

// IsText reports whether the field takes typed input
func (f Field) IsText() bool {
	return f == FieldQuery || f == FieldExtension
}

// Next returns the following field, wrapping around. The history field is
// skipped when there is nothing to select.
func (f Field) Next(hasHistory bool) Field {
	n := (f + 1) % fieldCount
	if n == FieldHistory && !hasHistory {
		n = (n + 1) % fieldCount
	}
	return n
}

// Prev returns the preceding field, wrapping around.
func (f Field) Prev(hasHistory bool) Field {
	p := (f + fieldCount - 1) % fieldCount
	if p == FieldHistory && !hasHistory {
		p = (p + fieldCount - 1) % fieldCount
	}
	return p
}
