// Package backend defines the three-command boundary between the search UI
// and the native file-search service, plus the transports that carry it.
//
// Field casing follows the service exactly: disk fields are snake_case and
// search request fields are camelCase.
package backend

import "filefinder/internal/disks"

// Command names as exposed by the native host.
const (
	CmdGetDisks       = "get_disks"
	CmdSearchForFile  = "search_for_file"
	CmdShowInExplorer = "show_in_explorer"
)

// SearchRequest is the search_for_file payload.
// Empty Extension or Disk means unfiltered.
type SearchRequest struct {
	SearchQuery   string `json:"searchQuery"`
	Extension     string `json:"extension"`
	Disk          string `json:"disk"`
	SearchFolders bool   `json:"searchFolders"`
}

// SearchResult is one entry of the search_for_file response.
type SearchResult struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size uint64 `json:"size"`
	Disk string `json:"disk,omitempty"` // Walk root that produced the hit, when the host reports it
}

// RevealRequest is the show_in_explorer payload.
type RevealRequest struct {
	Path string `json:"path"`
}

// DiskList is the get_disks response.
type DiskList []disks.Summary
