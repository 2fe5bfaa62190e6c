// Package disks provides disk summaries, usage math and byte formatting.
// This module contains helpers for turning summaries into selectable IDs.
package disks

import "strings"

// rootMarker is the OS-root prefix some platforms put on mount points.
const rootMarker = "//"

// DisplayID strips the first root marker from a mount point so it can be
// shown in the disk selector and sent back as the search disk filter.
func DisplayID(mountPoint string) string {
	return strings.Replace(mountPoint, rootMarker, "", 1)
}

// DisplayIDs derives the selectable disk identifiers, in backend order.
func DisplayIDs(list []Summary) []string {
	ids := make([]string, 0, len(list))
	for _, d := range list {
		ids = append(ids, DisplayID(d.MountPoint))
	}
	return ids
}
