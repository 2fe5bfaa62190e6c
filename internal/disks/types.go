// Package disks provides disk summaries, usage math and byte formatting.
// This module defines the core types used throughout the disks package.
package disks

// Summary is one disk as reported by the backend's get_disks command.
// It is an immutable snapshot: AvailableSpace never exceeds TotalSpace.
type Summary struct {
	Name           string `json:"name"`            // Device or volume name (e.g., "/dev/nvme0n1p2")
	MountPoint     string `json:"mount_point"`     // Mount point as the backend reports it
	AvailableSpace uint64 `json:"available_space"` // Bytes available to the user
	TotalSpace     uint64 `json:"total_space"`     // Filesystem capacity in bytes
}

// Label is the presenter heading: mount point followed by name.
func (s Summary) Label() string {
	return s.MountPoint + " " + s.Name
}

// Caption describes free space against capacity.
// Example: "1.50 GB available of 931.51 GB"
func (s Summary) Caption() string {
	return FormatBytes(s.AvailableSpace) + " available of " + FormatBytes(s.TotalSpace)
}

// Usage returns the used share of the disk as a percentage in [0, 100].
func (s Summary) Usage() float64 {
	return UsagePercentage(s.TotalSpace, s.AvailableSpace)
}
