// Package disks provides disk summaries, usage math and byte formatting.
// This module handles disk discovery through gopsutil.
package disks

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// Detect enumerates mounted physical filesystems and their capacity.
// Partitions whose usage cannot be read, or that report no capacity, are
// skipped rather than failing the whole listing.
func Detect(ctx context.Context) ([]Summary, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	// Pre-allocate; most machines have a handful of mounts
	list := make([]Summary, 0, len(partitions))
	seen := make(map[string]bool, len(partitions))

	for _, p := range partitions {
		if seen[p.Mountpoint] {
			continue
		}

		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue
		}
		seen[p.Mountpoint] = true

		free := usage.Free
		if free > usage.Total {
			free = usage.Total
		}

		list = append(list, Summary{
			Name:           p.Device,
			MountPoint:     p.Mountpoint,
			AvailableSpace: free,
			TotalSpace:     usage.Total,
		})
	}

	return list, nil
}
