// Package disks provides disk summaries, usage math and byte formatting.
// This module handles byte-unit formatting and usage percentages.
package disks

import (
	"fmt"
	"math"
)

// units is the fixed unit table, one step per factor of 1024.
// The first two labels are kept exactly as the desktop client shows them.
var units = []string{"b", "B", "MB", "GB", "TB"}

// FormatBytes renders a byte count with two decimals and a unit label.
//
// Examples:
//
//	FormatBytes(0)    -> "0.00 b"
//	FormatBytes(1024) -> "1.00 B"
//	FormatBytes(1536) -> "1.50 B"
//
// Ties round up (1152 -> "1.13 B"), matching the desktop client.
// Values past the last unit stay in TB rather than overflowing the table.
func FormatBytes(n uint64) string {
	value := float64(n)
	unit := 0

	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}

	value = math.Floor(value*100+0.5) / 100
	return fmt.Sprintf("%.2f %s", value, units[unit])
}

// UsagePercentage returns (total-available)/total*100.
// A zero total yields 0, and so does available > total, which would
// otherwise wrap around in unsigned arithmetic.
func UsagePercentage(total, available uint64) float64 {
	if total == 0 || available > total {
		return 0
	}
	return float64(total-available) / float64(total) * 100
}
