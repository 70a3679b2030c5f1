package util

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count for log lines, scaled to the largest unit
// that keeps the number small.
func FormatSize(n int) string {
	size := float64(n)
	unit := 0
	for size >= 1000 && unit < len(sizeUnits)-1 {
		size /= 1000
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f %s", size, sizeUnits[unit])
}
