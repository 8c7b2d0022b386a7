package common

import (
	"fmt"
)

// FormatBytes renders a byte count with a binary unit, e.g. "1.50MB".
func FormatBytes(size int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	unitIndex := 0
	value := float64(size)

	for value >= 1024 && unitIndex < len(units)-1 {
		value /= 1024
		unitIndex++
	}
	return fmt.Sprintf("%.2f%s", value, units[unitIndex])
}
