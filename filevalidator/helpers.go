package filevalidator

import (
	"fmt"
	"math"
	"strings"
)

// FormatSizeReadable converts a size in bytes to a human-readable string
func FormatSizeReadable(size int64) string {
	switch {
	case size < KB:
		return fmt.Sprintf("%d B", size)
	case size < MB:
		return formatUnit(size, KB, "KB")
	case size < GB:
		return formatUnit(size, MB, "MB")
	default:
		return formatUnit(size, GB, "GB")
	}
}

// formatUnit rounds to one decimal place and drops a trailing ".0".
func formatUnit(size, unit int64, suffix string) string {
	rounded := math.Round(float64(size)/float64(unit)*10) / 10
	if rounded == math.Trunc(rounded) {
		return fmt.Sprintf("%.0f %s", rounded, suffix)
	}
	return fmt.Sprintf("%.1f %s", rounded, suffix)
}

// ParseList splits a comma-separated configuration value, trimming blanks.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
