// Package utils holds small formatting and parsing helpers shared by the
// bot replies and the admin listings.
package utils

import (
	"fmt"
	"strconv"
)

// FormatBytes formats a byte count into a human-readable string.
//
// Example:
//
//	utils.FormatBytes(512)        // "512 B"
//	utils.FormatBytes(2048)       // "2.0 KB"
//	utils.FormatBytes(5 << 20)    // "5.0 MB"
func FormatBytes(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	if bytes < 1024*1024*1024 {
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
	return fmt.Sprintf("%.2f GB", float64(bytes)/(1024*1024*1024))
}

// ParseInt64Default converts a string to an int64, returning the provided
// default when the string is empty or malformed.
func ParseInt64Default(s string, def int64) int64 {
	if s == "" {
		return def
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return def
}
