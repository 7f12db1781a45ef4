// Package timecode converts between human-readable transcript timestamps
// and second offsets.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimestamp converts "SS", "MM:SS" or "HH:MM:SS" to seconds.
// Unparseable input returns 0; callers treat 0 as unknown when filtering
// ranges, so bad timestamps degrade instead of failing.
func ParseTimestamp(s string) int {
	fields := strings.Split(strings.TrimSpace(s), ":")
	if len(fields) < 1 || len(fields) > 3 {
		return 0
	}
	total := 0
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// FormatTimestamp renders seconds as "MM:SS" below one hour and "HH:MM:SS"
// from one hour up, every field zero-padded to two digits. Negative input
// is clamped to zero.
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
