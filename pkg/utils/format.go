// Package utils provides common formatting helpers for ProStock.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatPrice formats a price with thousands separators and two decimals,
// e.g. 1234567.891 -> "1,234,567.89".
func FormatPrice(v float64) string {
	negative := v < 0
	v = math.Abs(v)

	cents := int64(math.Round(v * 100))
	formatted := fmt.Sprintf("%s.%02d", groupThousands(cents/100), cents%100)
	if negative {
		return "-" + formatted
	}
	return formatted
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 -> "+2.45%", -1.23 -> "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatCompact formats a large value in compact notation,
// e.g. 1927345000 -> "1.93B".
func FormatCompact(v float64) string {
	negative := v < 0
	v = math.Abs(v)

	prefix := ""
	if negative {
		prefix = "-"
	}

	switch {
	case v >= 1e12:
		return fmt.Sprintf("%s%sT", prefix, trimZeros(v/1e12))
	case v >= 1e9:
		return fmt.Sprintf("%s%sB", prefix, trimZeros(v/1e9))
	case v >= 1e6:
		return fmt.Sprintf("%s%sM", prefix, trimZeros(v/1e6))
	case v >= 1e3:
		return fmt.Sprintf("%s%sK", prefix, trimZeros(v/1e3))
	default:
		return fmt.Sprintf("%s%.2f", prefix, v)
	}
}

// FormatVolume formats share volume in compact notation.
func FormatVolume(volume int64) string {
	return FormatCompact(float64(volume))
}

// groupThousands formats an integer with comma grouping.
func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var groups []string
	for len(s) > 3 {
		groups = append([]string{s[len(s)-3:]}, groups...)
		s = s[:len(s)-3]
	}
	groups = append([]string{s}, groups...)
	return strings.Join(groups, ",")
}

// trimZeros formats with up to 2 decimal places, removing trailing zeros.
func trimZeros(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
