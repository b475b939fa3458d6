package schema

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders v with the fewest digits that round-trip, so 12 prints as
// "12" and 9.8 as "9.8". Reason strings rely on this to quote the caller's numbers.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatFixed renders v rounded to the given number of decimals.
func FormatFixed(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// RoundTo rounds v to the given number of decimals.
func RoundTo(v float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Round(v*p) / p
}

// NormalizeKey lowercases and trims a user supplied key.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
