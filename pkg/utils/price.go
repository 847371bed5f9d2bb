package utils

import (
	"math"
	"strconv"
	"strings"
)

// FormatPrice renders a price with thousands separators the way the list
// displays it: 10000 -> "10.000". Prices are stored as given but shown
// rounded to the nearest integer.
func FormatPrice(price float64) string {
	n := int64(math.Round(price))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	b.WriteString(sign)
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return b.String()
}

// ParsePrice converts a formatted price string back to a number:
// "10.000" -> 10000. Unparseable input yields 0.
func ParsePrice(value string) float64 {
	clean := strings.ReplaceAll(strings.TrimSpace(value), ".", "")
	if clean == "" {
		return 0
	}
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0
	}
	return float64(n)
}
