// Package utils provides common utility functions for mfindia.
package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR formats an amount in Indian Rupee format (₹12,34,567.89).
// Uses the Indian numbering system: last 3 digits, then groups of 2.
func FormatINR(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	s := amount.Abs().StringFixed(2)

	intPart, decPart, _ := strings.Cut(s, ".")
	formatted := formatIndianNumber(intPart) + "." + decPart

	if negative {
		return "-₹" + formatted
	}
	return "₹" + formatted
}

// FormatPct formats a displayed percentage with sign and suffix.
// e.g., "2.45" → "+2.45%", "-1.23" → "-1.23%". Non-numeric input is returned as is.
func FormatPct(pct string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(pct))
	if err != nil {
		return pct
	}
	if d.IsNegative() {
		return d.StringFixed(2) + "%"
	}
	return "+" + d.StringFixed(2) + "%"
}

// formatIndianNumber groups a string of digits the Indian way (last 3, then 2s).
func formatIndianNumber(s string) string {
	if len(s) <= 3 {
		return s
	}

	length := len(s)

	// Take the last 3 digits
	result := s[length-3:]
	remaining := s[:length-3]

	// Group remaining digits in pairs from right
	for len(remaining) > 0 {
		if len(remaining) > 2 {
			result = remaining[len(remaining)-2:] + "," + result
			remaining = remaining[:len(remaining)-2]
		} else {
			result = remaining + "," + result
			remaining = ""
		}
	}

	return result
}
