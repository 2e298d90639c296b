package utils

import (
	"fmt"
	"strings"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// Date layouts used by the upstream sources.
const (
	// NAVDateLayout is the MFAPI history date format, e.g. "14-06-2023".
	NAVDateLayout = "02-01-2006"
	// PerformanceDateLayout is the Value Research nav-date parameter, e.g. "14-Jun-2023".
	PerformanceDateLayout = "02-Jan-2006"
)

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// ToIST converts a time.Time to IST.
func ToIST(t time.Time) time.Time {
	return t.In(IST)
}

// PerformanceReferenceDate returns the NAV date to request performance data for.
// Saturday, Sunday and Monday fall back to the preceding Friday; any other day
// is returned unchanged. Market holidays are not considered.
func PerformanceReferenceDate(t time.Time) time.Time {
	t = t.In(IST)
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, -2)
	case time.Monday:
		return t.AddDate(0, 0, -3)
	default:
		return t
	}
}

// FormatPerformanceDate formats t as "02-Jan-2006" in IST.
func FormatPerformanceDate(t time.Time) string {
	return t.In(IST).Format(PerformanceDateLayout)
}

// ParseNAVDate parses an MFAPI "dd-mm-yyyy" date in IST.
func ParseNAVDate(s string) (time.Time, error) {
	return time.ParseInLocation(NAVDateLayout, s, IST)
}

// FormatNAVDate formats t as "dd-mm-yyyy" in IST.
func FormatNAVDate(t time.Time) string {
	return t.In(IST).Format(NAVDateLayout)
}

// ParseDateIST parses a date string in "2006-01-02" format and returns it in IST.
func ParseDateIST(dateStr string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", dateStr, IST)
}

// ParseInputDate accepts a user-supplied date as "dd-mm-yyyy" or "yyyy-mm-dd".
func ParseInputDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := ParseNAVDate(s); err == nil {
		return d, nil
	}
	d, err := ParseDateIST(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is neither dd-mm-yyyy nor yyyy-mm-dd", s)
	}
	return d, nil
}

// FormatDateTimeIST formats a time.Time to "2006-01-02 15:04:05 IST".
func FormatDateTimeIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02 15:04:05 IST")
}
