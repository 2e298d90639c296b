package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeSchemeCode turns a scheme code given as string or number into the
// string form used by AMFI. nil yields "".
func NormalizeSchemeCode(code any) string {
	switch v := code.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// ParseYear turns a year given as string or number into an int.
func ParseYear(year any) (int, error) {
	switch v := year.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		y, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("invalid year %q: %w", v, err)
		}
		return y, nil
	default:
		return 0, fmt.Errorf("invalid year %v", year)
	}
}
