package mftool

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumber is returned when units or a NAV cannot be read as a number.
var ErrInvalidNumber = errors.New("invalid number")

// MarketValue multiplies units by nav in float64 and formats the product
// with two decimals. Inputs are validated as decimals first.
func MarketValue(units any, nav string) (string, error) {
	u, err := toDecimal(units)
	if err != nil {
		return "", fmt.Errorf("balance units: %w", err)
	}
	n, err := toDecimal(nav)
	if err != nil {
		return "", fmt.Errorf("nav: %w", err)
	}
	return strconv.FormatFloat(u.InexactFloat64()*n.InexactFloat64(), 'f', 2, 64), nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, x)
		}
		return d, nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidNumber, x)
		}
		return decimal.NewFromFloat(x), nil
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidNumber, x)
		}
		return decimal.NewFromFloat32(x), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidNumber, v)
	}
}
