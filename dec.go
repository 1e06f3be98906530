package moneta

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// amountEpsilon is the absolute tolerance below which two balance amounts are
// considered equal. Diffs smaller than this are noise from decimal division.
var amountEpsilon = decimal.New(1, -12) // 1e-12

// priceRelTolerance is the relative tolerance for the trade identity
// quoteAmount ≈ baseAmount × executionPrice.
var priceRelTolerance = decimal.New(1, -8) // 1e-8

// priceScale is the number of fractional digits kept when an execution price
// is derived from the two trade legs.
const priceScale = 12

// D builds a decimal from a float, mapping NaN and ±Inf to zero.
// Upstream numeric garbage must degrade to zero, never panic.
func D(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// CoerceDecimal converts any loosely-typed upstream value into a finite
// decimal. Strings are parsed permissively (commas accepted as decimal
// separators, currency junk trimmed); anything unparseable becomes zero.
func CoerceDecimal(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case float64:
		return D(x)
	case float32:
		return D(float64(x))
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case json.Number:
		return coerceString(x.String())
	case string:
		return coerceString(x)
	case bool:
		// true/false as amounts are upstream noise.
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

func coerceString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, ",", ".")
	// A well-formed number (including exponent notation like "1e5") parses
	// as-is; character stripping would mangle it.
	if d, err := decimal.NewFromString(s); err == nil {
		if f, _ := strconv.ParseFloat(s, 64); math.IsInf(f, 0) {
			return decimal.Zero
		}
		return d
	}
	// Strip everything but digits, sign and the first dot. "≈ 12.5 usd" → "12.5".
	var b strings.Builder
	dot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		case r == '.' && !dot:
			dot = true
			b.WriteRune(r)
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	if f, _ := strconv.ParseFloat(b.String(), 64); math.IsInf(f, 0) {
		return decimal.Zero
	}
	return d
}

// withinEpsilon reports whether a and b differ by less than amountEpsilon.
func withinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(amountEpsilon)
}

// relClose reports whether a and b are equal within the 1e-8 relative
// tolerance used for the trade price identity.
func relClose(a, b decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	if diff.IsZero() {
		return true
	}
	ref := a.Abs()
	if b.Abs().GreaterThan(ref) {
		ref = b.Abs()
	}
	if ref.IsZero() {
		return false
	}
	return diff.Div(ref).LessThanOrEqual(priceRelTolerance)
}
