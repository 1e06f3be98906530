package moneta

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// dec parses a decimal literal, failing the build on a typo at test time.
func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("bad decimal literal " + s)
	}
	return d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assets(pairs ...string) []AccountAsset {
	if len(pairs)%2 != 0 {
		panic("assets wants currency/amount pairs")
	}
	var out []AccountAsset
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, AccountAsset{Currency: pairs[i], Amount: dec(pairs[i+1])})
	}
	return out
}

func checkDecimal(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
