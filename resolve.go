package moneta

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySource tells how a currency resolution was obtained.
type CurrencySource string

const (
	// SourceExplicit means the user actually typed the currency.
	SourceExplicit CurrencySource = "explicit"
	// SourceInferred means the currency was deduced from the hint or from
	// account balances.
	SourceInferred CurrencySource = "inferred"
)

// CurrencyResolution is the outcome of ResolveCurrency.
type CurrencyResolution struct {
	Currency            string
	Source              CurrencySource
	ExplicitlyMentioned bool
}

// ResolveCurrency decides the authoritative currency for a transaction.
//
// The priority order is fixed: an explicit mention in the raw text is the
// strongest signal; an upstream hint consistent with the user's real
// holdings comes next; balance-based inference is the last-resort heuristic
// and must never override something the user actually typed.
//
//  1. The hint, when it also appears as an explicit token in the text.
//  2. The hint, when it matches one of the account's asset currencies.
//  3. Balance inference: income takes the first asset currency (or the
//     fallback when the account holds nothing); expense and transfer with a
//     positive amount prefer the first asset whose balance covers the
//     amount, then the first asset. Asset storage order is the documented,
//     deterministic tie-break.
//  4. The hint as-is when present, else an empty resolution.
func ResolveCurrency(text, hint string, direction Direction, amount decimal.Decimal, assets []AccountAsset, fallback string, supported []string) CurrencyResolution {
	hint = strings.ToUpper(strings.TrimSpace(hint))

	if hint != "" && MentionsCurrency(text, hint, supported) {
		return CurrencyResolution{Currency: hint, Source: SourceExplicit, ExplicitlyMentioned: true}
	}

	if hint != "" {
		for _, as := range assets {
			if strings.EqualFold(as.Currency, hint) {
				return CurrencyResolution{Currency: strings.ToUpper(as.Currency), Source: SourceInferred}
			}
		}
	}

	if cur := inferFromBalances(direction, amount, assets, fallback); cur != "" {
		return CurrencyResolution{Currency: strings.ToUpper(cur), Source: SourceInferred}
	}

	if hint != "" {
		return CurrencyResolution{Currency: hint, Source: SourceInferred}
	}
	return CurrencyResolution{}
}

func inferFromBalances(direction Direction, amount decimal.Decimal, assets []AccountAsset, fallback string) string {
	if direction == Income {
		if len(assets) > 0 {
			return assets[0].Currency
		}
		return fallback
	}
	if len(assets) == 0 {
		return ""
	}
	if amount.IsPositive() {
		for _, as := range assets {
			if as.Amount.GreaterThanOrEqual(amount) {
				return as.Currency
			}
		}
	}
	return assets[0].Currency
}
