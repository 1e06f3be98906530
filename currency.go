package moneta

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
)

// currencyAliases maps lowercase text tokens (symbols, ISO codes, Latin and
// Cyrillic spellings) to ISO-like currency codes. The table is static on
// purpose: heuristic lookups must not be runtime-mutable state.
var currencyAliases = map[string]string{
	// symbols
	"$": "USD", "€": "EUR", "£": "GBP", "¥": "JPY",
	"₽": "RUB", "₴": "UAH", "₸": "KZT", "₿": "BTC",
	// usd
	"usd": "USD", "dollar": "USD", "dollars": "USD",
	"доллар": "USD", "доллара": "USD", "долларов": "USD",
	"бакс": "USD", "бакса": "USD", "баксов": "USD",
	// eur
	"eur": "EUR", "euro": "EUR", "евро": "EUR",
	// rub
	"rub": "RUB", "руб": "RUB", "рубль": "RUB", "рубля": "RUB", "рублей": "RUB",
	// uah
	"uah": "UAH", "грн": "UAH", "гривна": "UAH", "гривны": "UAH", "гривен": "UAH",
	// kzt
	"kzt": "KZT", "тенге": "KZT",
	// gbp
	"gbp": "GBP", "фунт": "GBP", "фунта": "GBP", "фунтов": "GBP",
	// crypto spellings
	"usdt": "USDT", "юсдт": "USDT", "тезер": "USDT",
	"btc": "BTC", "биткоин": "BTC", "биткоина": "BTC", "биткоинов": "BTC",
	"eth": "ETH", "эфир": "ETH", "эфира": "ETH",
	"ton": "TON", "тон": "TON", "тона": "TON",
}

// cryptoCurrencies lists codes that are valid here but unknown to the ISO
// registry shipped with go-money.
var cryptoCurrencies = map[string]bool{
	"USDT": true, "BTC": true, "ETH": true, "TON": true, "SOL": true,
	"BNB": true, "XRP": true, "DOGE": true, "LAB": true, "NOT": true,
}

// KnownCurrency reports whether code is a recognized fiat or crypto code.
func KnownCurrency(code string) bool {
	code = strings.ToUpper(code)
	if cryptoCurrencies[code] {
		return true
	}
	return money.GetCurrency(code) != nil
}

// NormalizeCurrency maps one text token to a currency code, or "" when the
// token does not denote a currency.
func NormalizeCurrency(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if code, ok := currencyAliases[strings.ToLower(token)]; ok {
		return code
	}
	// Bare ISO-like codes ("USD", "Chf") pass through when the registry
	// knows them, so the alias table does not need every fiat currency.
	if len(token) >= 3 && len(token) <= 5 && isAlphabetic(token) {
		code := strings.ToUpper(token)
		if KnownCurrency(code) {
			return code
		}
	}
	return ""
}

// CurrencyUnsupportedError is returned when a resolved currency code is not
// in the caller's supported set. It is a user-facing rejection, not a bug.
type CurrencyUnsupportedError struct {
	Code string
}

func (e *CurrencyUnsupportedError) Error() string {
	return fmt.Sprintf("currency %q is not supported", e.Code)
}

// SameCurrency compares two currency codes ignoring case.
func SameCurrency(a, b string) bool {
	return strings.EqualFold(a, b)
}

// EnsureSupported validates code against a supported set. An empty set
// accepts every known currency.
func EnsureSupported(code string, supported []string) error {
	if len(supported) == 0 {
		if !KnownCurrency(code) {
			return &CurrencyUnsupportedError{Code: strings.ToUpper(code)}
		}
		return nil
	}
	for _, s := range supported {
		if strings.EqualFold(s, code) {
			return nil
		}
	}
	return &CurrencyUnsupportedError{Code: strings.ToUpper(code)}
}

// CurrencyTokens scans free text for currency mentions: contiguous alphabetic
// runs and currency-symbol runs, each mapped through the alias table. When a
// supported set is given, tokens resolving outside it are dropped.
// The result preserves text order and may contain duplicates.
func CurrencyTokens(text string, supported []string) []string {
	var codes []string
	for _, token := range scanTokens(text) {
		code := NormalizeCurrency(token)
		if code == "" {
			continue
		}
		if len(supported) > 0 && EnsureSupported(code, supported) != nil {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}

// MentionsCurrency reports whether the text explicitly names the given
// currency, via any alias, symbol or code form.
func MentionsCurrency(text, code string, supported []string) bool {
	for _, c := range CurrencyTokens(text, supported) {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

func isCurrencySymbol(r rune) bool {
	return unicode.Is(unicode.Sc, r)
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// scanTokens splits text into alphabetic runs and currency-symbol runs.
// Digits and punctuation are separators, so "20usd" yields "usd" and "5$"
// yields "$".
func scanTokens(text string) []string {
	var tokens []string
	var run []rune
	var symbolRun bool
	flush := func() {
		if len(run) > 0 {
			tokens = append(tokens, string(run))
			run = run[:0]
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			if symbolRun {
				flush()
			}
			symbolRun = false
			run = append(run, r)
		case isCurrencySymbol(r):
			if !symbolRun {
				flush()
			}
			symbolRun = true
			run = append(run, r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}
