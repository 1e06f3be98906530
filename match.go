package moneta

import (
	"strings"
	"unicode"
)

// accountAliases maps colloquial lowercase short names to the canonical
// account name users typically register. Static table, same rule as
// currencyAliases.
var accountAliases = map[string]string{
	"сбер":     "сбербанк",
	"тинь":     "тинькофф",
	"тиньков":  "тинькофф",
	"тинёк":    "тинькофф",
	"альфа":    "альфа-банк",
	"нал":      "наличные",
	"наличка":  "наличные",
	"кэш":      "наличные",
	"cash":     "наличные",
	"бинанс":   "binance",
	"байбит":   "bybit",
}

// accountKeywords are the words that mark a neighbouring token as an account
// mention rather than incidental overlap.
var accountKeywords = []string{
	"счет", "счёт", "счета", "карта", "карты", "карту", "карточка",
	"кошелек", "кошелёк", "кошелька",
	"account", "wallet", "card",
}

// accountPrepositions are the function words an account name follows in
// phrases like "с карты сбер" or "to binance".
var accountPrepositions = []string{
	"с", "со", "на", "из", "в", "от", "до", "по", "за",
	"from", "to", "on", "in", "at", "via",
}

// MatchAccount fuzzily maps a free-text account mention to one of the user's
// accounts. It returns nil when nothing matches. The reserved outside
// account is excluded: it is only reachable as an implicit transfer
// endpoint, never by name.
//
// Matching passes, in order: alias-normalized exact match
// (case-insensitive), substring match in either direction, and Levenshtein
// distance ≤ 2 on whitespace-compacted names with the minimum-distance
// candidate winning (first in account order on an exact tie).
func MatchAccount(name string, accounts []Account) *Account {
	needle := compactName(resolveAlias(name))
	if needle == "" {
		return nil
	}

	// exact
	for i, a := range accounts {
		if a.IsOutside() {
			continue
		}
		if compactName(resolveAlias(a.Name)) == needle {
			return &accounts[i]
		}
	}

	// substring, either direction
	for i, a := range accounts {
		if a.IsOutside() {
			continue
		}
		hay := compactName(resolveAlias(a.Name))
		if hay == "" {
			continue
		}
		if strings.Contains(hay, needle) || strings.Contains(needle, hay) {
			return &accounts[i]
		}
	}

	// edit distance
	best := -1
	bestDist := 3 // distances above 2 never match
	for i, a := range accounts {
		if a.IsOutside() {
			continue
		}
		hay := compactName(resolveAlias(a.Name))
		if hay == "" {
			continue
		}
		d := levenshtein(needle, hay)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best >= 0 {
		return &accounts[best]
	}
	return nil
}

// MentionsAccount reports whether the text contains an explicit mention of
// the account: its name (or a recognized alias of it) adjacent to a
// preposition or an account/wallet keyword. This guards against trusting a
// fuzzy match produced by incidental word overlap.
func MentionsAccount(text string, account Account) bool {
	if account.IsOutside() {
		return false
	}
	target := compactName(resolveAlias(account.Name))
	if target == "" {
		return false
	}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	for i, w := range words {
		cand := compactName(resolveAlias(w))
		if cand != target {
			// Substring and fuzzy forms only count for words long enough
			// to carry signal.
			if len([]rune(cand)) < 3 {
				continue
			}
			if !strings.Contains(target, cand) && levenshtein(cand, target) > 2 {
				continue
			}
		}
		if i > 0 && isAccountMarker(words[i-1]) {
			return true
		}
		if i+1 < len(words) && isAccountMarker(words[i+1]) {
			return true
		}
	}
	return false
}

func isAccountMarker(word string) bool {
	for _, k := range accountKeywords {
		if word == k {
			return true
		}
	}
	for _, p := range accountPrepositions {
		if word == p {
			return true
		}
	}
	return false
}

func resolveAlias(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := accountAliases[key]; ok {
		return canonical
	}
	return key
}

// compactName lowercases and removes whitespace and hyphens, so
// "Альфа Банк" and "альфа-банк" compare on their letters.
func compactName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// levenshtein computes the edit distance between two strings by runes.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
