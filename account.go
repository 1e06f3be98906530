package moneta

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OutsideAccountID is the reserved account representing money entering or
// leaving the system. It is only reachable as an implicit transfer endpoint,
// never through free-text matching, and it carries no cached balances.
const OutsideAccountID = "outside"

// AccountAsset is one cached (currency, amount) balance on an account.
type AccountAsset struct {
	Currency string
	Amount   decimal.Decimal
}

// Account owns zero or more cached asset balances. The order of Assets is
// the storage order; balance-based currency inference relies on it being
// deterministic.
type Account struct {
	ID     string
	Name   string
	Assets []AccountAsset
}

// IsOutside reports whether this is the reserved external account.
func (a Account) IsOutside() bool { return a.ID == OutsideAccountID }

// Asset returns the cached balance for a currency, matching case-insensitively.
func (a Account) Asset(currency string) (AccountAsset, bool) {
	for _, as := range a.Assets {
		if strings.EqualFold(as.Currency, currency) {
			return as, true
		}
	}
	return AccountAsset{}, false
}

// AccountByID finds an account in a slice by id.
func AccountByID(accounts []Account, id string) (Account, bool) {
	for _, a := range accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}
