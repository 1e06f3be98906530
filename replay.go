package moneta

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// LedgerKey identifies one balance slot: an account holding one currency.
type LedgerKey struct {
	AccountID string
	Currency  string
}

// Key builds a LedgerKey with the currency in canonical upper case.
func Key(accountID, currency string) LedgerKey {
	return LedgerKey{AccountID: accountID, Currency: strings.ToUpper(currency)}
}

// Ledger is the computed balance per ledger key.
type Ledger map[LedgerKey]decimal.Decimal

// add accumulates a signed effect; unseen keys start at zero.
func (l Ledger) add(k LedgerKey, amount decimal.Decimal) {
	if k.AccountID == "" || k.Currency == "" {
		return
	}
	l[k] = l[k].Add(amount)
}

// Get returns the balance for a key, zero when unseen.
func (l Ledger) Get(accountID, currency string) decimal.Decimal {
	return l[Key(accountID, currency)]
}

// Keys returns the ledger keys sorted by account then currency.
func (l Ledger) Keys() []LedgerKey {
	keys := make([]LedgerKey, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].AccountID != keys[j].AccountID {
			return keys[i].AccountID < keys[j].AccountID
		}
		return keys[i].Currency < keys[j].Currency
	})
	return keys
}

// Replay folds an ordered transaction history into per-(account, currency)
// balances. Transactions are replayed in transactionDate order with the
// insertion order as a stable tie-break, so the result is reproducible from
// the same transaction set regardless of the input slice order on a given
// day. The total is a plain sum, so the final balances are also independent
// of the replay order itself; the ordered form is kept because point-in-time
// extensions depend on it.
//
// The signed effect of each transaction follows the canonical convention:
//
//	expense:  −amount(currency) on accountId
//	income:   +amount(currency) on accountId
//	transfer: −amount(currency) on the from account,
//	          +effectiveAmount(effectiveCurrency) on the to account,
//	          −fee(feeCurrency) on the from account when a trade fee exists
//
// where the effective pair is convertedAmount/convertToCurrency when the
// secondary leg is present, and amount/currency otherwise. Income and
// expense always move the primary leg: their converted pair is display
// information, not a second balance effect.
func Replay(txs []Transaction) Ledger {
	ordered := make([]Transaction, len(txs))
	copy(ordered, txs)
	SortTransactions(ordered)

	ledger := make(Ledger, len(ordered))
	for _, tx := range ordered {
		switch tx.Direction {
		case Income:
			ledger.add(Key(tx.AccountID, tx.Currency), tx.Amount)
		case Expense:
			ledger.add(Key(tx.AccountID, tx.Currency), tx.Amount.Neg())
		case Transfer:
			ledger.add(Key(tx.From(), tx.Currency), tx.Amount.Neg())
			ledger.add(Key(tx.To(), tx.EffectiveCurrency()), tx.EffectiveAmount())
			if tx.Trade != nil && tx.Trade.HasFee() {
				ledger.add(Key(tx.From(), tx.Trade.FeeCurrency), tx.Trade.FeeAmount.Neg())
			}
		}
	}
	return ledger
}
