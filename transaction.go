package moneta

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction identifies the economic direction of a transaction.
type Direction string

const (
	Income   Direction = "income"
	Expense  Direction = "expense"
	Transfer Direction = "transfer"
)

// ParseDirection maps a loose upstream direction string to a Direction.
// Unknown or empty input defaults to Expense, the most common guess.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "in":
		return Income
	case "transfer", "move":
		return Transfer
	default:
		return Expense
	}
}

// TradeType identifies the side of a trade.
type TradeType string

const (
	Buy  TradeType = "buy"
	Sell TradeType = "sell"
)

// TradeEnvelope carries the optional trade fields of a transaction.
// Zero values mean "not supplied"; CanonicalizeTrade resolves the gaps.
type TradeEnvelope struct {
	Type           TradeType       `json:"tradeType"`
	BaseCurrency   string          `json:"tradeBaseCurrency,omitempty"`
	BaseAmount     decimal.Decimal `json:"tradeBaseAmount,omitempty"`
	QuoteCurrency  string          `json:"tradeQuoteCurrency,omitempty"`
	QuoteAmount    decimal.Decimal `json:"tradeQuoteAmount,omitempty"`
	ExecutionPrice decimal.Decimal `json:"executionPrice,omitempty"`
	FeeCurrency    string          `json:"tradeFeeCurrency,omitempty"`
	FeeAmount      decimal.Decimal `json:"tradeFeeAmount,omitempty"`
}

// HasFee reports whether the envelope carries a usable fee leg.
func (e TradeEnvelope) HasFee() bool {
	return e.FeeCurrency != "" && e.FeeAmount.IsPositive()
}

// MarshalJSON keeps unsupplied envelope fields out of the encoded form.
// reflect-based omitempty does not work for decimal.Decimal, so the zero
// amounts are filtered explicitly.
func (e TradeEnvelope) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("tradeType", e.Type)
	w.Optional("tradeBaseCurrency", e.BaseCurrency)
	if !e.BaseAmount.IsZero() {
		w.Append("tradeBaseAmount", e.BaseAmount)
	}
	w.Optional("tradeQuoteCurrency", e.QuoteCurrency)
	if !e.QuoteAmount.IsZero() {
		w.Append("tradeQuoteAmount", e.QuoteAmount)
	}
	if !e.ExecutionPrice.IsZero() {
		w.Append("executionPrice", e.ExecutionPrice)
	}
	if e.HasFee() {
		w.Append("tradeFeeCurrency", e.FeeCurrency)
		w.Append("tradeFeeAmount", e.FeeAmount)
	}
	return w.MarshalJSON()
}

// Transaction is one economic event. Once confirmed it is immutable except
// for user edits and reconciliation data-repair, which may rewrite the trade
// envelope and the generic amount fields derived from it.
type Transaction struct {
	ID        string
	Direction Direction
	AccountID string

	// Transfer endpoints. FromAccountID defaults to AccountID when empty;
	// ToAccountID defaults to the reserved outside account.
	FromAccountID string
	ToAccountID   string

	Amount   decimal.Decimal
	Currency string

	// Secondary leg for cross-currency movements. Present when
	// ConvertedAmount is positive and ConvertToCurrency is non-empty.
	ConvertedAmount   decimal.Decimal
	ConvertToCurrency string

	Date time.Time
	Note string

	Trade *TradeEnvelope
}

// HasConversion reports whether the secondary currency leg is present.
func (t Transaction) HasConversion() bool {
	return t.ConvertToCurrency != "" && t.ConvertedAmount.IsPositive()
}

// EffectiveAmount returns the amount that actually lands on the receiving
// side: the converted leg when present, the primary leg otherwise.
func (t Transaction) EffectiveAmount() decimal.Decimal {
	if t.HasConversion() {
		return t.ConvertedAmount
	}
	return t.Amount
}

// EffectiveCurrency returns the currency paired with EffectiveAmount.
func (t Transaction) EffectiveCurrency() string {
	if t.HasConversion() {
		return t.ConvertToCurrency
	}
	return t.Currency
}

// From returns the account a transfer debits.
func (t Transaction) From() string {
	if t.FromAccountID != "" {
		return t.FromAccountID
	}
	return t.AccountID
}

// To returns the account a transfer credits.
func (t Transaction) To() string {
	if t.ToAccountID != "" {
		return t.ToAccountID
	}
	return OutsideAccountID
}

// IsTrade reports whether the transaction carries a trade envelope.
func (t Transaction) IsTrade() bool {
	return t.Trade != nil && t.Trade.Type != ""
}

// MarshalJSON encodes the transaction with a stable field order and without
// zero-valued optional fields.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", t.ID)
	w.Append("direction", t.Direction)
	w.Optional("accountId", t.AccountID)
	w.Optional("fromAccountId", t.FromAccountID)
	w.Optional("toAccountId", t.ToAccountID)
	w.Append("amount", t.Amount)
	w.Append("currency", t.Currency)
	if t.HasConversion() {
		w.Append("convertedAmount", t.ConvertedAmount)
		w.Append("convertToCurrency", t.ConvertToCurrency)
	}
	w.Append("transactionDate", t.Date.UTC().Format(time.RFC3339))
	w.Optional("note", t.Note)
	if t.IsTrade() {
		w.EmbedFrom(*t.Trade)
	}
	return w.MarshalJSON()
}

// UnmarshalJSON decodes a transaction, tolerating string-encoded numbers
// (decimal.Decimal accepts both) and a missing trade envelope.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID                string          `json:"id"`
		Direction         string          `json:"direction"`
		AccountID         string          `json:"accountId"`
		FromAccountID     string          `json:"fromAccountId"`
		ToAccountID       string          `json:"toAccountId"`
		Amount            decimal.Decimal `json:"amount"`
		Currency          string          `json:"currency"`
		ConvertedAmount   decimal.Decimal `json:"convertedAmount"`
		ConvertToCurrency string          `json:"convertToCurrency"`
		Date              string          `json:"transactionDate"`
		Note              string          `json:"note"`
		TradeEnvelope
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	t.ID = temp.ID
	t.Direction = ParseDirection(temp.Direction)
	t.AccountID = temp.AccountID
	t.FromAccountID = temp.FromAccountID
	t.ToAccountID = temp.ToAccountID
	t.Amount = temp.Amount
	t.Currency = strings.ToUpper(temp.Currency)
	t.ConvertedAmount = temp.ConvertedAmount
	t.ConvertToCurrency = strings.ToUpper(temp.ConvertToCurrency)
	t.Note = temp.Note
	if temp.Date != "" {
		when, err := time.Parse(time.RFC3339, temp.Date)
		if err != nil {
			// Date-only form is common in historical data.
			when, err = time.Parse("2006-01-02", temp.Date)
			if err != nil {
				return err
			}
		}
		t.Date = when
	}
	if temp.TradeEnvelope.Type != "" {
		env := temp.TradeEnvelope
		env.BaseCurrency = strings.ToUpper(env.BaseCurrency)
		env.QuoteCurrency = strings.ToUpper(env.QuoteCurrency)
		env.FeeCurrency = strings.ToUpper(env.FeeCurrency)
		t.Trade = &env
	}
	return nil
}

// SortTransactions orders transactions by date. The sort is stable, so
// same-day transactions keep their insertion order, which is the tie-break
// the replay fold relies on.
func SortTransactions(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
}
