package moneta

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MissingTradeField names the piece of a trade that could not be resolved.
type MissingTradeField string

const (
	MissingPair   MissingTradeField = "pair"
	MissingAmount MissingTradeField = "amount"
	MissingPrice  MissingTradeField = "price"
)

// TradeUnresolvableError reports a trade whose base/quote structure cannot
// be determined from the supplied fields. It is recoverable: the caller asks
// the user for the specific missing value instead of guessing.
type TradeUnresolvableError struct {
	Missing MissingTradeField
	Detail  string
}

func (e *TradeUnresolvableError) Error() string {
	switch e.Missing {
	case MissingPair:
		return fmt.Sprintf("cannot determine the trade pair: %s (specify it as BASE/QUOTE, e.g. TON/USDT)", e.Detail)
	case MissingAmount:
		return fmt.Sprintf("cannot determine the trade amounts: %s", e.Detail)
	case MissingPrice:
		return fmt.Sprintf("cannot determine the execution price: %s (specify the price or the second amount)", e.Detail)
	default:
		return "trade is unresolvable: " + e.Detail
	}
}

// CanonicalTrade is the fully resolved form of a trade: the base/quote
// envelope plus the generic transaction fields it maps onto.
//
// The mapping is a fixed convention: amount/currency always denote the asset
// being spent (the quote leg for a buy, the base leg for a sell) and
// convertedAmount/convertToCurrency denote the other leg. Every downstream
// computation depends on this orientation.
type CanonicalTrade struct {
	Type           TradeType
	BaseCurrency   string
	BaseAmount     decimal.Decimal
	QuoteCurrency  string
	QuoteAmount    decimal.Decimal
	ExecutionPrice decimal.Decimal
	FeeCurrency    string
	FeeAmount      decimal.Decimal

	Amount            decimal.Decimal
	Currency          string
	ConvertedAmount   decimal.Decimal
	ConvertToCurrency string
}

// CanonicalizeTrade normalizes a transaction's trade fields, whatever subset
// was supplied, into a CanonicalTrade. It returns (nil, nil) when the
// transaction carries no trade envelope. It is pure: the input is not
// modified, and canonicalizing an already-canonical trade reproduces it.
func CanonicalizeTrade(tx Transaction) (*CanonicalTrade, error) {
	if !tx.IsTrade() {
		return nil, nil
	}
	env := *tx.Trade
	if env.Type != Buy && env.Type != Sell {
		return nil, &TradeUnresolvableError{Missing: MissingPair, Detail: fmt.Sprintf("unknown trade type %q", env.Type)}
	}

	base := strings.ToUpper(env.BaseCurrency)
	quote := strings.ToUpper(env.QuoteCurrency)
	// Infer the pair from the generic fields per the buy/sell convention:
	// a buy spends the quote (currency) to receive the base (convertTo),
	// a sell spends the base (currency) to receive the quote (convertTo).
	if base == "" {
		if env.Type == Buy {
			base = strings.ToUpper(tx.ConvertToCurrency)
		} else {
			base = strings.ToUpper(tx.Currency)
		}
	}
	if quote == "" {
		if env.Type == Buy {
			quote = strings.ToUpper(tx.Currency)
		} else {
			quote = strings.ToUpper(tx.ConvertToCurrency)
		}
	}
	if base == "" || quote == "" {
		return nil, &TradeUnresolvableError{Missing: MissingPair, Detail: "base or quote currency is missing"}
	}
	if base == quote {
		return nil, &TradeUnresolvableError{Missing: MissingPair, Detail: fmt.Sprintf("base and quote are both %s", base)}
	}

	baseAmt := env.BaseAmount
	quoteAmt := env.QuoteAmount
	if !baseAmt.IsPositive() {
		if env.Type == Buy {
			baseAmt = tx.ConvertedAmount
		} else {
			baseAmt = tx.Amount
		}
	}
	if !quoteAmt.IsPositive() {
		if env.Type == Buy {
			quoteAmt = tx.Amount
		} else {
			quoteAmt = tx.ConvertedAmount
		}
	}

	price := env.ExecutionPrice
	switch {
	case !baseAmt.IsPositive() && !quoteAmt.IsPositive():
		return nil, &TradeUnresolvableError{Missing: MissingAmount, Detail: "neither base nor quote amount is known"}
	case !baseAmt.IsPositive():
		if !price.IsPositive() {
			return nil, &TradeUnresolvableError{Missing: MissingPrice, Detail: fmt.Sprintf("base amount of %s is unknown", base)}
		}
		baseAmt = quoteAmt.Div(price)
	case !quoteAmt.IsPositive():
		if !price.IsPositive() {
			return nil, &TradeUnresolvableError{Missing: MissingPrice, Detail: fmt.Sprintf("quote amount of %s is unknown", quote)}
		}
		quoteAmt = baseAmt.Mul(price)
	}
	if !baseAmt.IsPositive() || !quoteAmt.IsPositive() {
		return nil, &TradeUnresolvableError{Missing: MissingAmount, Detail: "trade amounts must be positive"}
	}

	derived := quoteAmt.DivRound(baseAmt, priceScale)
	if !price.IsPositive() {
		price = derived
	} else if !relClose(quoteAmt, baseAmt.Mul(price)) {
		// All three were supplied but disagree beyond tolerance. The two
		// amounts carry more information than the price, so the price is
		// re-derived; at most one member of the trio is ever computed.
		price = derived
	}

	c := &CanonicalTrade{
		Type:           env.Type,
		BaseCurrency:   base,
		BaseAmount:     baseAmt,
		QuoteCurrency:  quote,
		QuoteAmount:    quoteAmt,
		ExecutionPrice: price,
	}
	if env.HasFee() {
		c.FeeCurrency = strings.ToUpper(env.FeeCurrency)
		c.FeeAmount = env.FeeAmount
	}
	if env.Type == Buy {
		c.Amount, c.Currency = quoteAmt, quote
		c.ConvertedAmount, c.ConvertToCurrency = baseAmt, base
	} else {
		c.Amount, c.Currency = baseAmt, base
		c.ConvertedAmount, c.ConvertToCurrency = quoteAmt, quote
	}
	return c, nil
}

// Envelope returns the canonical trade envelope.
func (c *CanonicalTrade) Envelope() *TradeEnvelope {
	return &TradeEnvelope{
		Type:           c.Type,
		BaseCurrency:   c.BaseCurrency,
		BaseAmount:     c.BaseAmount,
		QuoteCurrency:  c.QuoteCurrency,
		QuoteAmount:    c.QuoteAmount,
		ExecutionPrice: c.ExecutionPrice,
		FeeCurrency:    c.FeeCurrency,
		FeeAmount:      c.FeeAmount,
	}
}

// ApplyTo returns a copy of tx with the canonical trade fields written into
// both the generic amount fields and the trade envelope.
func (c *CanonicalTrade) ApplyTo(tx Transaction) Transaction {
	tx.Amount = c.Amount
	tx.Currency = c.Currency
	tx.ConvertedAmount = c.ConvertedAmount
	tx.ConvertToCurrency = c.ConvertToCurrency
	tx.Trade = c.Envelope()
	return tx
}

// DiffersFrom reports whether the stored transaction deviates from the
// canonical form: amounts compared at 1e-12 absolute tolerance, currencies
// case-insensitively.
func (c *CanonicalTrade) DiffersFrom(tx Transaction) bool {
	if !strings.EqualFold(tx.Currency, c.Currency) ||
		!strings.EqualFold(tx.ConvertToCurrency, c.ConvertToCurrency) {
		return true
	}
	if !withinEpsilon(tx.Amount, c.Amount) || !withinEpsilon(tx.ConvertedAmount, c.ConvertedAmount) {
		return true
	}
	if tx.Trade == nil {
		return true
	}
	env := tx.Trade
	if env.Type != c.Type ||
		!strings.EqualFold(env.BaseCurrency, c.BaseCurrency) ||
		!strings.EqualFold(env.QuoteCurrency, c.QuoteCurrency) ||
		!strings.EqualFold(env.FeeCurrency, c.FeeCurrency) {
		return true
	}
	return !withinEpsilon(env.BaseAmount, c.BaseAmount) ||
		!withinEpsilon(env.QuoteAmount, c.QuoteAmount) ||
		!withinEpsilon(env.ExecutionPrice, c.ExecutionPrice) ||
		!withinEpsilon(env.FeeAmount, c.FeeAmount)
}
