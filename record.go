package moneta

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// Candidate mirrors the loosely-typed best-effort guess an upstream parser
// produces for one message. Any subset of fields may be present; numeric
// fields arrive as numbers, strings or nulls and are coerced, never
// rejected.
type Candidate struct {
	Text      string
	Direction string
	Amount    decimal.Decimal
	Currency  string

	ConvertedAmount   decimal.Decimal
	ConvertToCurrency string

	AccountName string
	FromAccount string
	ToAccount   string

	TradeType          string
	TradeBaseCurrency  string
	TradeBaseAmount    decimal.Decimal
	TradeQuoteCurrency string
	TradeQuoteAmount   decimal.Decimal
	ExecutionPrice     decimal.Decimal
	TradeFeeCurrency   string
	TradeFeeAmount     decimal.Decimal

	Note string
}

// DecodeCandidate tolerantly decodes upstream JSON into a Candidate. The
// payload may be the candidate object itself or wrapped under a
// "transaction" key, as some model prompts produce. Unknown fields are
// ignored; malformed numerics coerce to zero; only malformed JSON itself is
// an error.
func DecodeCandidate(raw []byte) (Candidate, error) {
	var jobj any
	if err := json.Unmarshal(raw, &jobj); err != nil {
		return Candidate{}, fmt.Errorf("candidate payload is not valid JSON: %w", err)
	}
	// Some prompt variants nest the record; unwrap when present.
	if nested, err := jsonpath.Get("$.transaction", jobj); err == nil && nested != nil {
		jobj = nested
	}

	c := Candidate{
		Text:      jstring(jobj, "$.text"),
		Direction: jstring(jobj, "$.direction"),
		Amount:    jdecimal(jobj, "$.amount"),
		Currency:  strings.ToUpper(jstring(jobj, "$.currency")),

		ConvertedAmount:   jdecimal(jobj, "$.convertedAmount"),
		ConvertToCurrency: strings.ToUpper(jstring(jobj, "$.convertToCurrency")),

		AccountName: jstring(jobj, "$.accountName"),
		FromAccount: jstring(jobj, "$.fromAccount"),
		ToAccount:   jstring(jobj, "$.toAccount"),

		TradeType:          strings.ToLower(jstring(jobj, "$.tradeType")),
		TradeBaseCurrency:  strings.ToUpper(jstring(jobj, "$.tradeBaseCurrency")),
		TradeBaseAmount:    jdecimal(jobj, "$.tradeBaseAmount"),
		TradeQuoteCurrency: strings.ToUpper(jstring(jobj, "$.tradeQuoteCurrency")),
		TradeQuoteAmount:   jdecimal(jobj, "$.tradeQuoteAmount"),
		ExecutionPrice:     jdecimal(jobj, "$.executionPrice"),
		TradeFeeCurrency:   strings.ToUpper(jstring(jobj, "$.tradeFeeCurrency")),
		TradeFeeAmount:     jdecimal(jobj, "$.tradeFeeAmount"),

		Note: jstring(jobj, "$.note"),
	}
	return c, nil
}

// jstring extracts a string at a jsonpath, coercing scalars and returning
// "" when the path is absent.
func jstring(jobj any, path string) string {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil || jval == nil {
		return ""
	}
	// jsonpath may hand back a one-element list for a scalar path.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return decimal.NewFromFloat(v).String()
	case bool:
		return ""
	default:
		return ""
	}
}

// jdecimal extracts a numeric-like value at a jsonpath, coercing to a
// finite decimal or zero.
func jdecimal(jobj any, path string) decimal.Decimal {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil || jval == nil {
		return decimal.Zero
	}
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	return CoerceDecimal(jval)
}

// ResolveCandidate turns a candidate into a resolved transaction against
// the user's accounts: the affected account via fuzzy matching, the
// currency via the resolution priority order, and the trade envelope via
// canonicalization. fallbackCurrency seeds currency inference for users
// with empty accounts; supported limits acceptable currency codes (empty
// means any known code).
func ResolveCandidate(c Candidate, accounts []Account, fallbackCurrency string, supported []string) (Transaction, error) {
	tx := Transaction{
		Direction:         ParseDirection(c.Direction),
		Amount:            c.Amount,
		ConvertedAmount:   c.ConvertedAmount,
		ConvertToCurrency: c.ConvertToCurrency,
		Note:              c.Note,
	}

	account := matchFirst(accounts, c.AccountName, c.FromAccount)
	if account == nil && len(accounts) > 0 {
		// No usable mention: the user's first account is the documented
		// deterministic default.
		account = &accounts[0]
	}
	if account != nil {
		tx.AccountID = account.ID
	}
	if tx.Direction == Transfer {
		if from := MatchAccount(c.FromAccount, accounts); from != nil {
			tx.FromAccountID = from.ID
		} else {
			tx.FromAccountID = tx.AccountID
		}
		if to := MatchAccount(c.ToAccount, accounts); to != nil {
			tx.ToAccountID = to.ID
		} else {
			tx.ToAccountID = OutsideAccountID
		}
	}

	var assets []AccountAsset
	if account != nil {
		assets = account.Assets
	}
	res := ResolveCurrency(c.Text, c.Currency, tx.Direction, c.Amount, assets, fallbackCurrency, supported)
	if res.Currency != "" {
		if err := EnsureSupported(res.Currency, supported); err != nil {
			return Transaction{}, err
		}
		tx.Currency = res.Currency
	}

	if c.TradeType != "" {
		tx.Trade = &TradeEnvelope{
			Type:           TradeType(c.TradeType),
			BaseCurrency:   c.TradeBaseCurrency,
			BaseAmount:     c.TradeBaseAmount,
			QuoteCurrency:  c.TradeQuoteCurrency,
			QuoteAmount:    c.TradeQuoteAmount,
			ExecutionPrice: c.ExecutionPrice,
			FeeCurrency:    c.TradeFeeCurrency,
			FeeAmount:      c.TradeFeeAmount,
		}
		canonical, err := CanonicalizeTrade(tx)
		if err != nil {
			return Transaction{}, err
		}
		tx = canonical.ApplyTo(tx)
		// Trades move value within the user's holdings.
		tx.Direction = Transfer
		if tx.FromAccountID == "" {
			tx.FromAccountID = tx.AccountID
		}
		if tx.ToAccountID == "" || tx.ToAccountID == OutsideAccountID {
			tx.ToAccountID = tx.AccountID
		}
	}
	return tx, nil
}

func matchFirst(accounts []Account, names ...string) *Account {
	for _, name := range names {
		if name == "" {
			continue
		}
		if a := MatchAccount(name, accounts); a != nil {
			return a
		}
	}
	return nil
}
