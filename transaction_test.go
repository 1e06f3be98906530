package moneta

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTransaction_MarshalJSON(t *testing.T) {
	tx := Transaction{
		ID:        "t1",
		Direction: Transfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-1",
		Amount:            dec("14.9628"),
		Currency:          "USDT",
		ConvertedAmount:   dec("11.1"),
		ConvertToCurrency: "TON",
		Date:              day(2026, time.July, 1),
		Trade: &TradeEnvelope{
			Type: Buy, BaseCurrency: "TON", BaseAmount: dec("11.1"),
			QuoteCurrency: "USDT", QuoteAmount: dec("14.9628"),
			ExecutionPrice: dec("1.348"),
		},
	}

	raw, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"id":"t1","direction":"transfer","fromAccountId":"acc-1","toAccountId":"acc-1",` +
		`"amount":"14.9628","currency":"USDT","convertedAmount":"11.1","convertToCurrency":"TON",` +
		`"transactionDate":"2026-07-01T00:00:00Z",` +
		`"tradeType":"buy","tradeBaseCurrency":"TON","tradeBaseAmount":"11.1",` +
		`"tradeQuoteCurrency":"USDT","tradeQuoteAmount":"14.9628","executionPrice":"1.348"}`
	if string(raw) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", raw, want)
	}
}

func TestTransaction_MarshalJSON_OmitsAbsentFields(t *testing.T) {
	tx := Transaction{
		ID:        "t2",
		Direction: Expense,
		AccountID: "acc-1",
		Amount:    dec("20"),
		Currency:  "USD",
		Date:      day(2026, time.July, 2),
	}

	raw, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"id":"t2","direction":"expense","accountId":"acc-1",` +
		`"amount":"20","currency":"USD","transactionDate":"2026-07-02T00:00:00Z"}`
	if string(raw) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", raw, want)
	}
}

func TestTransaction_UnmarshalJSON(t *testing.T) {
	raw := []byte(`{
		"id": "t1",
		"direction": "transfer",
		"fromAccountId": "acc-1",
		"toAccountId": "acc-2",
		"amount": "100.5",
		"currency": "usdt",
		"transactionDate": "2026-07-01T12:30:00Z",
		"tradeType": "sell",
		"tradeBaseCurrency": "lab",
		"tradeBaseAmount": 753
	}`)

	var tx Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if tx.Direction != Transfer {
		t.Errorf("Direction = %q, want transfer", tx.Direction)
	}
	if tx.Currency != "USDT" {
		t.Errorf("Currency = %q, want uppercased USDT", tx.Currency)
	}
	checkDecimal(t, "Amount", tx.Amount, dec("100.5"))
	if tx.Trade == nil || tx.Trade.Type != Sell {
		t.Fatalf("Trade = %+v, want a sell envelope", tx.Trade)
	}
	if tx.Trade.BaseCurrency != "LAB" {
		t.Errorf("BaseCurrency = %q, want uppercased LAB", tx.Trade.BaseCurrency)
	}
}

func TestTransaction_UnmarshalJSON_DateOnly(t *testing.T) {
	var tx Transaction
	if err := json.Unmarshal([]byte(`{"id":"t1","direction":"income","amount":"1","currency":"USD","transactionDate":"2024-03-15"}`), &tx); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !tx.Date.Equal(day(2024, time.March, 15)) {
		t.Errorf("Date = %v, want 2024-03-15", tx.Date)
	}
}

func TestTransaction_RoundTrip(t *testing.T) {
	tx := Transaction{
		ID:        "t1",
		Direction: Expense,
		AccountID: "acc-1",
		Amount:    dec("20"),
		Currency:  "USD",
		Date:      day(2026, time.July, 2),
		Note:      "кофе",
	}

	raw, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back Transaction
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.ID != tx.ID || back.Direction != tx.Direction || back.Note != tx.Note {
		t.Errorf("round trip changed fields: %+v", back)
	}
	checkDecimal(t, "Amount", back.Amount, tx.Amount)
}

func TestParseDirection(t *testing.T) {
	testCases := []struct {
		in   string
		want Direction
	}{
		{"income", Income},
		{"EXPENSE", Expense},
		{"Transfer", Transfer},
		{"", Expense},
		{"unknown", Expense},
	}
	for _, tc := range testCases {
		if got := ParseDirection(tc.in); got != tc.want {
			t.Errorf("ParseDirection(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTransaction_Endpoints(t *testing.T) {
	tx := Transaction{AccountID: "acc-1"}
	if tx.From() != "acc-1" {
		t.Errorf("From() = %q, want acc-1", tx.From())
	}
	if tx.To() != OutsideAccountID {
		t.Errorf("To() = %q, want outside", tx.To())
	}

	tx.FromAccountID = "acc-2"
	tx.ToAccountID = "acc-3"
	if tx.From() != "acc-2" || tx.To() != "acc-3" {
		t.Errorf("endpoints = %s → %s, want acc-2 → acc-3", tx.From(), tx.To())
	}
}
