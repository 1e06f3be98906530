package renderer

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"

	"github.com/moneta-bot/moneta"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("bad decimal literal " + s)
	}
	return d
}

func samplePlan() *moneta.Plan {
	return &moneta.Plan{
		UserID: "user-1",
		Mode:   moneta.DryRun,
		Total:  12,
		Rewrites: []moneta.Transaction{{
			ID: "t1", Direction: moneta.Transfer,
			Amount: dec("48"), Currency: "USD",
			ConvertedAmount: dec("40"), ConvertToCurrency: "TON",
			Date: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
		}},
		Diffs: []moneta.BalanceDiff{{
			AccountID: "acc-1", AccountName: "Main", Currency: "USD",
			Current: dec("100"), Target: dec("102"), Delta: dec("2"),
		}},
		Unresolved: []string{"t9: cannot determine the trade pair"},
	}
}

func TestReconciliationMarkdown(t *testing.T) {
	md := ReconciliationMarkdown(samplePlan())

	// The report opens with the counts and the mode, then the diff table,
	// then the rewrite preview.
	for _, want := range []string{
		"Transactions: 12",
		"Trades to canonicalize: 1",
		"Mode: dry-run",
		"Main",
		"100.00000000",
		"102.00000000",
		"+2.00000000",
		"t1",
		"2026-05-01",
		"48.00000000 USD",
		"40.00000000 TON",
		"t9",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report does not contain %q:\n%s", want, md)
		}
	}
	counts := strings.Index(md, "Transactions: 12")
	table := strings.Index(md, "Main")
	preview := strings.Index(md, "t1")
	if !(counts < table && table < preview) {
		t.Errorf("report sections out of order:\n%s", md)
	}

	// The output must be valid Markdown.
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		t.Fatalf("goldmark.Convert() error = %v", err)
	}
	if !strings.Contains(buf.String(), "<table>") && !strings.Contains(buf.String(), "<h1") {
		t.Error("converted report has no recognizable structure")
	}
}

func TestFormatAmount_FixedScale(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"integer keeps trailing zeros", "100", "100.00000000"},
		{"sub-cent delta visible", "0.000001", "0.00000100"},
		{"ninth digit rounds away", "1.234567891", "1.23456789"},
		{"negative", "-2", "-2.00000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAmount(dec(tt.in)); got != tt.want {
				t.Errorf("formatAmount(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
	if got := formatDelta(dec("2")); got != "+2.00000000" {
		t.Errorf("formatDelta(2) = %q, want %q", got, "+2.00000000")
	}
	if got := formatDelta(dec("-0.5")); got != "-0.50000000" {
		t.Errorf("formatDelta(-0.5) = %q, want %q", got, "-0.50000000")
	}
}

func TestReconciliationMarkdown_EmptyPlan(t *testing.T) {
	plan := &moneta.Plan{UserID: "user-1", Mode: moneta.Apply, Total: 3}

	md := ReconciliationMarkdown(plan)
	if !strings.Contains(md, "nothing to do") {
		t.Errorf("empty plan report missing the no-op notice:\n%s", md)
	}
	if strings.Contains(md, "Balance adjustments") {
		t.Error("empty plan report should not contain a diff table")
	}
}

func TestReconciliationMarkdown_PreviewCap(t *testing.T) {
	plan := samplePlan()
	plan.Rewrites = nil
	for i := 0; i < 35; i++ {
		plan.Rewrites = append(plan.Rewrites, moneta.Transaction{
			ID: fmt.Sprintf("t%02d", i), Amount: dec("1"), Currency: "USD",
			Date: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
		})
	}

	md := ReconciliationMarkdown(plan)
	if !strings.Contains(md, "and 5 more") {
		t.Errorf("overflow counter missing:\n%s", md)
	}
	if strings.Contains(md, "t34") {
		t.Error("rewrites beyond the preview cap were rendered")
	}
}

func TestBalancesMarkdown(t *testing.T) {
	accounts := []moneta.Account{
		{ID: "acc-1", Name: "Main", Assets: []moneta.AccountAsset{
			{Currency: "USD", Amount: dec("100")},
		}},
	}
	ledger := moneta.Replay([]moneta.Transaction{
		{ID: "t1", Direction: moneta.Income, AccountID: "acc-1", Amount: dec("90"), Currency: "USD"},
	})

	md := BalancesMarkdown("user-1", accounts, ledger)
	for _, want := range []string{"Main", "USD", "100", "90"} {
		if !strings.Contains(md, want) {
			t.Errorf("balances report does not contain %q:\n%s", want, md)
		}
	}
}
