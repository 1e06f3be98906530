package moneta

import (
	"strings"
	"testing"
	"time"
)

func TestBuildPlan_RewritesInconsistentTrade(t *testing.T) {
	// Stored: 100 USD on the account, one expense of 50 USD whose trade
	// envelope actually describes a 48 USD purchase. Canonicalization
	// shrinks the expense, so the balance must grow by the difference.
	accounts := []Account{
		{ID: "acc-1", Name: "Main", Assets: assets("USD", "100")},
	}
	txs := []Transaction{
		{
			ID: "t1", Direction: Expense, AccountID: "acc-1",
			Amount: dec("50"), Currency: "USD",
			Date: day(2026, time.May, 1),
			Trade: &TradeEnvelope{
				Type: Buy, BaseCurrency: "TON", BaseAmount: dec("40"),
				QuoteCurrency: "USD", QuoteAmount: dec("48"),
			},
		},
	}

	plan := BuildPlan("user-1", accounts, txs)

	if plan.Total != 1 {
		t.Errorf("Total = %d, want 1", plan.Total)
	}
	if len(plan.Rewrites) != 1 {
		t.Fatalf("Rewrites = %d, want 1", len(plan.Rewrites))
	}
	checkDecimal(t, "rewrite Amount", plan.Rewrites[0].Amount, dec("48"))
	if plan.Rewrites[0].Currency != "USD" {
		t.Errorf("rewrite Currency = %q, want USD", plan.Rewrites[0].Currency)
	}

	if len(plan.Diffs) != 1 {
		t.Fatalf("Diffs = %d, want 1", len(plan.Diffs))
	}
	diff := plan.Diffs[0]
	if diff.AccountID != "acc-1" || diff.Currency != "USD" {
		t.Fatalf("diff key = %s/%s, want acc-1/USD", diff.AccountID, diff.Currency)
	}
	checkDecimal(t, "Current", diff.Current, dec("100"))
	checkDecimal(t, "Target", diff.Target, dec("102"))
	checkDecimal(t, "Delta", diff.Delta, dec("2"))
}

func TestBuildPlan_PreservesBaseline(t *testing.T) {
	// The stored balance contains 30 USD not explained by any transaction
	// (an out-of-band adjustment). Reconciliation must carry it over, not
	// erase it.
	accounts := []Account{
		{ID: "acc-1", Name: "Main", Assets: assets("USD", "130")},
	}
	txs := []Transaction{
		{ID: "t1", Direction: Income, AccountID: "acc-1", Amount: dec("100"), Currency: "USD", Date: day(2026, time.May, 1)},
		{
			ID: "t2", Direction: Expense, AccountID: "acc-1",
			Amount: dec("50"), Currency: "USD",
			Date: day(2026, time.May, 2),
			Trade: &TradeEnvelope{
				Type: Buy, BaseCurrency: "TON", BaseAmount: dec("40"),
				QuoteCurrency: "USD", QuoteAmount: dec("48"),
			},
		},
	}

	plan := BuildPlan("user-1", accounts, txs)

	if len(plan.Diffs) != 1 {
		t.Fatalf("Diffs = %d, want 1", len(plan.Diffs))
	}
	// baseline = 130 − (100 − 50) = 80; target = 80 + (100 − 48) = 132.
	checkDecimal(t, "Target", plan.Diffs[0].Target, dec("132"))
}

func TestBuildPlan_ConsistentLedgerIsEmpty(t *testing.T) {
	accounts := []Account{
		{ID: "acc-1", Name: "Main", Assets: assets("USD", "70")},
	}
	txs := []Transaction{
		{ID: "t1", Direction: Income, AccountID: "acc-1", Amount: dec("100"), Currency: "USD", Date: day(2026, time.May, 1)},
		{ID: "t2", Direction: Expense, AccountID: "acc-1", Amount: dec("30"), Currency: "USD", Date: day(2026, time.May, 2)},
	}

	plan := BuildPlan("user-1", accounts, txs)

	if !plan.Empty() {
		t.Errorf("plan not empty: %d rewrites, %d diffs", len(plan.Rewrites), len(plan.Diffs))
	}
}

func TestBuildPlan_Idempotent(t *testing.T) {
	accounts := []Account{
		{ID: "acc-1", Name: "Main", Assets: assets("USD", "100")},
	}
	txs := []Transaction{
		{
			ID: "t1", Direction: Expense, AccountID: "acc-1",
			Amount: dec("50"), Currency: "USD",
			Date: day(2026, time.May, 1),
			Trade: &TradeEnvelope{
				Type: Buy, BaseCurrency: "TON", BaseAmount: dec("40"),
				QuoteCurrency: "USD", QuoteAmount: dec("48"),
			},
		},
	}

	first := BuildPlan("user-1", accounts, txs)

	// Simulate an apply: install the rewrites and the target balances.
	applied := []Transaction{first.Rewrites[0]}
	accounts[0].Assets = assets("USD", first.Diffs[0].Target.String())

	second := BuildPlan("user-1", accounts, applied)
	if !second.Empty() {
		t.Errorf("second plan not empty: %+v", second)
	}
}

func TestBuildPlan_UnresolvableTradeReplayedAsStored(t *testing.T) {
	accounts := []Account{
		{ID: "acc-1", Name: "Main", Assets: assets("USD", "50")},
	}
	txs := []Transaction{
		{ID: "t1", Direction: Income, AccountID: "acc-1", Amount: dec("100"), Currency: "USD", Date: day(2026, time.May, 1)},
		{
			ID: "t2", Direction: Expense, AccountID: "acc-1",
			Amount: dec("50"), Currency: "USD",
			Date: day(2026, time.May, 2),
			// No pair anywhere: the trade cannot be canonicalized.
			Trade: &TradeEnvelope{Type: Buy},
		},
	}

	plan := BuildPlan("user-1", accounts, txs)

	if len(plan.Unresolved) != 1 {
		t.Fatalf("Unresolved = %d, want 1", len(plan.Unresolved))
	}
	if !strings.Contains(plan.Unresolved[0], "t2") {
		t.Errorf("Unresolved entry %q does not name the transaction", plan.Unresolved[0])
	}
	// The stored form stays in force, so nothing shifts.
	if len(plan.Diffs) != 0 {
		t.Errorf("Diffs = %d, want 0", len(plan.Diffs))
	}
	if len(plan.Rewrites) != 0 {
		t.Errorf("Rewrites = %d, want 0", len(plan.Rewrites))
	}
}

func TestBuildPlan_SkipsUnknownAndOutsideAccounts(t *testing.T) {
	accounts := []Account{
		{ID: "acc-1", Name: "Main", Assets: assets("USD", "0")},
		{ID: OutsideAccountID, Name: "outside"},
	}
	txs := []Transaction{
		// A rewritten trade whose destination account no longer exists:
		// only acc-1 may be diffed.
		{ID: "t1", Direction: Transfer, FromAccountID: "acc-1", ToAccountID: "gone",
			Amount: dec("50"), Currency: "USD",
			ConvertedAmount: dec("40"), ConvertToCurrency: "TON",
			Date: day(2026, time.June, 1),
			Trade: &TradeEnvelope{
				Type: Buy, BaseCurrency: "TON", BaseAmount: dec("40"),
				QuoteCurrency: "USD", QuoteAmount: dec("48"),
			}},
	}

	plan := BuildPlan("user-1", accounts, txs)

	for _, diff := range plan.Diffs {
		if diff.AccountID != "acc-1" {
			t.Errorf("diff for unexpected account %q", diff.AccountID)
		}
	}
	if len(plan.Diffs) != 1 {
		t.Errorf("Diffs = %d, want 1 (acc-1 only)", len(plan.Diffs))
	}
}

func TestBuildPlan_DiffsSorted(t *testing.T) {
	accounts := []Account{
		{ID: "acc-2", Name: "Zeta", Assets: assets("USD", "5")},
		{ID: "acc-1", Name: "Alpha", Assets: assets("USD", "5", "EUR", "5")},
	}
	badTrade := func(id, account, currency string) Transaction {
		return Transaction{
			ID: id, Direction: Expense, AccountID: account,
			Amount: dec("50"), Currency: currency,
			Date: day(2026, time.June, 1),
			Trade: &TradeEnvelope{
				Type: Buy, BaseCurrency: "TON", BaseAmount: dec("40"),
				QuoteCurrency: currency, QuoteAmount: dec("48"),
			},
		}
	}
	txs := []Transaction{
		badTrade("t1", "acc-2", "USD"),
		badTrade("t2", "acc-1", "USD"),
		badTrade("t3", "acc-1", "EUR"),
	}

	plan := BuildPlan("user-1", accounts, txs)

	if len(plan.Diffs) != 3 {
		t.Fatalf("Diffs = %d, want 3", len(plan.Diffs))
	}
	want := []struct{ name, cur string }{
		{"Alpha", "EUR"}, {"Alpha", "USD"}, {"Zeta", "USD"},
	}
	for i, w := range want {
		if plan.Diffs[i].AccountName != w.name || plan.Diffs[i].Currency != w.cur {
			t.Errorf("Diffs[%d] = %s/%s, want %s/%s",
				i, plan.Diffs[i].AccountName, plan.Diffs[i].Currency, w.name, w.cur)
		}
	}
}
