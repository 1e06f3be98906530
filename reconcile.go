package moneta

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Mode selects whether a reconciliation run only reports or also writes.
type Mode int

const (
	// DryRun computes and reports the corrective write-set without
	// touching the store. Safe to run repeatedly.
	DryRun Mode = iota
	// Apply persists the write-set in one atomic store transaction.
	Apply
)

func (m Mode) String() string {
	if m == Apply {
		return "apply"
	}
	return "dry-run"
}

// BalanceDiff is one corrective row: a ledger key whose stored balance
// deviates from the replayed target.
type BalanceDiff struct {
	AccountID   string
	AccountName string
	Currency    string
	Current     decimal.Decimal
	Target      decimal.Decimal
	Delta       decimal.Decimal
}

// Plan is the outcome of a reconciliation computation: the minimal
// write-set that brings stored balances in line with the canonical replay.
type Plan struct {
	UserID string
	Mode   Mode

	// Total is the number of transactions replayed.
	Total int

	// Rewrites holds the trade transactions whose stored form deviates
	// from canonical, already carrying their canonical fields.
	Rewrites []Transaction

	// Diffs is the per-account/per-currency corrective set, sorted by
	// account name then currency.
	Diffs []BalanceDiff

	// Unresolved lists trades that could not be canonicalized and were
	// replayed in their stored form.
	Unresolved []string
}

// Empty reports whether the plan changes nothing.
func (p *Plan) Empty() bool { return len(p.Rewrites) == 0 && len(p.Diffs) == 0 }

// BuildPlan computes the reconciliation plan for one user's accounts and
// transaction history. It is a pure function: no I/O, no mutation of the
// inputs.
//
// The stored balances are not simply replaced by the replay result. The
// baseline, the portion of each stored balance not explained by the known
// transaction log (typically zero but possibly an out-of-band adjustment),
// is preserved:
//
//	baseline = stored − replay(stored history)
//	target   = baseline + replay(canonicalized history)
//	diff     = target − stored
//
// Keys whose diff magnitude is below 1e-12 are dropped. Only accounts that
// actually exist are diffed; the reserved outside account has no cached
// balances to correct.
func BuildPlan(userID string, accounts []Account, txs []Transaction) *Plan {
	plan := &Plan{UserID: userID, Total: len(txs)}

	stored := make(Ledger)
	for _, a := range accounts {
		if a.IsOutside() {
			continue
		}
		for _, as := range a.Assets {
			stored.add(Key(a.ID, as.Currency), as.Amount)
		}
	}

	oldEffects := Replay(txs)

	canonical := make([]Transaction, len(txs))
	copy(canonical, txs)
	for i, tx := range canonical {
		if !tx.IsTrade() {
			continue
		}
		c, err := CanonicalizeTrade(tx)
		if err != nil {
			// A trade that cannot be resolved is replayed as stored; the
			// operator sees it listed and can repair the data by hand.
			plan.Unresolved = append(plan.Unresolved, fmt.Sprintf("%s: %v", tx.ID, err))
			continue
		}
		if c.DiffersFrom(tx) {
			canonical[i] = c.ApplyTo(tx)
			plan.Rewrites = append(plan.Rewrites, canonical[i])
		}
	}

	newEffects := Replay(canonical)

	// target = stored − oldEffects + newEffects, over the union of keys.
	target := make(Ledger)
	for k, v := range stored {
		target[k] = v
	}
	for k, v := range oldEffects {
		target[k] = target[k].Sub(v)
	}
	for k, v := range newEffects {
		target[k] = target[k].Add(v)
	}

	for _, k := range target.Keys() {
		acc, ok := AccountByID(accounts, k.AccountID)
		if !ok || acc.IsOutside() {
			continue
		}
		cur := stored[k]
		tgt := target[k]
		if withinEpsilon(cur, tgt) {
			continue
		}
		plan.Diffs = append(plan.Diffs, BalanceDiff{
			AccountID:   k.AccountID,
			AccountName: acc.Name,
			Currency:    k.Currency,
			Current:     cur,
			Target:      tgt,
			Delta:       tgt.Sub(cur),
		})
	}
	sort.Slice(plan.Diffs, func(i, j int) bool {
		if plan.Diffs[i].AccountName != plan.Diffs[j].AccountName {
			return plan.Diffs[i].AccountName < plan.Diffs[j].AccountName
		}
		return plan.Diffs[i].Currency < plan.Diffs[j].Currency
	})
	return plan
}

// Reconciler runs the full fetch → plan → apply cycle against a Store.
type Reconciler struct {
	store Store
}

// NewReconciler creates a Reconciler backed by the given store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// Run reconciles one user. In DryRun mode it never mutates state; in Apply
// mode the computed plan is persisted in one atomic store transaction, and
// any persistence error aborts the whole apply. Running twice in Apply mode
// with no new transactions yields an empty plan the second time.
func (r *Reconciler) Run(ctx context.Context, userID string, mode Mode) (*Plan, error) {
	accounts, err := r.store.Accounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading accounts for %s: %w", userID, err)
	}
	txs, err := r.store.Transactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading transactions for %s: %w", userID, err)
	}

	plan := BuildPlan(userID, accounts, txs)
	plan.Mode = mode

	if mode == Apply && !plan.Empty() {
		if err := r.store.ApplyPlan(ctx, userID, plan); err != nil {
			return nil, fmt.Errorf("applying reconciliation for %s: %w", userID, err)
		}
	}
	return plan, nil
}
