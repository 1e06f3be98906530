package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"github.com/moneta-bot/moneta"
)

// ReconciliationMarkdown renders a reconciliation plan: the balance diffs,
// a preview of the rewritten trades and any trades left untouched because
// their stored envelopes could not be resolved.
func ReconciliationMarkdown(plan *moneta.Plan) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Reconciliation for %s", plan.UserID))
	doc.BulletList(
		fmt.Sprintf("Transactions: %d", plan.Total),
		fmt.Sprintf("Trades to canonicalize: %d", len(plan.Rewrites)),
		fmt.Sprintf("Mode: %s", plan.Mode),
	)

	if plan.Empty() {
		doc.PlainText("Ledger already consistent, nothing to do.")
		return doc.String()
	}

	if len(plan.Diffs) > 0 {
		doc.H2("Balance adjustments")
		table := md.TableSet{
			Header: []string{"Account", "Currency", "Current", "Target", "Delta"},
			Rows:   [][]string{},
		}
		for _, diff := range plan.Diffs {
			table.Rows = append(table.Rows, []string{
				diff.AccountName,
				diff.Currency,
				formatAmount(diff.Current),
				formatAmount(diff.Target),
				formatDelta(diff.Delta),
			})
		}
		doc.Table(table)
	}

	if len(plan.Rewrites) > 0 {
		doc.H2("Rewritten trades")
		shown := plan.Rewrites
		if len(shown) > previewLimit {
			shown = shown[:previewLimit]
		}
		table := md.TableSet{
			Header: []string{"ID", "Date", "Amount", "Converted"},
			Rows:   [][]string{},
		}
		for _, tx := range shown {
			converted := ""
			if tx.HasConversion() {
				converted = formatMoney(tx.ConvertedAmount, tx.ConvertToCurrency)
			}
			table.Rows = append(table.Rows, []string{
				tx.ID,
				tx.Date.Format("2006-01-02"),
				formatMoney(tx.Amount, tx.Currency),
				converted,
			})
		}
		doc.Table(table)
		if rest := len(plan.Rewrites) - len(shown); rest > 0 {
			doc.PlainText(fmt.Sprintf("… and %d more.", rest))
		}
	}

	if len(plan.Unresolved) > 0 {
		doc.H2("Left untouched")
		doc.PlainText("These trades are missing too much to canonicalize and replay as stored:")
		doc.BulletList(plan.Unresolved...)
	}

	return doc.String()
}

// BalancesMarkdown renders the replayed ledger of a user next to the
// stored balances.
func BalancesMarkdown(userID string, accounts []moneta.Account, ledger moneta.Ledger) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Balances for %s", userID))

	table := md.TableSet{
		Header: []string{"Account", "Currency", "Stored", "Replayed"},
		Rows:   [][]string{},
	}
	for _, account := range accounts {
		for _, as := range account.Assets {
			table.Rows = append(table.Rows, []string{
				account.Name,
				as.Currency,
				formatAmount(as.Amount),
				formatAmount(ledger.Get(account.ID, as.Currency)),
			})
		}
	}
	doc.Table(table)

	return doc.String()
}
