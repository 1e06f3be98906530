package moneta

import "context"

// Store is the persistence boundary of the reconciliation engine.
//
// Reads happen before any computation; the single write happens after it.
// ApplyPlan must be atomic: either every changed trade transaction is
// rewritten and every account asset upserted to its target, or nothing is.
// Partially applied corrections must never be observable.
type Store interface {
	// Accounts returns the user's accounts with their cached asset
	// balances, in storage order.
	Accounts(ctx context.Context, userID string) ([]Account, error)

	// Transactions returns the user's full history in creation order,
	// which replay uses as the tie-break between equal dates.
	Transactions(ctx context.Context, userID string) ([]Transaction, error)

	// ApplyPlan persists a reconciliation plan in one atomic unit.
	ApplyPlan(ctx context.Context, userID string, plan *Plan) error
}
