// Package moneta turns messy, partially-specified financial transaction
// records into a consistent, currency-aware ledger of per-account balances.
//
// Records arrive from an upstream parser (an LLM, a manual edit, or
// historical data) as loosely-typed candidate fields. The package resolves
// the currency and account each record actually affects, normalizes buy/sell
// trades into one canonical base/quote form, replays the full transaction
// history into per-(account, currency) balances, and reconciles the result
// against stored balance caches, producing the minimal corrective write-set.
//
// All computation here is pure and in-memory. I/O lives behind the Store
// interface; see the postgres and memstore packages for implementations and
// the cmd package for the operator CLI.
package moneta
