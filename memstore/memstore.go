// Package memstore provides an in-memory moneta.Store, backing tests and
// the offline CLI mode that reads a ledger snapshot from a JSON file.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/moneta-bot/moneta"
)

// Store keeps all users' accounts and transactions in memory. It is safe
// for concurrent use.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string][]moneta.Account     // by user id
	transactions map[string][]moneta.Transaction // by user id, insertion order
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts:     make(map[string][]moneta.Account),
		transactions: make(map[string][]moneta.Transaction),
	}
}

// snapshot is the JSON shape of an offline ledger file: one user's
// accounts and transactions.
type snapshot struct {
	UserID       string               `json:"userId"`
	Accounts     []moneta.Account     `json:"accounts"`
	Transactions []moneta.Transaction `json:"transactions"`
}

// Load reads a single-user ledger snapshot from a JSON file.
func Load(path string) (*Store, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading ledger file: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, "", fmt.Errorf("parsing ledger file %q: %w", path, err)
	}
	if snap.UserID == "" {
		snap.UserID = "local"
	}
	s := New()
	s.SetAccounts(snap.UserID, snap.Accounts)
	for _, tx := range snap.Transactions {
		s.AddTransaction(snap.UserID, tx)
	}
	return s, snap.UserID, nil
}

// SetAccounts replaces the user's accounts.
func (s *Store) SetAccounts(userID string, accounts []moneta.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[userID] = append([]moneta.Account(nil), accounts...)
}

// AddTransaction appends a transaction, assigning an id when missing.
func (s *Store) AddTransaction(userID string, tx moneta.Transaction) moneta.Transaction {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[userID] = append(s.transactions[userID], tx)
	return tx
}

// Accounts implements moneta.Store.
func (s *Store) Accounts(ctx context.Context, userID string) ([]moneta.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAccounts(s.accounts[userID]), nil
}

// Transactions implements moneta.Store. Order is insertion order.
func (s *Store) Transactions(ctx context.Context, userID string) ([]moneta.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]moneta.Transaction(nil), s.transactions[userID]...), nil
}

// ApplyPlan implements moneta.Store. The plan is staged on copies and
// committed under the lock in one step, so a failure leaves the store
// untouched and readers see either the old state or the new one.
func (s *Store) ApplyPlan(ctx context.Context, userID string, plan *moneta.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := append([]moneta.Transaction(nil), s.transactions[userID]...)
	for _, rw := range plan.Rewrites {
		found := false
		for i := range txs {
			if txs[i].ID == rw.ID {
				txs[i] = rw
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("transaction %s not found for user %s", rw.ID, userID)
		}
	}

	accounts := cloneAccounts(s.accounts[userID])
	for _, diff := range plan.Diffs {
		if err := adjustAsset(accounts, diff); err != nil {
			return err
		}
	}

	s.transactions[userID] = txs
	s.accounts[userID] = accounts
	return nil
}

func adjustAsset(accounts []moneta.Account, diff moneta.BalanceDiff) error {
	for i := range accounts {
		if accounts[i].ID != diff.AccountID {
			continue
		}
		for j := range accounts[i].Assets {
			if moneta.SameCurrency(accounts[i].Assets[j].Currency, diff.Currency) {
				accounts[i].Assets[j].Amount = diff.Target
				return nil
			}
		}
		accounts[i].Assets = append(accounts[i].Assets, moneta.AccountAsset{
			Currency: diff.Currency,
			Amount:   diff.Target,
		})
		return nil
	}
	return fmt.Errorf("account %s not found", diff.AccountID)
}

func cloneAccounts(accounts []moneta.Account) []moneta.Account {
	out := make([]moneta.Account, len(accounts))
	for i, a := range accounts {
		a.Assets = append([]moneta.AccountAsset(nil), a.Assets...)
		out[i] = a
	}
	return out
}
