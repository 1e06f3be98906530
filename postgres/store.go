// Package postgres provides a moneta.Store backed by PostgreSQL. Plans are
// applied inside a single database transaction so a reconciliation either
// lands whole or not at all.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/moneta-bot/moneta"
)

type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Store { return &Store{db: db} }

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Accounts implements moneta.Store.
func (s *Store) Accounts(ctx context.Context, userID string) ([]moneta.Account, error) {
	const query = `SELECT id, name FROM accounts WHERE user_id = $1 ORDER BY position, id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []moneta.Account
	for rows.Next() {
		var a moneta.Account
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range accounts {
		assets, err := s.assets(ctx, accounts[i].ID)
		if err != nil {
			return nil, err
		}
		accounts[i].Assets = assets
	}
	return accounts, nil
}

func (s *Store) assets(ctx context.Context, accountID string) ([]moneta.AccountAsset, error) {
	const query = `SELECT currency, amount FROM account_assets WHERE account_id = $1 ORDER BY position, currency`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing assets for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var assets []moneta.AccountAsset
	for rows.Next() {
		var as moneta.AccountAsset
		var amount string
		if err := rows.Scan(&as.Currency, &amount); err != nil {
			return nil, fmt.Errorf("scanning asset row: %w", err)
		}
		as.Amount = moneta.CoerceDecimal(amount)
		assets = append(assets, as)
	}
	return assets, rows.Err()
}

// Transactions implements moneta.Store. Rows come back in insertion order,
// which is what replay uses to break ties between equal dates.
func (s *Store) Transactions(ctx context.Context, userID string) ([]moneta.Transaction, error) {
	const query = `SELECT id, direction, account_id, from_account_id, to_account_id,
		amount, currency, converted_amount, convert_to_currency, date, note, trade
		FROM transactions WHERE user_id = $1 ORDER BY position, id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []moneta.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(rows *sql.Rows) (moneta.Transaction, error) {
	var tx moneta.Transaction
	var direction string
	var fromID, toID, convertTo, note sql.NullString
	var amount string
	var converted sql.NullString
	var trade []byte

	err := rows.Scan(&tx.ID, &direction, &tx.AccountID, &fromID, &toID,
		&amount, &tx.Currency, &converted, &convertTo, &tx.Date, &note, &trade)
	if err != nil {
		return tx, fmt.Errorf("scanning transaction row: %w", err)
	}

	tx.Direction = moneta.ParseDirection(direction)
	tx.FromAccountID = fromID.String
	tx.ToAccountID = toID.String
	tx.Amount = moneta.CoerceDecimal(amount)
	if converted.Valid {
		tx.ConvertedAmount = moneta.CoerceDecimal(converted.String)
	}
	tx.ConvertToCurrency = convertTo.String
	tx.Note = note.String
	if len(trade) > 0 {
		var env moneta.TradeEnvelope
		if err := json.Unmarshal(trade, &env); err != nil {
			return tx, fmt.Errorf("decoding trade envelope for %s: %w", tx.ID, err)
		}
		tx.Trade = &env
	}
	return tx, nil
}

// ApplyPlan implements moneta.Store. Rewrites update transactions by id and
// diffs upsert account asset rows, all inside one database transaction.
func (s *Store) ApplyPlan(ctx context.Context, userID string, plan *moneta.Plan) (err error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reconciliation transaction: %w", err)
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	for _, rw := range plan.Rewrites {
		if err = s.rewrite(ctx, dbTx, userID, rw); err != nil {
			return err
		}
	}
	for _, diff := range plan.Diffs {
		if err = s.upsertAsset(ctx, dbTx, diff); err != nil {
			return err
		}
	}
	return dbTx.Commit()
}

func (s *Store) rewrite(ctx context.Context, dbTx *sql.Tx, userID string, tx moneta.Transaction) error {
	const query = `UPDATE transactions
		SET amount = $1, currency = $2, converted_amount = $3, convert_to_currency = $4, trade = $5
		WHERE id = $6 AND user_id = $7`

	var trade []byte
	if tx.Trade != nil {
		raw, err := json.Marshal(tx.Trade)
		if err != nil {
			return fmt.Errorf("encoding trade envelope for %s: %w", tx.ID, err)
		}
		trade = raw
	}
	converted := sql.NullString{}
	if !tx.ConvertedAmount.IsZero() || tx.ConvertToCurrency != "" {
		converted = sql.NullString{String: tx.ConvertedAmount.String(), Valid: true}
	}

	res, err := dbTx.ExecContext(ctx, query,
		tx.Amount.String(), tx.Currency, converted, tx.ConvertToCurrency, trade, tx.ID, userID)
	if err != nil {
		return fmt.Errorf("rewriting transaction %s: %w", tx.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("transaction %s not found for user %s", tx.ID, userID)
	}
	return nil
}

func (s *Store) upsertAsset(ctx context.Context, dbTx *sql.Tx, diff moneta.BalanceDiff) error {
	const query = `INSERT INTO account_assets (account_id, currency, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, currency) DO UPDATE SET amount = EXCLUDED.amount`

	_, err := dbTx.ExecContext(ctx, query, diff.AccountID, diff.Currency, diff.Target.String())
	if err != nil {
		return fmt.Errorf("updating balance %s/%s: %w", diff.AccountID, diff.Currency, err)
	}
	return nil
}

var _ moneta.Store = (*Store)(nil)
