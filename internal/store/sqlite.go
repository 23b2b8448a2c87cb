package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pytrader/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ OrderJournal = (*SQLiteJournal)(nil)

// SQLiteJournal implements OrderJournal backed by a SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
	id              TEXT PRIMARY KEY,
	client_order_id TEXT,
	symbol          TEXT NOT NULL,
	qty             TEXT NOT NULL,
	side            TEXT NOT NULL,
	type            TEXT NOT NULL,
	time_in_force   TEXT NOT NULL,
	status          TEXT NOT NULL,
	created_at      TEXT,
	limit_price     TEXT,
	stop_price      TEXT,
	recorded_at     TEXT NOT NULL
)`

// NewSQLiteJournal opens (or creates) a SQLite database at dbPath and
// ensures the orders table exists.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(createOrdersTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating orders table: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// Close closes the underlying database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// RecordOrder appends one acknowledged order to the journal. Re-recording
// the same order ID overwrites the previous row (broker IDs are unique, so
// this only happens on caller retries).
func (j *SQLiteJournal) RecordOrder(ctx context.Context, res domain.OrderResult) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO orders
		(id, client_order_id, symbol, qty, side, type, time_in_force, status,
		 created_at, limit_price, stop_price, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID,
		res.ClientOrderID,
		res.Symbol,
		res.Qty.String(),
		string(res.Side),
		string(res.Type),
		string(res.TimeInForce),
		res.Status,
		res.CreatedAt,
		decimalOrNull(res.LimitPrice),
		decimalOrNull(res.StopPrice),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording order %s: %w", res.ID, err)
	}
	return nil
}

// ListOrders returns up to limit journal entries, most recent first.
func (j *SQLiteJournal) ListOrders(ctx context.Context, limit int) ([]domain.OrderResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, client_order_id, symbol, qty, side, type, time_in_force,
		       status, created_at, limit_price, stop_price
		FROM orders
		ORDER BY recorded_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.OrderResult
	for rows.Next() {
		var res domain.OrderResult
		var qty, side, otype, tif string
		var limitPrice, stopPrice sql.NullString
		if err := rows.Scan(&res.ID, &res.ClientOrderID, &res.Symbol, &qty,
			&side, &otype, &tif, &res.Status, &res.CreatedAt,
			&limitPrice, &stopPrice); err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		d, err := decimal.NewFromString(qty)
		if err != nil {
			return nil, fmt.Errorf("parsing qty %q: %w", qty, err)
		}
		res.Qty = d
		res.Side = domain.Side(side)
		res.Type = domain.OrderType(otype)
		res.TimeInForce = domain.TimeInForce(tif)
		if res.LimitPrice, err = nullDecimal(limitPrice); err != nil {
			return nil, err
		}
		if res.StopPrice, err = nullDecimal(stopPrice); err != nil {
			return nil, err
		}
		orders = append(orders, res)
	}
	return orders, rows.Err()
}

func decimalOrNull(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, fmt.Errorf("parsing price %q: %w", s.String, err)
	}
	return &d, nil
}
