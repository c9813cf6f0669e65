// Package journal persists the ledger's trade log to SQLite, an append-only
// audit trail that outlives a backtest or live session.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lefterisnazos/intraday-trader/internal/ledger"
)

type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at path and ensures the schema
// exists.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record inserts one trade. Trade ids are unique, so replaying the same
// trade fails rather than duplicating the audit trail.
func (j *Journal) Record(t ledger.Trade) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, side, price, volume, time, comment, realized_pnl, realized_return)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Symbol, string(t.Side), t.Price, t.Volume, t.Time.UTC(), t.Comment, t.RealizedPnL, t.RealizedReturn,
	)
	if err != nil {
		return fmt.Errorf("inserting trade %s: %w", t.ID, err)
	}
	return nil
}

// BySymbol returns a symbol's trades ordered by time.
func (j *Journal) BySymbol(symbol string) ([]ledger.Trade, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, side, price, volume, time, comment, realized_pnl, realized_return
		FROM trades WHERE symbol = ? ORDER BY time, trade_id`, symbol)
	if err != nil {
		return nil, fmt.Errorf("querying trades for %s: %w", symbol, err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// Between returns all trades with time in [start, end], ordered by time.
func (j *Journal) Between(start, end time.Time) ([]ledger.Trade, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, side, price, volume, time, comment, realized_pnl, realized_return
		FROM trades WHERE time >= ? AND time <= ? ORDER BY time, trade_id`, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying trades in range: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func scanTrades(rows *sql.Rows) ([]ledger.Trade, error) {
	var trades []ledger.Trade
	for rows.Next() {
		var t ledger.Trade
		var side string
		if err := rows.Scan(&t.ID, &t.Symbol, &side, &t.Price, &t.Volume, &t.Time, &t.Comment, &t.RealizedPnL, &t.RealizedReturn); err != nil {
			return nil, fmt.Errorf("scanning trade row: %w", err)
		}
		t.Side = ledger.Side(side)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trade rows: %w", err)
	}
	return trades, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
