package journal

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	volume INTEGER NOT NULL,
	time DATETIME NOT NULL,
	comment TEXT NOT NULL,
	realized_pnl REAL NOT NULL,
	realized_return REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_symbol_time ON trades(symbol, time);
`
