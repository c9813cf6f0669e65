package ledger

import (
	"fmt"
	"sort"
	"time"
)

// Book maintains at most one open Position per symbol plus an append-only
// per-symbol trade log. It is owned by a single simulation or live loop and
// is not safe for concurrent use.
type Book struct {
	positions map[string]*Position
	trades    map[string][]Trade
}

func NewBook() *Book {
	return &Book{
		positions: make(map[string]*Position),
		trades:    make(map[string][]Trade),
	}
}

// Position returns the open position for a symbol, if any.
func (b *Book) Position(symbol string) (*Position, bool) {
	p, ok := b.positions[symbol]
	return p, ok
}

// Open creates a new position from an opening fill. It fails if a position
// for the symbol is already open.
func (b *Book) Open(symbol string, price float64, volume int64, side Side, ts time.Time, comment string) (Trade, error) {
	if _, ok := b.positions[symbol]; ok {
		return Trade{}, fmt.Errorf("%w: %s", ErrPositionExists, symbol)
	}
	if price <= 0 {
		return Trade{}, fmt.Errorf("%w: %.4f", ErrInvalidPrice, price)
	}
	if volume <= 0 {
		return Trade{}, ErrInvalidVolume
	}

	b.positions[symbol] = &Position{
		Symbol:     symbol,
		Side:       side,
		Volume:     volume,
		AvgPrice:   price,
		OpenTime:   ts,
		LastUpdate: ts,
	}

	t := NewTrade(symbol, side, price, volume, ts, comment)
	b.trades[symbol] = append(b.trades[symbol], t)
	return t, nil
}

// Add applies a same-side fill to the open position.
func (b *Book) Add(t Trade) error {
	p, ok := b.positions[t.Symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPosition, t.Symbol)
	}
	if err := p.Add(t); err != nil {
		return err
	}

	b.trades[t.Symbol] = append(b.trades[t.Symbol], t)
	return nil
}

// Reduce applies an opposite-side fill and returns the trade with its
// realized PnL and return stamped. A fully closed position is removed; a
// flipped one stays open on the new side.
func (b *Book) Reduce(t Trade) (Trade, error) {
	p, ok := b.positions[t.Symbol]
	if !ok {
		return Trade{}, fmt.Errorf("%w: %s", ErrNoPosition, t.Symbol)
	}
	if err := p.Reduce(&t); err != nil {
		return Trade{}, err
	}

	if !p.IsOpen() {
		delete(b.positions, t.Symbol)
	}

	b.trades[t.Symbol] = append(b.trades[t.Symbol], t)
	return t, nil
}

// Trades returns the fill log for one symbol in execution order.
func (b *Book) Trades(symbol string) []Trade {
	return b.trades[symbol]
}

// AllTrades returns every fill across symbols, ordered by execution time.
func (b *Book) AllTrades() []Trade {
	var all []Trade
	for _, ts := range b.trades {
		all = append(all, ts...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Time.Equal(all[j].Time) {
			return all[i].ID < all[j].ID
		}
		return all[i].Time.Before(all[j].Time)
	})
	return all
}

// OpenSymbols returns the symbols with an open position, sorted.
func (b *Book) OpenSymbols() []string {
	var symbols []string
	for s := range b.positions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
