// Package ledger implements the position and trade bookkeeping every
// strategy variant shares: volume-weighted average entry price, realized
// PnL on reduction and side flips when a reducing trade overshoots the
// open volume.
package ledger

import (
	"errors"
	"fmt"
	"time"
)

type Side string

const (
	Buy  Side = "B"
	Sell Side = "S"
)

func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Invariant violations indicate a logic bug in the caller and always fail
// loudly; nothing here is silently coerced.
var (
	ErrPositionExists = errors.New("ledger: position already open for symbol")
	ErrNoPosition     = errors.New("ledger: no open position for symbol")
	ErrSideMismatch   = errors.New("ledger: trade side violates position side")
	ErrSymbolMismatch = errors.New("ledger: trade symbol does not match position")
	ErrInvalidPrice   = errors.New("ledger: price must be positive")
	ErrInvalidVolume  = errors.New("ledger: volume must be positive")
)

// Trade is an immutable record of one fill. RealizedPnL and RealizedReturn
// are stamped once, when the trade reduces a position; the record is never
// mutated afterwards.
type Trade struct {
	ID             string
	Symbol         string
	Side           Side
	Price          float64
	Volume         int64
	Time           time.Time
	Comment        string
	RealizedPnL    float64
	RealizedReturn float64
}

// NewTrade creates a fill record with a fresh time-sortable id.
func NewTrade(symbol string, side Side, price float64, volume int64, ts time.Time, comment string) Trade {
	return Trade{
		ID:      NewID(),
		Symbol:  symbol,
		Side:    side,
		Price:   price,
		Volume:  volume,
		Time:    ts,
		Comment: comment,
	}
}

func (t Trade) String() string {
	return fmt.Sprintf("Trade(%s, %s, vol=%d, px=%.2f, pnl=%.2f, ret=%.4f)",
		t.Symbol, t.Side, t.Volume, t.Price, t.RealizedPnL, t.RealizedReturn)
}

// Position is an open directional stake in one symbol. Volume stays positive
// while open; the side only changes on a flip.
type Position struct {
	Symbol     string
	Side       Side
	Volume     int64
	AvgPrice   float64
	OpenTime   time.Time
	LastUpdate time.Time
}

func (p *Position) IsOpen() bool {
	return p.Volume > 0
}

// Add applies a same-side fill: the average price becomes the volume-weighted
// mean of the old position and the new fill.
func (p *Position) Add(t Trade) error {
	if t.Symbol != p.Symbol {
		return fmt.Errorf("%w: position %s, trade %s", ErrSymbolMismatch, p.Symbol, t.Symbol)
	}
	if t.Side != p.Side {
		return fmt.Errorf("%w: cannot add %s trade to %s position", ErrSideMismatch, t.Side, p.Side)
	}
	if t.Volume <= 0 {
		return ErrInvalidVolume
	}
	if t.Price <= 0 {
		return ErrInvalidPrice
	}

	newVol := p.Volume + t.Volume
	p.AvgPrice = (p.AvgPrice*float64(p.Volume) + t.Price*float64(t.Volume)) / float64(newVol)
	p.Volume = newVol
	p.LastUpdate = t.Time
	return nil
}

// Reduce applies an opposite-side fill, stamping the trade's realized PnL and
// return. When the fill volume exceeds the open volume the position flips:
// the leftover becomes a new position on the trade's side at the trade price.
func (p *Position) Reduce(t *Trade) error {
	if t.Symbol != p.Symbol {
		return fmt.Errorf("%w: position %s, trade %s", ErrSymbolMismatch, p.Symbol, t.Symbol)
	}
	if t.Side == p.Side {
		return fmt.Errorf("%w: cannot reduce %s position with %s trade", ErrSideMismatch, p.Side, t.Side)
	}
	if t.Volume <= 0 {
		return ErrInvalidVolume
	}
	if p.AvgPrice <= 0 {
		return fmt.Errorf("%w: average price %.4f", ErrInvalidPrice, p.AvgPrice)
	}

	matched := min(p.Volume, t.Volume)
	var pnl float64
	if p.Side == Buy {
		pnl = (t.Price - p.AvgPrice) * float64(matched)
	} else {
		pnl = (p.AvgPrice - t.Price) * float64(matched)
	}

	t.RealizedPnL = pnl
	t.RealizedReturn = pnl / (p.AvgPrice * float64(matched))

	if t.Volume > p.Volume {
		// Side flip: leftover volume opens the opposite way at the
		// fill price.
		p.Side = t.Side
		p.AvgPrice = t.Price
		p.Volume = t.Volume - p.Volume
	} else {
		p.Volume -= t.Volume
	}

	p.LastUpdate = t.Time
	return nil
}
