// Package sim drives one symbol through one session's intraday bars: a
// FLAT -> OPEN -> FLAT state machine that asks a strategy-supplied plan for
// entries and exits and books every fill through the ledger.
package sim

import (
	"fmt"
	"time"

	"github.com/lefterisnazos/intraday-trader/internal/ledger"
	"github.com/lefterisnazos/intraday-trader/internal/market"
)

// Entry is a plan's decision to open exposure at the current bar.
type Entry struct {
	Side    ledger.Side
	Comment string
}

// Exit is a plan's decision to close at a strategy-anchored price.
type Exit struct {
	Price   float64
	Comment string
}

// Plan supplies the entry and exit rules for one symbol on one session.
// Exit must check take-profit before stop-loss.
type Plan interface {
	// Entry inspects the current bar while flat. prev is nil on the
	// session's first bar.
	Entry(prev *market.Bar, cur market.Bar) (Entry, bool)
	// Exit inspects the current bar while a position is open.
	Exit(side ledger.Side, cur market.Bar) (Exit, bool)
}

type Config struct {
	// Volume is the fill size for each entry.
	Volume int64
	// EntryWeight interpolates the entry fill between the triggering
	// bar's open and its extreme: w*open + (1-w)*high for longs,
	// w*open + (1-w)*low for shorts.
	EntryWeight float64
	// ForceFlatAtClose closes a position still open on the session's
	// last bar at that bar's close. When false the position is carried
	// into the next session and the floating return is reported.
	ForceFlatAtClose bool
}

func DefaultConfig() Config {
	return Config{Volume: 100, EntryWeight: 0.8, ForceFlatAtClose: true}
}

// Result is the outcome for one symbol/session.
type Result struct {
	Return   float64
	Realized bool // false when the session ended with floating or carried exposure
}

// EntryPrice applies the slippage interpolation for an entry on the given bar.
func EntryPrice(b market.Bar, side ledger.Side, weight float64) float64 {
	if side == ledger.Buy {
		return weight*b.Open + (1-weight)*b.High
	}
	return weight*b.Open + (1-weight)*b.Low
}

// Run steps through the session's bars. While flat it evaluates the plan's
// entry predicate; while open it checks exits each bar (take-profit first by
// plan contract) and otherwise tracks the floating return. The loop ends
// early once a position opened this session is closed.
func Run(book *ledger.Book, symbol string, bars []market.Bar, plan Plan, cfg Config) (Result, error) {
	if cfg.Volume <= 0 {
		return Result{}, ledger.ErrInvalidVolume
	}
	if len(bars) == 0 {
		return Result{}, nil
	}

	floating := 0.0

	for i := range bars {
		cur := bars[i]

		pos, open := book.Position(symbol)
		if !open {
			var prev *market.Bar
			if i > 0 {
				prev = &bars[i-1]
			}

			e, ok := plan.Entry(prev, cur)
			if !ok {
				continue
			}

			price := EntryPrice(cur, e.Side, cfg.EntryWeight)
			if _, err := book.Open(symbol, price, cfg.Volume, e.Side, cur.Time, e.Comment); err != nil {
				return Result{}, fmt.Errorf("opening %s: %w", symbol, err)
			}
			pos, _ = book.Position(symbol)
		}

		// Exit check runs on the entry bar too, matching the
		// strategies' intraday behavior.
		if x, ok := plan.Exit(pos.Side, cur); ok {
			t, err := book.Reduce(ledger.NewTrade(symbol, pos.Side.Opposite(), x.Price, pos.Volume, cur.Time, x.Comment))
			if err != nil {
				return Result{}, fmt.Errorf("closing %s: %w", symbol, err)
			}
			return Result{Return: t.RealizedReturn, Realized: true}, nil
		}

		f, err := floatingReturn(pos, cur.Close)
		if err != nil {
			return Result{}, err
		}
		floating = f
	}

	pos, open := book.Position(symbol)
	if !open {
		return Result{}, nil
	}

	if cfg.ForceFlatAtClose {
		last := bars[len(bars)-1]
		t, err := book.Reduce(ledger.NewTrade(symbol, pos.Side.Opposite(), last.Close, pos.Volume, last.Time, "session close"))
		if err != nil {
			return Result{}, fmt.Errorf("flattening %s: %w", symbol, err)
		}
		return Result{Return: t.RealizedReturn, Realized: true}, nil
	}

	return Result{Return: floating}, nil
}

func floatingReturn(p *ledger.Position, close float64) (float64, error) {
	if p.AvgPrice <= 0 {
		return 0, fmt.Errorf("%w: average price %.4f", ledger.ErrInvalidPrice, p.AvgPrice)
	}
	if p.Side == ledger.Buy {
		return close/p.AvgPrice - 1, nil
	}
	return 1 - close/p.AvgPrice, nil
}

// Bar is a convenience constructor used by tests and strategies that build
// synthetic sessions.
func Bar(ts time.Time, o, h, l, c, v float64) market.Bar {
	return market.Bar{Time: ts, Open: o, High: h, Low: l, Close: c, Volume: v}
}
