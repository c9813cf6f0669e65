package strategy

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/lefterisnazos/intraday-trader/internal/ledger"
	"github.com/lefterisnazos/intraday-trader/internal/market"
	"github.com/lefterisnazos/intraday-trader/internal/platform"
	"github.com/lefterisnazos/intraday-trader/internal/sim"
)

type ORBConfig struct {
	Start time.Time
	End   time.Time
	// TopGappers is how many of the highest overnight gappers trade each
	// date.
	TopGappers int
	// AvVolWindow is the trailing daily-volume window behind the
	// breakout volume threshold.
	AvVolWindow int
	// TakeProfit and StopLoss are fractions applied to the opening-range
	// high and low.
	TakeProfit float64
	StopLoss   float64
	// BarsPerSession spreads the daily average volume over the session;
	// 78 five-minute bars for US equities.
	BarsPerSession float64
	Interval       time.Duration
	Sim            sim.Config
}

func DefaultORBConfig(start, end time.Time) ORBConfig {
	return ORBConfig{
		Start:          start,
		End:            end,
		TopGappers:     5,
		AvVolWindow:    5,
		TakeProfit:     0.05,
		StopLoss:       0.02,
		BarsPerSession: 78,
		Interval:       5 * time.Minute,
		Sim:            sim.DefaultConfig(),
	}
}

// OpenRangeBreakout trades breakouts of the session's first-bar range on
// the day's top gap movers, gated by a volume spike on the preceding bar.
type OpenRangeBreakout struct {
	log  *slog.Logger
	cfg  ORBConfig
	data market.DailyData
}

func NewOpenRangeBreakout(cfg ORBConfig, log *slog.Logger) *OpenRangeBreakout {
	return &OpenRangeBreakout{log: log, cfg: cfg}
}

func (s *OpenRangeBreakout) Prepare(ctx context.Context, src platform.HistoricalData, symbols []string) (market.DailyData, error) {
	data, err := fetchDaily(ctx, src, symbols, s.cfg.Start, s.cfg.End, s.cfg.AvVolWindow, s.log)
	if err != nil {
		return nil, err
	}
	s.data = data
	return data, nil
}

// Universe ranks the date's symbols by overnight gap, descending, and keeps
// the top movers. Symbols without a daily bar that date are simply absent.
func (s *OpenRangeBreakout) Universe(date string, data market.DailyData) []string {
	type gapper struct {
		symbol string
		gap    float64
	}

	var ranked []gapper
	for _, symbol := range data.SymbolsOn(date) {
		day, _ := data[symbol].OnDate(date)
		ranked = append(ranked, gapper{symbol: symbol, gap: day.Gap})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].gap > ranked[j].gap })
	if len(ranked) > s.cfg.TopGappers {
		ranked = ranked[:s.cfg.TopGappers]
	}

	symbols := make([]string, len(ranked))
	for i, g := range ranked {
		symbols[i] = g.symbol
	}
	return symbols
}

func (s *OpenRangeBreakout) SimulateDay(symbol, date string, bars []market.Bar, book *ledger.Book) (float64, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	day, ok := s.data[symbol].OnDate(date)
	if !ok || day.AvVol <= 0 {
		return 0, nil
	}

	plan := &orbPlan{
		hi:           bars[0].High,
		lo:           bars[0].Low,
		volThreshold: 2 * day.AvVol / s.cfg.BarsPerSession,
		tp:           s.cfg.TakeProfit,
		sl:           s.cfg.StopLoss,
	}

	res, err := sim.Run(book, symbol, bars, plan, s.cfg.Sim)
	if err != nil {
		return 0, err
	}
	return res.Return, nil
}

func (s *OpenRangeBreakout) Interval() time.Duration {
	return s.cfg.Interval
}

// orbPlan carries one session's opening range. An entry needs the previous
// bar's volume above the threshold and the current bar beyond the range;
// exits anchor on the range levels, profit target checked first.
type orbPlan struct {
	hi           float64
	lo           float64
	volThreshold float64
	tp           float64
	sl           float64
}

func (p *orbPlan) Entry(prev *market.Bar, cur market.Bar) (sim.Entry, bool) {
	// The first bar defines the range; it can never trigger an entry.
	if prev == nil || prev.Volume <= p.volThreshold {
		return sim.Entry{}, false
	}
	if cur.High > p.hi {
		return sim.Entry{Side: ledger.Buy, Comment: "long breakout"}, true
	}
	if cur.Low < p.lo {
		return sim.Entry{Side: ledger.Sell, Comment: "short breakout"}, true
	}
	return sim.Entry{}, false
}

func (p *orbPlan) Exit(side ledger.Side, cur market.Bar) (sim.Exit, bool) {
	if side == ledger.Buy {
		if tp := p.hi * (1 + p.tp); cur.High >= tp {
			return sim.Exit{Price: tp, Comment: "take profit"}, true
		}
		if sl := p.lo * (1 - p.sl); cur.Low <= sl {
			return sim.Exit{Price: sl, Comment: "stop loss"}, true
		}
		return sim.Exit{}, false
	}

	if tp := p.lo * (1 - p.tp); cur.Low <= tp {
		return sim.Exit{Price: tp, Comment: "take profit"}, true
	}
	if sl := p.hi * (1 + p.sl); cur.High >= sl {
		return sim.Exit{Price: sl, Comment: "stop loss"}, true
	}
	return sim.Exit{}, false
}
