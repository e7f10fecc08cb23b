// Package backtest implements long-only signal backtesting over stored
// candle history, and parameter optimization driven by backtest results.
package backtest

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/indicator"
	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// DefaultInitialBalance is the simulated account balance at the start of a
// run.
var DefaultInitialBalance = decimal.NewFromInt(10000)

// CandleSource loads the candle history a backtest runs over.
type CandleSource interface {
	CandlesFor(ctx context.Context, instrument string, granularity types.Granularity) ([]types.Candle, error)
}

// Trade is one completed round trip.
type Trade struct {
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	Profit     decimal.Decimal
}

// Performance summarizes one backtest run.
type Performance struct {
	TotalReturn decimal.Decimal
	WinRate     decimal.Decimal
	MaxDrawdown decimal.Decimal
	ProfitLoss  decimal.Decimal
	TotalTrades int
	Trades      []Trade
}

// Backtester simulates a close-versus-indicator crossover strategy: enter
// long when the close is above the indicator's signal series, exit when it
// falls below. At most one position is open at a time.
type Backtester struct {
	source  CandleSource
	logger  *logger.Logger
	balance decimal.Decimal
}

// NewBacktester constructs a Backtester with the default initial balance.
func NewBacktester(source CandleSource, logger *logger.Logger) *Backtester {
	return &Backtester{
		source:  source,
		logger:  logger,
		balance: DefaultInitialBalance,
	}
}

// signalParameter names the output series a crossover compares the close
// against, per indicator.
func signalParameter(name types.IndicatorType) string {
	switch name {
	case types.IndicatorTypeSMA:
		return "sma"
	case types.IndicatorTypeEMA:
		return "ema"
	case types.IndicatorTypeRSI:
		return "rsi"
	case types.IndicatorTypeATR:
		return "atr"
	case types.IndicatorTypeBollingerBands:
		return "middle"
	case types.IndicatorTypeVWAP:
		return "vwap"
	case types.IndicatorTypeStochastic:
		return "k"
	default:
		return ""
	}
}

// Run loads the instrument's history, applies the indicator and simulates
// trades over the aligned series.
func (b *Backtester) Run(ctx context.Context, instrument string, granularity types.Granularity, ind indicator.Indicator, params map[string]float64) (Performance, error) {
	candles, err := b.source.CandlesFor(ctx, instrument, granularity)
	if err != nil {
		return Performance{}, err
	}

	if len(candles) == 0 {
		return Performance{}, errors.Newf(errors.ErrCodeBacktestNoData, "no candle history for %s %s", instrument, granularity)
	}

	values, err := ind.Compute(candles, params)
	if err != nil {
		return Performance{}, err
	}

	signal := signalParameter(ind.Name())
	if signal == "" {
		return Performance{}, errors.Newf(errors.ErrCodeBacktestConfigError, "no signal series for indicator %s", ind.Name())
	}

	series := make(map[time.Time]float64, len(values))

	for _, value := range values {
		if value.Parameter == signal {
			series[value.Time] = value.Value
		}
	}

	perf := b.simulate(candles, series)

	b.logger.Info("backtest complete",
		zap.String("instrument", instrument),
		zap.String("granularity", string(granularity)),
		zap.String("indicator", string(ind.Name())),
		zap.Int("trades", perf.TotalTrades),
		zap.String("total_return", perf.TotalReturn.String()))

	return perf, nil
}

func (b *Backtester) simulate(candles []types.Candle, series map[time.Time]float64) Performance {
	var (
		trades     []Trade
		inPosition bool
		entryTime  time.Time
		entryPrice decimal.Decimal
	)

	balance := b.balance
	peak := balance
	maxDrawdown := decimal.Zero

	for _, candle := range candles {
		signal, ok := series[candle.Time]
		if !ok {
			continue
		}

		closePrice := decimal.NewFromFloat(candle.Close)

		if candle.Close > signal && !inPosition {
			inPosition = true
			entryTime = candle.Time
			entryPrice = closePrice
		}

		if candle.Close < signal && inPosition {
			inPosition = false
			profit := closePrice.Sub(entryPrice)
			balance = balance.Add(profit)

			trades = append(trades, Trade{
				EntryTime:  entryTime,
				ExitTime:   candle.Time,
				EntryPrice: entryPrice,
				ExitPrice:  closePrice,
				Profit:     profit,
			})

			if balance.GreaterThan(peak) {
				peak = balance
			}

			if drawdown := peak.Sub(balance); drawdown.GreaterThan(maxDrawdown) {
				maxDrawdown = drawdown
			}
		}
	}

	totalReturn := decimal.Zero

	var wins int
	for _, trade := range trades {
		totalReturn = totalReturn.Add(trade.Profit)

		if trade.Profit.IsPositive() {
			wins++
		}
	}

	winRate := decimal.Zero
	if len(trades) > 0 {
		winRate = decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(len(trades))))
	}

	return Performance{
		TotalReturn: totalReturn,
		WinRate:     winRate,
		MaxDrawdown: maxDrawdown,
		ProfitLoss:  balance.Sub(b.balance),
		TotalTrades: len(trades),
		Trades:      trades,
	}
}
