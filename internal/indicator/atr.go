package indicator

import (
	"math"

	"github.com/tradecraft-labs/fxstate/internal/types"
)

const defaultATRPeriod = 14

// ATR is the average true range: a simple rolling mean of the true range,
// where the true range folds in the gap from the previous close.
type ATR struct{}

// NewATR creates an ATR indicator.
func NewATR() *ATR {
	return &ATR{}
}

// Name returns the indicator name.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Compute emits one "atr" value per candle from the first full window onward.
func (a *ATR) Compute(candles []types.Candle, params map[string]float64) ([]types.IndicatorValue, error) {
	period, err := periodFrom(params, defaultATRPeriod)
	if err != nil {
		return nil, err
	}

	if err := requireLength(a.Name(), candles, period); err != nil {
		return nil, err
	}

	trueRanges := make([]float64, len(candles))

	for i, candle := range candles {
		tr := candle.High - candle.Low

		if i > 0 {
			prevClose := candles[i-1].Close
			tr = math.Max(tr, math.Abs(candle.High-prevClose))
			tr = math.Max(tr, math.Abs(candle.Low-prevClose))
		}

		trueRanges[i] = tr
	}

	values := make([]types.IndicatorValue, 0, len(candles)-period+1)

	var sum float64
	for i, tr := range trueRanges {
		sum += tr

		if i >= period {
			sum -= trueRanges[i-period]
		}

		if i >= period-1 {
			values = append(values, types.IndicatorValue{
				Indicator: a.Name(),
				Parameter: "atr",
				Time:      candles[i].Time,
				Value:     sum / float64(period),
			})
		}
	}

	return values, nil
}
