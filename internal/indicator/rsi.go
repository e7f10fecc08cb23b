package indicator

import (
	"github.com/tradecraft-labs/fxstate/internal/types"
)

const defaultRSIPeriod = 14

// RSI is the relative strength index over close-to-close changes, using a
// simple rolling mean of gains and losses.
type RSI struct{}

// NewRSI creates an RSI indicator.
func NewRSI() *RSI {
	return &RSI{}
}

// Name returns the indicator name.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Compute emits one "rsi" value per candle once a full window of price
// changes exists. A flat series with no losses reads as 100.
func (r *RSI) Compute(candles []types.Candle, params map[string]float64) ([]types.IndicatorValue, error) {
	period, err := periodFrom(params, defaultRSIPeriod)
	if err != nil {
		return nil, err
	}

	// The first price change needs two candles, so a full window needs
	// period+1 candles.
	if err := requireLength(r.Name(), candles, period+1); err != nil {
		return nil, err
	}

	gains := make([]float64, len(candles))
	losses := make([]float64, len(candles))

	for i := 1; i < len(candles); i++ {
		delta := candles[i].Close - candles[i-1].Close
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	values := make([]types.IndicatorValue, 0, len(candles)-period)

	var gainSum, lossSum float64
	for i := 1; i < len(candles); i++ {
		gainSum += gains[i]
		lossSum += losses[i]

		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}

		if i < period {
			continue
		}

		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		rsi := 100.0
		if avgLoss > 0 {
			rs := avgGain / avgLoss
			rsi = 100.0 - (100.0 / (1.0 + rs))
		}

		values = append(values, types.IndicatorValue{
			Indicator: r.Name(),
			Parameter: "rsi",
			Time:      candles[i].Time,
			Value:     rsi,
		})
	}

	return values, nil
}
