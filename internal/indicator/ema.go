package indicator

import (
	"github.com/tradecraft-labs/fxstate/internal/types"
)

const defaultEMAPeriod = 20

// EMA is the exponential moving average of close prices, seeded with the SMA
// of the first window.
type EMA struct{}

// NewEMA creates an EMA indicator.
func NewEMA() *EMA {
	return &EMA{}
}

// Name returns the indicator name.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Compute emits one "ema" value per candle from the first full window onward.
func (e *EMA) Compute(candles []types.Candle, params map[string]float64) ([]types.IndicatorValue, error) {
	period, err := periodFrom(params, defaultEMAPeriod)
	if err != nil {
		return nil, err
	}

	if err := requireLength(e.Name(), candles, period); err != nil {
		return nil, err
	}

	multiplier := 2.0 / (float64(period) + 1.0)

	var seed float64
	for _, candle := range candles[:period] {
		seed += candle.Close
	}

	ema := seed / float64(period)

	values := make([]types.IndicatorValue, 0, len(candles)-period+1)
	values = append(values, types.IndicatorValue{
		Indicator: e.Name(),
		Parameter: "ema",
		Time:      candles[period-1].Time,
		Value:     ema,
	})

	for _, candle := range candles[period:] {
		ema = (candle.Close-ema)*multiplier + ema

		values = append(values, types.IndicatorValue{
			Indicator: e.Name(),
			Parameter: "ema",
			Time:      candle.Time,
			Value:     ema,
		})
	}

	return values, nil
}
