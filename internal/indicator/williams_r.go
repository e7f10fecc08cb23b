package indicator

import (
	"github.com/tradecraft-labs/fxstate/internal/types"
)

const defaultWilliamsRPeriod = 14

// WilliamsR is the Williams %R oscillator: the close positioned within the
// rolling high-low range, scaled to [-100, 0].
type WilliamsR struct{}

// NewWilliamsR creates a Williams %R indicator.
func NewWilliamsR() *WilliamsR {
	return &WilliamsR{}
}

// Name returns the indicator name.
func (w *WilliamsR) Name() types.IndicatorType {
	return types.IndicatorTypeWilliamsR
}

// Compute emits one "williams_r" value per candle from the first full window
// onward. A flat high-low range reads as 0.
func (w *WilliamsR) Compute(candles []types.Candle, params map[string]float64) ([]types.IndicatorValue, error) {
	period, err := periodFrom(params, defaultWilliamsRPeriod)
	if err != nil {
		return nil, err
	}

	if err := requireLength(w.Name(), candles, period); err != nil {
		return nil, err
	}

	values := make([]types.IndicatorValue, 0, len(candles)-period+1)

	for i := period - 1; i < len(candles); i++ {
		window := candles[i-period+1 : i+1]

		highest := window[0].High
		lowest := window[0].Low

		for _, candle := range window[1:] {
			if candle.High > highest {
				highest = candle.High
			}

			if candle.Low < lowest {
				lowest = candle.Low
			}
		}

		var r float64
		if highest > lowest {
			r = (highest - candles[i].Close) / (highest - lowest) * -100
		}

		values = append(values, types.IndicatorValue{
			Indicator: w.Name(),
			Parameter: "williams_r",
			Time:      candles[i].Time,
			Value:     r,
		})
	}

	return values, nil
}
