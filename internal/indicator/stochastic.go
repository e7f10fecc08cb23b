package indicator

import (
	"github.com/tradecraft-labs/fxstate/internal/types"
)

const (
	defaultStochasticPeriod = 14
	stochasticSignalPeriod  = 3
)

// Stochastic is the stochastic oscillator: %K positions the close within the
// rolling high-low range, %D is a 3-period SMA of %K.
type Stochastic struct{}

// NewStochastic creates a stochastic oscillator indicator.
func NewStochastic() *Stochastic {
	return &Stochastic{}
}

// Name returns the indicator name.
func (s *Stochastic) Name() types.IndicatorType {
	return types.IndicatorTypeStochastic
}

// Compute emits "k" per candle from the first full window onward, and "d"
// once three %K values exist. A flat high-low range reads %K as 0.
func (s *Stochastic) Compute(candles []types.Candle, params map[string]float64) ([]types.IndicatorValue, error) {
	period, err := periodFrom(params, defaultStochasticPeriod)
	if err != nil {
		return nil, err
	}

	if err := requireLength(s.Name(), candles, period); err != nil {
		return nil, err
	}

	kValues := make([]float64, 0, len(candles)-period+1)
	values := make([]types.IndicatorValue, 0, 2*(len(candles)-period+1))

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

		var k float64
		if highest > lowest {
			k = 100.0 * (candles[i].Close - lowest) / (highest - lowest)
		}

		kValues = append(kValues, k)

		ts := candles[i].Time
		values = append(values, types.IndicatorValue{
			Indicator: s.Name(),
			Parameter: "k",
			Time:      ts,
			Value:     k,
		})

		if len(kValues) >= stochasticSignalPeriod {
			var sum float64
			for _, v := range kValues[len(kValues)-stochasticSignalPeriod:] {
				sum += v
			}

			values = append(values, types.IndicatorValue{
				Indicator: s.Name(),
				Parameter: "d",
				Time:      ts,
				Value:     sum / float64(stochasticSignalPeriod),
			})
		}
	}

	return values, nil
}
