package indicator

import (
	"github.com/tradecraft-labs/fxstate/internal/types"
)

const defaultSMAPeriod = 20

// SMA is the simple moving average of close prices.
type SMA struct{}

// NewSMA creates an SMA indicator.
func NewSMA() *SMA {
	return &SMA{}
}

// Name returns the indicator name.
func (s *SMA) Name() types.IndicatorType {
	return types.IndicatorTypeSMA
}

// Compute emits one "sma" value per candle from the first full window onward.
func (s *SMA) Compute(candles []types.Candle, params map[string]float64) ([]types.IndicatorValue, error) {
	period, err := periodFrom(params, defaultSMAPeriod)
	if err != nil {
		return nil, err
	}

	if err := requireLength(s.Name(), candles, period); err != nil {
		return nil, err
	}

	values := make([]types.IndicatorValue, 0, len(candles)-period+1)

	var sum float64
	for i, candle := range candles {
		sum += candle.Close

		if i >= period {
			sum -= candles[i-period].Close
		}

		if i >= period-1 {
			values = append(values, types.IndicatorValue{
				Indicator: s.Name(),
				Parameter: "sma",
				Time:      candle.Time,
				Value:     sum / float64(period),
			})
		}
	}

	return values, nil
}
