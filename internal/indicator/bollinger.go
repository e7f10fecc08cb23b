package indicator

import (
	"math"

	"github.com/tradecraft-labs/fxstate/internal/types"
)

const (
	defaultBollingerPeriod = 20
	defaultBollingerStd    = 2.0
)

// BollingerBands computes the middle band (SMA of closes) with upper and
// lower bands a configurable number of standard deviations away.
type BollingerBands struct{}

// NewBollingerBands creates a Bollinger bands indicator.
func NewBollingerBands() *BollingerBands {
	return &BollingerBands{}
}

// Name returns the indicator name.
func (b *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Compute emits "middle", "upper" and "lower" values per candle from the
// first full window onward. The standard deviation uses the population
// formula over the window.
func (b *BollingerBands) Compute(candles []types.Candle, params map[string]float64) ([]types.IndicatorValue, error) {
	period, err := periodFrom(params, defaultBollingerPeriod)
	if err != nil {
		return nil, err
	}

	std := defaultBollingerStd
	if raw, ok := params["std"]; ok && raw > 0 {
		std = raw
	}

	if err := requireLength(b.Name(), candles, period); err != nil {
		return nil, err
	}

	values := make([]types.IndicatorValue, 0, 3*(len(candles)-period+1))

	for i := period - 1; i < len(candles); i++ {
		window := candles[i-period+1 : i+1]

		var sum float64
		for _, candle := range window {
			sum += candle.Close
		}

		mean := sum / float64(period)

		var variance float64
		for _, candle := range window {
			diff := candle.Close - mean
			variance += diff * diff
		}

		deviation := math.Sqrt(variance / float64(period))

		ts := candles[i].Time
		values = append(values,
			types.IndicatorValue{Indicator: b.Name(), Parameter: "middle", Time: ts, Value: mean},
			types.IndicatorValue{Indicator: b.Name(), Parameter: "upper", Time: ts, Value: mean + std*deviation},
			types.IndicatorValue{Indicator: b.Name(), Parameter: "lower", Time: ts, Value: mean - std*deviation},
		)
	}

	return values, nil
}
