package indicator

import (
	"github.com/tradecraft-labs/fxstate/internal/types"
)

// VWAP is the volume weighted average price: the cumulative typical price
// (average of high, low and close) weighted by volume over the whole series.
type VWAP struct{}

// NewVWAP creates a VWAP indicator.
func NewVWAP() *VWAP {
	return &VWAP{}
}

// Name returns the indicator name.
func (v *VWAP) Name() types.IndicatorType {
	return types.IndicatorTypeVWAP
}

// Compute emits one "vwap" value per candle. Candles before any volume has
// accumulated read as 0.
func (v *VWAP) Compute(candles []types.Candle, _ map[string]float64) ([]types.IndicatorValue, error) {
	if err := requireLength(v.Name(), candles, 1); err != nil {
		return nil, err
	}

	values := make([]types.IndicatorValue, 0, len(candles))

	var weightedSum, volumeSum float64

	for _, candle := range candles {
		typical := (candle.High + candle.Low + candle.Close) / 3
		weightedSum += typical * candle.Volume
		volumeSum += candle.Volume

		var vwap float64
		if volumeSum > 0 {
			vwap = weightedSum / volumeSum
		}

		values = append(values, types.IndicatorValue{
			Indicator: v.Name(),
			Parameter: "vwap",
			Time:      candle.Time,
			Value:     vwap,
		})
	}

	return values, nil
}
