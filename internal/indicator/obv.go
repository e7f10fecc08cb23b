package indicator

import (
	"github.com/tradecraft-labs/fxstate/internal/types"
)

// OBV is on-balance volume: a running total that adds the candle volume on an
// up close, subtracts it on a down close and carries over on a flat close.
type OBV struct{}

// NewOBV creates an OBV indicator.
func NewOBV() *OBV {
	return &OBV{}
}

// Name returns the indicator name.
func (o *OBV) Name() types.IndicatorType {
	return types.IndicatorTypeOBV
}

// Compute emits one "obv" value per candle; the first candle reads as 0.
func (o *OBV) Compute(candles []types.Candle, _ map[string]float64) ([]types.IndicatorValue, error) {
	if err := requireLength(o.Name(), candles, 1); err != nil {
		return nil, err
	}

	values := make([]types.IndicatorValue, 0, len(candles))

	var obv float64

	for i, candle := range candles {
		if i > 0 {
			switch {
			case candle.Close > candles[i-1].Close:
				obv += candle.Volume
			case candle.Close < candles[i-1].Close:
				obv -= candle.Volume
			}
		}

		values = append(values, types.IndicatorValue{
			Indicator: o.Name(),
			Parameter: "obv",
			Time:      candle.Time,
			Value:     obv,
		})
	}

	return values, nil
}
