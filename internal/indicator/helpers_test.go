package indicator

import (
	"time"

	"github.com/tradecraft-labs/fxstate/internal/types"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// candlesFromCloses builds a daily series where high/low straddle the close.
func candlesFromCloses(closes ...float64) []types.Candle {
	candles := make([]types.Candle, len(closes))

	for i, c := range closes {
		candles[i] = types.Candle{
			Instrument:  "EUR_USD",
			Granularity: types.GranularityDay,
			Time:        testStart.AddDate(0, 0, i),
			Open:        c,
			High:        c + 0.5,
			Low:         c - 0.5,
			Close:       c,
			Volume:      100,
		}
	}

	return candles
}

// valuesFor filters computed values down to one output parameter.
func valuesFor(values []types.IndicatorValue, parameter string) []types.IndicatorValue {
	var filtered []types.IndicatorValue

	for _, v := range values {
		if v.Parameter == parameter {
			filtered = append(filtered, v)
		}
	}

	return filtered
}
