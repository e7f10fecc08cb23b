package indicator

import (
	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

const (
	defaultFastPeriod = 12
	defaultSlowPeriod = 26
)

// MACrossover compares a fast and a slow simple moving average of close
// prices and emits a directional signal.
type MACrossover struct{}

// NewMACrossover creates a moving average crossover indicator.
func NewMACrossover() *MACrossover {
	return &MACrossover{}
}

// Name returns the indicator name.
func (m *MACrossover) Name() types.IndicatorType {
	return types.IndicatorTypeMACrossover
}

// Compute emits one "ma_crossover" value per candle from the first full slow
// window onward: +1 while the fast average is above the slow one, -1
// otherwise. Parameters "fast_period" and "slow_period" override the 12/26
// defaults; the fast period must stay below the slow one.
func (m *MACrossover) Compute(candles []types.Candle, params map[string]float64) ([]types.IndicatorValue, error) {
	fast := defaultFastPeriod
	if raw, ok := params["fast_period"]; ok {
		fast = int(raw)
	}

	slow := defaultSlowPeriod
	if raw, ok := params["slow_period"]; ok {
		slow = int(raw)
	}

	if fast <= 0 || slow <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "periods must be positive, got fast %d slow %d", fast, slow)
	}

	if fast >= slow {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "fast period %d must be below slow period %d", fast, slow)
	}

	if err := requireLength(m.Name(), candles, slow); err != nil {
		return nil, err
	}

	values := make([]types.IndicatorValue, 0, len(candles)-slow+1)

	var fastSum, slowSum float64

	for i, candle := range candles {
		fastSum += candle.Close
		slowSum += candle.Close

		if i >= fast {
			fastSum -= candles[i-fast].Close
		}

		if i >= slow {
			slowSum -= candles[i-slow].Close
		}

		if i < slow-1 {
			continue
		}

		signal := -1.0
		if fastSum/float64(fast)-slowSum/float64(slow) > 0 {
			signal = 1.0
		}

		values = append(values, types.IndicatorValue{
			Indicator: m.Name(),
			Parameter: "ma_crossover",
			Time:      candle.Time,
			Value:     signal,
		})
	}

	return values, nil
}
