// Package indicator implements the technical indicators used for tier
// scoring and backtesting. Each indicator computes values over a closed
// candle series; outputs are aligned to candle open times.
package indicator

import (
	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// Indicator computes one technical indicator over a candle series.
type Indicator interface {
	// Name returns the indicator's registered name.
	Name() types.IndicatorType
	// Compute returns one value per output parameter per candle once enough
	// history has accumulated. A series shorter than the configured period
	// yields an InsufficientDataError.
	Compute(candles []types.Candle, params map[string]float64) ([]types.IndicatorValue, error)
}

// periodFrom reads the "period" parameter, falling back to the indicator's
// default. Non-positive periods are rejected.
func periodFrom(params map[string]float64, fallback int) (int, error) {
	period := fallback

	if raw, ok := params["period"]; ok {
		period = int(raw)
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be positive, got %d", period)
	}

	return period, nil
}

// requireLength enforces the minimum series length for a computation.
func requireLength(name types.IndicatorType, candles []types.Candle, period int) error {
	if len(candles) < period {
		return errors.NewInsufficientDataErrorf(period, len(candles), "",
			"%s requires %d candles, got %d", name, period, len(candles))
	}

	return nil
}
