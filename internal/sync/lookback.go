package sync

import (
	"time"

	"github.com/tradecraft-labs/fxstate/internal/types"
)

const day = 24 * time.Hour

// DefaultLookback is the initial window used the first time a series is
// synchronized, before any candle exists to anchor from.
const DefaultLookback = 30 * day

// MaxLookback caps how far back a sync may reach for a granularity. Finer
// granularities get shorter horizons to keep request volume bounded.
func MaxLookback(granularity types.Granularity) time.Duration {
	switch granularity {
	case types.GranularityMinute:
		return 60 * day
	case types.GranularityHour:
		return 2 * 365 * day
	case types.GranularityDay:
		return 5 * 365 * day
	case types.GranularityWeek, types.GranularityMonth:
		return 10 * 365 * day
	default:
		return DefaultLookback
	}
}

// FetchWindow rounds the elapsed gap since the last stored candle up to the
// nearest standard request window, capped at the granularity's maximum
// lookback. Fetching a slightly wider window than strictly needed is safe:
// duplicate candles are dropped on insert.
func FetchWindow(elapsed time.Duration, granularity types.Granularity) time.Duration {
	max := MaxLookback(granularity)

	buckets := []time.Duration{
		5 * day,
		30 * day,
		60 * day,
		90 * day,
		180 * day,
		365 * day,
		730 * day,
	}

	for _, bucket := range buckets {
		if elapsed <= bucket {
			if bucket > max {
				return max
			}

			return bucket
		}
	}

	return max
}
