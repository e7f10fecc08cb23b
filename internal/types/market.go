package types

import (
	"strings"
	"time"
)

// Candle represents one OHLCV bar for an instrument at a given granularity.
// Candles are append-only: once stored they are never mutated.
type Candle struct {
	Instrument  string      `json:"instrument"`
	Granularity Granularity `json:"granularity"`
	// Time is the candle open time in UTC. Unique per (instrument, granularity).
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	// Volume defaults to 0 when the provider omits it.
	Volume float64 `json:"volume"`
}

// Granularity is the candle sampling interval, using provider-style labels.
type Granularity string

const (
	GranularityMinute  Granularity = "M1"
	GranularityHour    Granularity = "H1"
	GranularityDay     Granularity = "D"
	GranularityWeek    Granularity = "W"
	GranularityMonth   Granularity = "M"
)

// Valid reports whether g is a known granularity label.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityMinute, GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}

	return false
}

// Tier is one of the three analysis horizons. Each tier is scored and
// stated independently.
type Tier string

const (
	TierMacro  Tier = "macro"
	TierDaily  Tier = "daily"
	TierMinute Tier = "minute"
)

// AllTiers lists the tiers in gate-evaluation order.
var AllTiers = []Tier{TierMacro, TierDaily, TierMinute}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierMacro, TierDaily, TierMinute:
		return true
	}

	return false
}

// Granularity returns the candle granularity backing a tier's analysis.
func (t Tier) Granularity() Granularity {
	switch t {
	case TierMacro:
		return GranularityMonth
	case TierDaily:
		return GranularityDay
	case TierMinute:
		return GranularityMinute
	default:
		return GranularityDay
	}
}

// State is the discrete trade-readiness classification for one
// (instrument, tier) pair.
type State string

const (
	StateRed    State = "RED"
	StateYellow State = "YELLOW"
	StateGreen  State = "GREEN"
	// StateUnknown is a read-side sentinel for pairs that have never been
	// evaluated. It is not a storable state.
	StateUnknown State = "UNKNOWN"
)

// Valid reports whether s is a storable state. StateUnknown is not.
func (s State) Valid() bool {
	return s == StateRed || s == StateYellow || s == StateGreen
}

// MarketConditions carries the market context used by the state machine's
// transition policy. Absent fields default to zero.
type MarketConditions struct {
	RiskLevel  float64 `json:"risk_level"`
	Volatility float64 `json:"volatility"`
}

// Verdicts maps indicator name to a binary favorable(1)/unfavorable(0)
// classification for a single tier.
type Verdicts map[string]int

// NormalizeSymbol converts a free-form exchange symbol to the canonical
// storage form: uppercase with separators collapsed to a single underscore,
// e.g. "eur/usd" -> "EUR_USD".
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.NewReplacer("/", "_", "-", "_", ".", "_", " ", "_").Replace(s)

	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}

	return s
}
