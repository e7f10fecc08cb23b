package types

import "time"

// Instrument is a tradable symbol registered in the metadata store.
// Instruments are auto-registered on first reference and never deleted in
// normal operation; only the session times may change after creation.
type Instrument struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	OpeningTime string `json:"opening_time"`
	ClosingTime string `json:"closing_time"`
}

// IndicatorType identifies a technical indicator by name.
type IndicatorType string

const (
	IndicatorTypeSMA            IndicatorType = "SMA"
	IndicatorTypeEMA            IndicatorType = "EMA"
	IndicatorTypeRSI            IndicatorType = "RSI"
	IndicatorTypeATR            IndicatorType = "ATR"
	IndicatorTypeBollingerBands IndicatorType = "BollingerBands"
	IndicatorTypeStochastic     IndicatorType = "Stochastic"
	IndicatorTypeVWAP           IndicatorType = "VWAP"
	IndicatorTypeOBV            IndicatorType = "OBV"
	IndicatorTypeWilliamsR      IndicatorType = "WilliamsR"
	IndicatorTypeMACrossover    IndicatorType = "MACrossover"
)

// IndicatorCategory classifies an indicator by the market property it measures.
type IndicatorCategory string

const (
	IndicatorCategoryTrend      IndicatorCategory = "trend"
	IndicatorCategoryMomentum   IndicatorCategory = "momentum"
	IndicatorCategoryVolatility IndicatorCategory = "volatility"
)

// IndicatorDefinition is the static registration of an indicator in the
// metadata store. Definitions come from configuration and are not mutable at
// runtime.
type IndicatorDefinition struct {
	ID       int64             `json:"id"`
	Name     IndicatorType     `json:"name"`
	Category IndicatorCategory `json:"category"`
}

// IndicatorValue is one computed indicator output for one timestamp.
// Multi-output indicators (e.g. Bollinger bands) emit one value per
// parameter name per timestamp.
type IndicatorValue struct {
	Indicator IndicatorType `json:"indicator"`
	Parameter string        `json:"parameter"`
	Time      time.Time     `json:"time"`
	Value     float64       `json:"value"`
}

// InstrumentState is the persisted trade-readiness row for one
// (instrument, tier) pair. At most one row exists per pair.
type InstrumentState struct {
	InstrumentID int64     `json:"instrument_id"`
	Tier         Tier      `json:"tier"`
	State        State     `json:"state"`
	LastUpdated  time.Time `json:"last_updated"`
}

// OptimizationResult summarizes one backtest run during parameter
// optimization.
type OptimizationResult struct {
	InstrumentID int64   `json:"instrument_id"`
	IndicatorID  int64   `json:"indicator_id"`
	TotalReturn  float64 `json:"total_return"`
	WinRate      float64 `json:"win_rate"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	ProfitLoss   float64 `json:"profit_loss"`
	TotalTrades  int     `json:"total_trades"`
}
