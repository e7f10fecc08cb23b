package metastore

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// SaveOptimizedParams appends the best-performing parameter set found during
// optimization, one row per parameter.
func (s *Store) SaveOptimizedParams(ctx context.Context, instrumentID, indicatorID int64, params map[string]float64) error {
	now := time.Now().UTC()

	builder := s.sq.
		Insert("optimized_parameters").
		Columns("instrument_id", "indicator_id", "parameter_name", "parameter_value", "timestamp")

	for name, value := range params {
		builder = builder.Values(instrumentID, indicatorID, name, value, now)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "build optimized params insert", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(errors.ErrCodeInsertFailed, err, "save optimized params for instrument %d indicator %d", instrumentID, indicatorID)
	}

	s.logger.Info("optimized parameters saved",
		zap.Int64("instrument_id", instrumentID),
		zap.Int64("indicator_id", indicatorID),
		zap.Int("parameters", len(params)))

	return nil
}

// SaveOptimizationResult appends a backtest performance summary.
func (s *Store) SaveOptimizationResult(ctx context.Context, result types.OptimizationResult) error {
	query, args, err := s.sq.
		Insert("optimization_results").
		Columns("instrument_id", "indicator_id", "total_return", "win_rate", "max_drawdown", "profit_loss", "total_trades", "timestamp").
		Values(
			result.InstrumentID,
			result.IndicatorID,
			result.TotalReturn,
			result.WinRate,
			result.MaxDrawdown,
			result.ProfitLoss,
			result.TotalTrades,
			time.Now().UTC(),
		).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "build optimization result insert", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeInsertFailed, "save optimization result", err)
	}

	return nil
}

// PerformanceRow is one instrument's latest optimization summary, joined
// with its name for API consumption.
type PerformanceRow struct {
	Instrument  string  `json:"instrument"`
	TotalReturn float64 `json:"total_return"`
	WinRate     float64 `json:"win_rate"`
	MaxDrawdown float64 `json:"max_drawdown"`
	ProfitLoss  float64 `json:"profit_loss"`
	TotalTrades int     `json:"total_trades"`
}

// Performance reports optimization results joined with instrument names.
func (s *Store) Performance(ctx context.Context) ([]PerformanceRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.name, r.total_return, r.win_rate, r.max_drawdown, r.profit_loss, r.total_trades
		FROM optimization_results r
		JOIN instruments i ON i.id = r.instrument_id
		ORDER BY r.timestamp DESC
	`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "query performance", err)
	}
	defer rows.Close()

	var results []PerformanceRow

	for rows.Next() {
		var row PerformanceRow
		if err := rows.Scan(&row.Instrument, &row.TotalReturn, &row.WinRate, &row.MaxDrawdown, &row.ProfitLoss, &row.TotalTrades); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "scan performance row", err)
		}

		results = append(results, row)
	}

	return results, rows.Err()
}

// InsertIndicatorResults appends computed indicator values for an instrument.
func (s *Store) InsertIndicatorResults(ctx context.Context, indicatorID, instrumentID int64, values []types.IndicatorValue) error {
	if len(values) == 0 {
		return nil
	}

	builder := s.sq.
		Insert("indicator_results").
		Columns("indicator_id", "instrument_id", "parameter_name", "value", "timestamp")

	for _, v := range values {
		builder = builder.Values(indicatorID, instrumentID, v.Parameter, v.Value, v.Time.UTC())
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "build indicator results insert", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(errors.ErrCodeInsertFailed, err, "insert %d indicator results", len(values))
	}

	return nil
}
