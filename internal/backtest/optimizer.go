package backtest

import (
	"context"

	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/indicator"
	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// ResultStore persists optimization outcomes.
type ResultStore interface {
	GetOrCreateInstrumentID(ctx context.Context, name string) (int64, error)
	GetOrCreateIndicatorID(ctx context.Context, name types.IndicatorType, category types.IndicatorCategory) (int64, error)
	SaveOptimizedParams(ctx context.Context, instrumentID, indicatorID int64, params map[string]float64) error
	SaveOptimizationResult(ctx context.Context, result types.OptimizationResult) error
}

// Optimizer grid-searches indicator parameters by total return. Each
// parameter set is backtested independently; the best set and its run
// summary are persisted.
type Optimizer struct {
	backtester *Backtester
	registry   *indicator.Registry
	store      ResultStore
	logger     *logger.Logger
}

// NewOptimizer constructs an Optimizer.
func NewOptimizer(backtester *Backtester, registry *indicator.Registry, store ResultStore, logger *logger.Logger) *Optimizer {
	return &Optimizer{
		backtester: backtester,
		registry:   registry,
		store:      store,
		logger:     logger,
	}
}

// BestRun is the winning parameter set of one optimization.
type BestRun struct {
	Params      map[string]float64
	Performance Performance
}

// Optimize backtests every parameter set for an indicator on one series and
// persists the best-performing one. Individual failing runs are logged and
// skipped; the optimization fails only when no run succeeds.
func (o *Optimizer) Optimize(ctx context.Context, instrument string, granularity types.Granularity, name types.IndicatorType, category types.IndicatorCategory, grid []map[string]float64) (BestRun, error) {
	if len(grid) == 0 {
		return BestRun{}, errors.New(errors.ErrCodeOptimizationFailed, "empty parameter grid")
	}

	ind, err := o.registry.Get(name)
	if err != nil {
		return BestRun{}, err
	}

	var best *BestRun

	for _, params := range grid {
		perf, err := o.backtester.Run(ctx, instrument, granularity, ind, params)
		if err != nil {
			o.logger.Warn("optimization run failed",
				zap.String("indicator", string(name)),
				zap.Any("params", params),
				zap.Error(err))

			continue
		}

		if best == nil || perf.TotalReturn.GreaterThan(best.Performance.TotalReturn) {
			best = &BestRun{Params: params, Performance: perf}
		}
	}

	if best == nil {
		return BestRun{}, errors.Newf(errors.ErrCodeOptimizationFailed, "no parameter set produced a valid run for %s on %s", name, instrument)
	}

	if err := o.persist(ctx, instrument, name, category, *best); err != nil {
		return BestRun{}, err
	}

	o.logger.Info("optimization complete",
		zap.String("instrument", instrument),
		zap.String("indicator", string(name)),
		zap.Any("best_params", best.Params),
		zap.String("total_return", best.Performance.TotalReturn.String()))

	return *best, nil
}

func (o *Optimizer) persist(ctx context.Context, instrument string, name types.IndicatorType, category types.IndicatorCategory, best BestRun) error {
	instrumentID, err := o.store.GetOrCreateInstrumentID(ctx, instrument)
	if err != nil {
		return err
	}

	indicatorID, err := o.store.GetOrCreateIndicatorID(ctx, name, category)
	if err != nil {
		return err
	}

	if err := o.store.SaveOptimizedParams(ctx, instrumentID, indicatorID, best.Params); err != nil {
		return err
	}

	totalReturn, _ := best.Performance.TotalReturn.Float64()
	winRate, _ := best.Performance.WinRate.Float64()
	maxDrawdown, _ := best.Performance.MaxDrawdown.Float64()
	profitLoss, _ := best.Performance.ProfitLoss.Float64()

	return o.store.SaveOptimizationResult(ctx, types.OptimizationResult{
		InstrumentID: instrumentID,
		IndicatorID:  indicatorID,
		TotalReturn:  totalReturn,
		WinRate:      winRate,
		MaxDrawdown:  maxDrawdown,
		ProfitLoss:   profitLoss,
		TotalTrades:  best.Performance.TotalTrades,
	})
}
