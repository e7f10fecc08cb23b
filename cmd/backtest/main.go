package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tradecraft-labs/fxstate/internal/backtest"
	"github.com/tradecraft-labs/fxstate/internal/config"
	"github.com/tradecraft-labs/fxstate/internal/indicator"
	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/store/metastore"
	"github.com/tradecraft-labs/fxstate/internal/types"
)

// defaultGrids holds the parameter combinations tried per indicator when
// optimizing.
var defaultGrids = map[types.IndicatorType][]map[string]float64{
	types.IndicatorTypeSMA: {{"period": 10}, {"period": 20}, {"period": 30}},
	types.IndicatorTypeEMA: {{"period": 10}, {"period": 20}, {"period": 30}},
	types.IndicatorTypeRSI: {{"period": 14}, {"period": 20}},
}

var indicatorCategories = map[types.IndicatorType]types.IndicatorCategory{
	types.IndicatorTypeSMA: types.IndicatorCategoryTrend,
	types.IndicatorTypeEMA: types.IndicatorCategoryTrend,
	types.IndicatorTypeRSI: types.IndicatorCategoryMomentum,
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	l, err := logger.NewLogger()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	meta, err := metastore.NewStore(cfg.MetaStorePath, l)
	if err != nil {
		return err
	}
	defer meta.Close()

	registry := indicator.NewDefaultRegistry()
	backtester := backtest.NewBacktester(meta, l)

	instrument := cmd.String("instrument")
	granularity := types.Granularity(cmd.String("granularity"))

	if cmd.Bool("optimize") {
		optimizer := backtest.NewOptimizer(backtester, registry, meta, l)

		for name, grid := range defaultGrids {
			best, err := optimizer.Optimize(ctx, instrument, granularity, name, indicatorCategories[name], grid)
			if err != nil {
				fmt.Printf("%s: optimization failed: %v\n", name, err)

				continue
			}

			fmt.Printf("%s: best params %v, total return %s over %d trades\n",
				name, best.Params, best.Performance.TotalReturn, best.Performance.TotalTrades)
		}

		return nil
	}

	name := types.IndicatorType(cmd.String("indicator"))

	ind, err := registry.Get(name)
	if err != nil {
		return err
	}

	perf, err := backtester.Run(ctx, instrument, granularity, ind, map[string]float64{
		"period": cmd.Float("period"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("total return: %s\n", perf.TotalReturn)
	fmt.Printf("win rate:     %s\n", perf.WinRate)
	fmt.Printf("max drawdown: %s\n", perf.MaxDrawdown)
	fmt.Printf("profit/loss:  %s\n", perf.ProfitLoss)
	fmt.Printf("trades:       %d\n", perf.TotalTrades)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "fxstate-backtest",
		Usage: "Backtest indicator strategies over stored candle history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "instrument",
				Aliases:  []string{"i"},
				Usage:    "Instrument symbol, e.g. EUR_USD",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "granularity",
				Aliases: []string{"g"},
				Usage:   "Candle granularity (M1,H1,D,W,M)",
				Value:   string(types.GranularityDay),
			},
			&cli.StringFlag{
				Name:  "indicator",
				Usage: "Indicator to backtest",
				Value: string(types.IndicatorTypeSMA),
			},
			&cli.FloatFlag{
				Name:  "period",
				Usage: "Indicator period",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "optimize",
				Usage: "Grid-search parameters and persist the best set",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
