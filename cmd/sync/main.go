package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/tradecraft-labs/fxstate/internal/broker/oanda"
	"github.com/tradecraft-labs/fxstate/internal/config"
	"github.com/tradecraft-labs/fxstate/internal/indicator"
	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/store/docstore"
	"github.com/tradecraft-labs/fxstate/internal/store/metastore"
	datasync "github.com/tradecraft-labs/fxstate/internal/sync"
	"github.com/tradecraft-labs/fxstate/internal/types"
)

func syncAction(ctx context.Context, cmd *cli.Command) error {
	l, err := logger.NewLogger()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	doc, err := docstore.NewPostgresStore(ctx, cfg.DocStoreDSN, l)
	if err != nil {
		return err
	}
	defer doc.Close()

	provider, err := oanda.NewClient(oanda.Config{
		BaseURL:   cfg.ProviderBaseURL,
		Token:     cfg.ProviderToken,
		AccountID: cfg.ProviderAccountID,
		Timeout:   cfg.ProviderTimeout,
		RateRPS:   cfg.ProviderRateRPS,
	}, l)
	if err != nil {
		return err
	}

	syncer := datasync.NewSyncer(provider, doc, cfg.SyncWorkers, l)

	instruments := datasync.MajorPairs
	if raw := cmd.String("instruments"); raw != "" {
		instruments = strings.Split(raw, ",")
	}

	granularities := datasync.PopulateGranularities
	if raw := cmd.String("granularities"); raw != "" {
		granularities = granularities[:0]
		for _, g := range strings.Split(raw, ",") {
			granularities = append(granularities, types.Granularity(strings.TrimSpace(g)))
		}
	}

	bar := progressbar.Default(int64(len(instruments)*len(granularities)), "syncing")

	results, failed := syncer.SyncAll(ctx, instruments, granularities, func(datasync.Result) {
		_ = bar.Add(1)
	})

	var inserted int
	for _, result := range results {
		inserted += result.Inserted
	}

	fmt.Printf("synced %d series, %d candles inserted, %d failed\n", len(results), inserted, len(failed))

	for _, pairErr := range failed {
		fmt.Printf("  failed %s %s: %v\n", pairErr.Instrument, pairErr.Granularity, pairErr.Err)
	}

	if cmd.Bool("backfill") || cmd.Bool("indicators") {
		meta, err := metastore.NewStore(cfg.MetaStorePath, l)
		if err != nil {
			return err
		}
		defer meta.Close()

		backfiller := datasync.NewBackfiller(syncer, doc, meta)

		total, backfillFailed := backfiller.BackfillAll(ctx, instruments, granularities)
		fmt.Printf("backfilled %d candles into the metadata store, %d series failed\n", total, len(backfillFailed))

		if cmd.Bool("indicators") {
			indicatorCfg, err := config.LoadIndicatorConfig(cfg.IndicatorConfigPath)
			if err != nil {
				return err
			}

			service := indicator.NewService(indicator.NewDefaultRegistry(), indicatorCfg, meta, meta, l)

			for _, instrument := range instruments {
				for _, tier := range types.AllTiers {
					stored, err := service.ComputeAndStore(ctx, instrument, tier)
					if err != nil {
						fmt.Printf("  indicators %s %s: %v\n", instrument, tier, err)

						continue
					}

					fmt.Printf("  stored %d indicator values for %s %s\n", stored, instrument, tier)
				}
			}
		}
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "fxstate-sync",
		Usage: "Synchronize candle history from the market data provider",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "instruments",
				Aliases: []string{"i"},
				Usage:   "Comma-separated instrument list, defaults to the major pairs",
			},
			&cli.StringFlag{
				Name:    "granularities",
				Aliases: []string{"g"},
				Usage:   "Comma-separated granularity list (M1,H1,D,W,M)",
			},
			&cli.BoolFlag{
				Name:  "backfill",
				Usage: "Copy synced history into the relational metadata store",
			},
			&cli.BoolFlag{
				Name:  "indicators",
				Usage: "Backfill and compute configured indicators per tier",
			},
		},
		Action: syncAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
