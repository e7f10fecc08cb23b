package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/api"
	"github.com/tradecraft-labs/fxstate/internal/broker/oanda"
	"github.com/tradecraft-labs/fxstate/internal/config"
	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/statemachine"
	"github.com/tradecraft-labs/fxstate/internal/store/docstore"
	"github.com/tradecraft-labs/fxstate/internal/store/metastore"
	datasync "github.com/tradecraft-labs/fxstate/internal/sync"
)

func serveAction(ctx context.Context, cmd *cli.Command) error {
	l, err := logger.NewLogger()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if addr := cmd.String("listen"); addr != "" {
		cfg.ListenAddr = addr
	}

	indicatorCfg, err := config.LoadIndicatorConfig(cfg.IndicatorConfigPath)
	if err != nil {
		return err
	}

	meta, err := metastore.NewStore(cfg.MetaStorePath, l)
	if err != nil {
		return err
	}
	defer meta.Close()

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
	machine := statemachine.NewMachine(indicatorCfg, meta, l)

	server := api.NewServer(cfg.ListenAddr, machine, meta, syncer, meta, provider, l)

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Start()
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
		l.Info("shutting down", zap.String("reason", "signal"))

		return server.Shutdown(context.Background())
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "fxstate-server",
		Usage: "Run the trade-readiness API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "Listen address, overrides FXSTATE_LISTEN_ADDR",
			},
		},
		Action: serveAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
