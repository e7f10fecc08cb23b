// Package sync implements incremental synchronization of candle history from
// the market data provider into the document store, and backfill from the
// document store into the relational store.
//
// Synchronization is incremental and idempotent: each run anchors on the
// latest stored candle, requests a standard window covering the gap, and
// relies on unordered duplicate-dropping inserts so overlapping windows never
// create double entries.
package sync

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tradecraft-labs/fxstate/internal/broker/oanda"
	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/store/docstore"
	"github.com/tradecraft-labs/fxstate/internal/types"
)

// MajorPairs are the instruments synchronized by a full population run.
var MajorPairs = []string{
	"EUR_USD",
	"USD_JPY",
	"GBP_USD",
	"USD_CHF",
	"AUD_USD",
	"USD_CAD",
	"NZD_USD",
}

// PopulateGranularities are the granularities covered by a full population
// run, one per analysis tier.
var PopulateGranularities = []types.Granularity{
	types.GranularityMinute,
	types.GranularityDay,
	types.GranularityMonth,
}

// Provider fetches candle history from the upstream market data API.
type Provider interface {
	FetchCandles(ctx context.Context, instrument string, granularity types.Granularity, opts oanda.FetchOpts) ([]types.Candle, error)
}

// Result summarizes one sync of a single (instrument, granularity) series.
type Result struct {
	Instrument  string
	Granularity types.Granularity
	Fetched     int
	Inserted    int
	Since       time.Time
}

// Syncer pulls candles from the provider into the document store.
type Syncer struct {
	provider Provider
	store    docstore.Store
	logger   *logger.Logger
	// workers bounds how many series sync concurrently during SyncAll.
	workers int
	now     func() time.Time
}

// NewSyncer constructs a Syncer. workers <= 0 falls back to 4.
func NewSyncer(provider Provider, store docstore.Store, workers int, logger *logger.Logger) *Syncer {
	if workers <= 0 {
		workers = 4
	}

	return &Syncer{
		provider: provider,
		store:    store,
		logger:   logger,
		workers:  workers,
		now:      time.Now,
	}
}

// Sync brings one (instrument, granularity) series up to date. It ensures the
// collection exists, anchors on the latest stored candle (or the default
// lookback on first run), fetches a standard window covering the gap and
// inserts the results, dropping duplicates.
func (s *Syncer) Sync(ctx context.Context, instrument string, granularity types.Granularity) (Result, error) {
	instrument = types.NormalizeSymbol(instrument)
	collection := docstore.CollectionName(instrument, granularity)

	result := Result{Instrument: instrument, Granularity: granularity}

	if err := s.store.CreateCollectionWithUniqueIndex(ctx, collection, "time"); err != nil {
		return result, err
	}

	since, err := s.sinceFor(ctx, collection, granularity)
	if err != nil {
		return result, err
	}

	result.Since = since

	candles, err := s.provider.FetchCandles(ctx, instrument, granularity, oanda.FetchOpts{From: since})
	if err != nil {
		return result, err
	}

	result.Fetched = len(candles)

	if len(candles) == 0 {
		s.logger.Warn("no new candles from provider",
			zap.String("instrument", instrument),
			zap.String("granularity", string(granularity)),
			zap.Time("since", since))

		return result, nil
	}

	inserted, err := s.store.BulkInsertUnordered(ctx, collection, candles)
	if err != nil {
		return result, err
	}

	result.Inserted = inserted

	s.logger.Info("series synchronized",
		zap.String("instrument", instrument),
		zap.String("granularity", string(granularity)),
		zap.Time("since", since),
		zap.Int("fetched", result.Fetched),
		zap.Int("inserted", inserted))

	return result, nil
}

// sinceFor picks the fetch anchor: the latest stored candle time when the
// series has history, otherwise now minus the default lookback. The gap is
// then rounded up to a standard window so repeated runs issue cacheable,
// uniform requests.
func (s *Syncer) sinceFor(ctx context.Context, collection string, granularity types.Granularity) (time.Time, error) {
	now := s.now().UTC()

	latest, err := s.store.FindMax(ctx, collection, "time")
	if err != nil {
		return time.Time{}, err
	}

	anchor := now.Add(-DefaultLookback)
	if latest.IsSome() {
		anchor = latest.Unwrap().Time
	}

	window := FetchWindow(now.Sub(anchor), granularity)

	return now.Add(-window), nil
}

// PairError records the failure of one series during a batch sync.
type PairError struct {
	Instrument  string
	Granularity types.Granularity
	Err         error
}

// SyncAll synchronizes every (instrument, granularity) combination with
// bounded concurrency. A failing series is recorded and skipped; it never
// aborts the rest of the batch. The optional onProgress callback fires once
// per completed series.
func (s *Syncer) SyncAll(ctx context.Context, instruments []string, granularities []types.Granularity, onProgress func(Result)) ([]Result, []PairError) {
	type outcome struct {
		result Result
		err    error
	}

	outcomes := make(chan outcome)

	go func() {
		defer close(outcomes)

		group, gctx := errgroup.WithContext(ctx)
		group.SetLimit(s.workers)

		for _, instrument := range instruments {
			for _, granularity := range granularities {
				group.Go(func() error {
					result, err := s.Sync(gctx, instrument, granularity)
					outcomes <- outcome{result: result, err: err}

					// Errors are collected per pair, not propagated, so one
					// bad series cannot cancel its siblings.
					return nil
				})
			}
		}

		_ = group.Wait()
	}()

	var (
		results []Result
		failed  []PairError
	)

	for out := range outcomes {
		if out.err != nil {
			s.logger.Error("series sync failed",
				zap.String("instrument", out.result.Instrument),
				zap.String("granularity", string(out.result.Granularity)),
				zap.Error(out.err))

			failed = append(failed, PairError{
				Instrument:  out.result.Instrument,
				Granularity: out.result.Granularity,
				Err:         out.err,
			})

			continue
		}

		results = append(results, out.result)

		if onProgress != nil {
			onProgress(out.result)
		}
	}

	return results, failed
}

// PopulateAll runs a full population pass over the major pairs and the
// tier-backing granularities.
func (s *Syncer) PopulateAll(ctx context.Context, onProgress func(Result)) ([]Result, []PairError) {
	return s.SyncAll(ctx, MajorPairs, PopulateGranularities, onProgress)
}
