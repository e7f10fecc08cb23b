package sync

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/store/docstore"
	"github.com/tradecraft-labs/fxstate/internal/types"
)

// MetaStore is the relational-store surface a backfill needs.
type MetaStore interface {
	GetOrCreateInstrumentID(ctx context.Context, name string) (int64, error)
	LatestCandleTime(ctx context.Context, instrumentID int64, granularity types.Granularity) (optional.Option[time.Time], error)
	BulkInsertCandles(ctx context.Context, instrumentID int64, candles []types.Candle) (int, error)
}

// Backfiller copies candle history from the document store into the
// relational store so analytical queries can join candles with instruments,
// indicators and states.
type Backfiller struct {
	syncer *Syncer
	doc    docstore.Store
	meta   MetaStore
}

// NewBackfiller constructs a Backfiller sharing the Syncer's stores.
func NewBackfiller(syncer *Syncer, doc docstore.Store, meta MetaStore) *Backfiller {
	return &Backfiller{syncer: syncer, doc: doc, meta: meta}
}

// Backfill copies one series from the document store into the relational
// store, reading through to the provider when the document store has no
// history yet. Only candles newer than the relational store's latest entry
// are copied; duplicates are dropped either way.
func (b *Backfiller) Backfill(ctx context.Context, instrument string, granularity types.Granularity) (int, error) {
	instrument = types.NormalizeSymbol(instrument)
	collection := docstore.CollectionName(instrument, granularity)

	// A never-synced series has no collection yet; ensure it so the initial
	// read sees an empty series instead of a missing one.
	if err := b.doc.CreateCollectionWithUniqueIndex(ctx, collection, "time"); err != nil {
		return 0, err
	}

	candles, err := b.doc.Find(ctx, collection, docstore.Filter{})
	if err != nil {
		return 0, err
	}

	if len(candles) == 0 {
		if _, err := b.syncer.Sync(ctx, instrument, granularity); err != nil {
			return 0, err
		}

		candles, err = b.doc.Find(ctx, collection, docstore.Filter{})
		if err != nil {
			return 0, err
		}
	}

	instrumentID, err := b.meta.GetOrCreateInstrumentID(ctx, instrument)
	if err != nil {
		return 0, err
	}

	latest, err := b.meta.LatestCandleTime(ctx, instrumentID, granularity)
	if err != nil {
		return 0, err
	}

	fresh := filterAfter(candles, latest)
	if len(fresh) == 0 {
		return 0, nil
	}

	inserted, err := b.meta.BulkInsertCandles(ctx, instrumentID, fresh)
	if err != nil {
		return 0, err
	}

	b.syncer.logger.Info("series backfilled",
		zap.String("instrument", instrument),
		zap.String("granularity", string(granularity)),
		zap.Int("inserted", inserted))

	return inserted, nil
}

// BackfillAll copies every instrument/granularity combination sequentially.
// Failures are isolated per series.
func (b *Backfiller) BackfillAll(ctx context.Context, instruments []string, granularities []types.Granularity) (int, []PairError) {
	var (
		total  int
		failed []PairError
	)

	for _, instrument := range instruments {
		for _, granularity := range granularities {
			inserted, err := b.Backfill(ctx, instrument, granularity)
			if err != nil {
				failed = append(failed, PairError{
					Instrument:  types.NormalizeSymbol(instrument),
					Granularity: granularity,
					Err:         err,
				})

				continue
			}

			total += inserted
		}
	}

	return total, failed
}

func filterAfter(candles []types.Candle, cutoff optional.Option[time.Time]) []types.Candle {
	if cutoff.IsNone() {
		return candles
	}

	boundary := cutoff.Unwrap()
	fresh := make([]types.Candle, 0, len(candles))

	for _, candle := range candles {
		if candle.Time.After(boundary) {
			fresh = append(fresh, candle)
		}
	}

	return fresh
}
