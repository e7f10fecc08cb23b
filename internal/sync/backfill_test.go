package sync

import (
	"context"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/store/docstore"
	"github.com/tradecraft-labs/fxstate/internal/types"
)

// fakeMetaStore mimics the relational store's unique-candle contract.
type fakeMetaStore struct {
	instruments map[string]int64
	candles     map[int64]map[time.Time]types.Candle
	nextID      int64
}

func newFakeMetaStore() *fakeMetaStore {
	return &fakeMetaStore{
		instruments: make(map[string]int64),
		candles:     make(map[int64]map[time.Time]types.Candle),
		nextID:      1,
	}
}

func (f *fakeMetaStore) GetOrCreateInstrumentID(_ context.Context, name string) (int64, error) {
	if id, ok := f.instruments[name]; ok {
		return id, nil
	}

	id := f.nextID
	f.nextID++
	f.instruments[name] = id
	f.candles[id] = make(map[time.Time]types.Candle)

	return id, nil
}

func (f *fakeMetaStore) LatestCandleTime(_ context.Context, instrumentID int64, _ types.Granularity) (optional.Option[time.Time], error) {
	var (
		latest time.Time
		found  bool
	)

	for ts := range f.candles[instrumentID] {
		if !found || ts.After(latest) {
			latest = ts
			found = true
		}
	}

	if !found {
		return optional.None[time.Time](), nil
	}

	return optional.Some(latest), nil
}

func (f *fakeMetaStore) BulkInsertCandles(_ context.Context, instrumentID int64, candles []types.Candle) (int, error) {
	inserted := 0

	for _, candle := range candles {
		if _, exists := f.candles[instrumentID][candle.Time]; exists {
			continue
		}

		f.candles[instrumentID][candle.Time] = candle
		inserted++
	}

	return inserted, nil
}

type BackfillTestSuite struct {
	suite.Suite
	store      *memStore
	meta       *fakeMetaStore
	provider   *fakeProvider
	backfiller *Backfiller
	now        time.Time
}

func TestBackfillSuite(t *testing.T) {
	suite.Run(t, new(BackfillTestSuite))
}

func (s *BackfillTestSuite) SetupTest() {
	s.store = newMemStore()
	s.meta = newFakeMetaStore()
	s.provider = newFakeProvider()
	s.now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	syncer := NewSyncer(s.provider, s.store, 2, logger.NewNopLogger())
	syncer.now = func() time.Time { return s.now }

	s.backfiller = NewBackfiller(syncer, s.store, s.meta)
}

func (s *BackfillTestSuite) TestBackfillCopiesDocStoreHistory() {
	collection := "eur_usd_d_candles"
	s.NoError(s.store.CreateCollectionWithUniqueIndex(context.Background(), collection, "time"))

	_, err := s.store.BulkInsertUnordered(context.Background(), collection, dailyCandles(s.now.AddDate(0, 0, -5), 5))
	s.Require().NoError(err)

	inserted, err := s.backfiller.Backfill(context.Background(), "EUR_USD", types.GranularityDay)
	s.NoError(err)
	s.Equal(5, inserted)

	id := s.meta.instruments["EUR_USD"]
	s.Len(s.meta.candles[id], 5)
}

func (s *BackfillTestSuite) TestBackfillReadsThroughToProvider() {
	s.provider.candles["EUR_USD/D"] = dailyCandles(s.now.AddDate(0, 0, -4), 4)

	inserted, err := s.backfiller.Backfill(context.Background(), "EUR_USD", types.GranularityDay)
	s.NoError(err)
	s.Equal(4, inserted)

	// The read-through also left the document store populated.
	s.Len(s.store.collections["eur_usd_d_candles"], 4)
}

func (s *BackfillTestSuite) TestBackfillEnsuresCollectionForNewSeries() {
	s.provider.candles["EUR_USD/D"] = dailyCandles(s.now.AddDate(0, 0, -10), 10)

	// No sync has ever run, so the collection does not exist and a bare read
	// fails with a query error.
	_, err := s.store.Find(context.Background(), "eur_usd_d_candles", docstore.Filter{})
	s.Error(err)

	inserted, err := s.backfiller.Backfill(context.Background(), "EUR_USD", types.GranularityDay)
	s.NoError(err)
	s.Equal(10, inserted)

	id := s.meta.instruments["EUR_USD"]
	s.Len(s.meta.candles[id], 10)
}

func (s *BackfillTestSuite) TestBackfillSkipsAlreadyCopiedCandles() {
	collection := "eur_usd_d_candles"
	s.NoError(s.store.CreateCollectionWithUniqueIndex(context.Background(), collection, "time"))

	_, err := s.store.BulkInsertUnordered(context.Background(), collection, dailyCandles(s.now.AddDate(0, 0, -5), 5))
	s.Require().NoError(err)

	first, err := s.backfiller.Backfill(context.Background(), "EUR_USD", types.GranularityDay)
	s.NoError(err)
	s.Equal(5, first)

	second, err := s.backfiller.Backfill(context.Background(), "EUR_USD", types.GranularityDay)
	s.NoError(err)
	s.Zero(second)
}

func (s *BackfillTestSuite) TestBackfillAllIsolatesFailures() {
	s.provider.candles["EUR_USD/D"] = dailyCandles(s.now.AddDate(0, 0, -3), 3)

	total, failed := s.backfiller.BackfillAll(context.Background(),
		[]string{"EUR_USD", "GBP_USD"},
		[]types.Granularity{types.GranularityDay})

	// GBP_USD has no history anywhere; its read-through sync finds nothing,
	// which is not an error, so it simply copies zero candles.
	s.Equal(3, total)
	s.Empty(failed)
}
