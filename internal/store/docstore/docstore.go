// Package docstore implements the document-style time-series store that holds
// raw candle series, one collection per (instrument, granularity) pair.
//
// The store guarantees a unique index on the candle time field per
// collection; duplicate inserts are dropped without failing the rest of the
// batch.
package docstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/moznion/go-optional"

	"github.com/tradecraft-labs/fxstate/internal/types"
)

// Filter restricts a Find query to a time window. Empty bounds are open.
type Filter struct {
	Since optional.Option[time.Time]
	Until optional.Option[time.Time]
}

// Store is the document time-series store collaborator.
type Store interface {
	// ListCollections returns the names of all candle collections.
	ListCollections(ctx context.Context) ([]string, error)
	// CreateCollectionWithUniqueIndex creates a collection with a unique
	// index on the given field. Creating an existing collection is a no-op.
	CreateCollectionWithUniqueIndex(ctx context.Context, name string, field string) error
	// BulkInsertUnordered inserts candles best-effort: a duplicate-key
	// conflict on one record does not abort insertion of the rest.
	// Returns the number of records actually inserted.
	BulkInsertUnordered(ctx context.Context, collection string, docs []types.Candle) (int, error)
	// Find returns candles matching the filter, ordered by time ascending.
	Find(ctx context.Context, collection string, filter Filter) ([]types.Candle, error)
	// FindMax returns the candle with the maximum value of the given field,
	// or None when the collection is empty or absent.
	FindMax(ctx context.Context, collection string, field string) (optional.Option[types.Candle], error)
	// Close releases the underlying connections.
	Close()
}

// CollectionName derives the canonical collection name for an
// (instrument, granularity) pair, e.g. ("EUR_USD", "D") -> "eur_usd_d_candles".
// The symbol is normalized before derivation.
func CollectionName(instrument string, granularity types.Granularity) string {
	normalized := types.NormalizeSymbol(instrument)

	return fmt.Sprintf("%s_%s_candles", strings.ToLower(normalized), strings.ToLower(string(granularity)))
}
