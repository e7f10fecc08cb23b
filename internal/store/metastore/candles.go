package metastore

import (
	"context"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// BulkInsertCandles mirrors candles into historical_data for backtesting.
// Duplicates (same instrument, granularity, timestamp) are dropped by the
// unique constraint without failing the rest of the batch.
// Returns the number of rows actually inserted.
func (s *Store) BulkInsertCandles(ctx context.Context, instrumentID int64, candles []types.Candle) (int, error) {
	if len(candles) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInsertFailed, "begin candle mirror tx", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO historical_data (instrument_id, granularity, timestamp, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (instrument_id, granularity, timestamp) DO NOTHING
	`)
	if err != nil {
		tx.Rollback()

		return 0, errors.Wrap(errors.ErrCodeInsertFailed, "prepare candle insert", err)
	}
	defer stmt.Close()

	inserted := 0

	for _, c := range candles {
		res, err := stmt.ExecContext(ctx,
			instrumentID,
			string(c.Granularity),
			c.Time.UTC(),
			c.Open,
			c.High,
			c.Low,
			c.Close,
			c.Volume,
		)
		if err != nil {
			tx.Rollback()

			return 0, errors.Wrapf(errors.ErrCodeInsertFailed, err, "mirror candle at %s", c.Time)
		}

		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeInsertFailed, "commit candle mirror tx", err)
	}

	s.logger.Info("candles mirrored",
		zap.Int64("instrument_id", instrumentID),
		zap.Int("candles", len(candles)),
		zap.Int("inserted", inserted))

	return inserted, nil
}

// CandlesFor returns the mirrored candle series for an
// (instrument, granularity) pair ordered by timestamp ascending.
func (s *Store) CandlesFor(ctx context.Context, instrument string, granularity types.Granularity) ([]types.Candle, error) {
	instrument = types.NormalizeSymbol(instrument)

	query, args, err := s.sq.
		Select("h.timestamp", "h.open", "h.high", "h.low", "h.close", "h.volume").
		From("historical_data h").
		Join("instruments i ON i.id = h.instrument_id").
		Where(squirrel.And{
			squirrel.Eq{"i.name": instrument},
			squirrel.Eq{"h.granularity": string(granularity)},
		}).
		OrderBy("h.timestamp ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "build candle query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "query candles for %s %s", instrument, granularity)
	}
	defer rows.Close()

	var candles []types.Candle

	for rows.Next() {
		c := types.Candle{Instrument: instrument, Granularity: granularity}
		if err := rows.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "scan candle", err)
		}

		c.Time = c.Time.UTC()
		candles = append(candles, c)
	}

	return candles, rows.Err()
}
