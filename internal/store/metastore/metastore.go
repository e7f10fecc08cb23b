// Package metastore implements the relational metadata store on DuckDB.
// It owns instruments, indicator definitions, computed indicator results,
// per-tier instrument states and optimization output, and mirrors candle
// series backfilled from the document store for join-heavy backtest queries.
package metastore

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// Store is the relational metadata store.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewStore opens (or creates) the DuckDB database at path and ensures the
// schema exists.
func NewStore(path string, logger *logger.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "open metadata store", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}

	if err := store.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return store, nil
}

func (s *Store) initialize() error {
	_, err := s.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS seq_instruments START 1;
		CREATE SEQUENCE IF NOT EXISTS seq_indicators START 1;

		CREATE TABLE IF NOT EXISTS instruments (
			id           BIGINT PRIMARY KEY DEFAULT nextval('seq_instruments'),
			name         TEXT NOT NULL UNIQUE,
			opening_time TEXT NOT NULL DEFAULT '00:00:00',
			closing_time TEXT NOT NULL DEFAULT '23:59:59'
		);

		CREATE TABLE IF NOT EXISTS indicators (
			id       BIGINT PRIMARY KEY DEFAULT nextval('seq_indicators'),
			name     TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS indicator_results (
			indicator_id   BIGINT NOT NULL,
			instrument_id  BIGINT NOT NULL,
			parameter_name TEXT NOT NULL,
			value          DOUBLE NOT NULL,
			timestamp      TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS instrument_states (
			instrument_id BIGINT NOT NULL,
			timeframe     TEXT NOT NULL,
			state         TEXT NOT NULL,
			last_updated  TIMESTAMP NOT NULL,
			UNIQUE (instrument_id, timeframe)
		);

		CREATE TABLE IF NOT EXISTS historical_data (
			instrument_id BIGINT NOT NULL,
			granularity   TEXT NOT NULL,
			timestamp     TIMESTAMP NOT NULL,
			open          DOUBLE NOT NULL,
			high          DOUBLE NOT NULL,
			low           DOUBLE NOT NULL,
			close         DOUBLE NOT NULL,
			volume        DOUBLE NOT NULL DEFAULT 0,
			UNIQUE (instrument_id, granularity, timestamp)
		);

		CREATE TABLE IF NOT EXISTS optimized_parameters (
			instrument_id   BIGINT NOT NULL,
			indicator_id    BIGINT NOT NULL,
			parameter_name  TEXT NOT NULL,
			parameter_value DOUBLE NOT NULL,
			timestamp       TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS optimization_results (
			instrument_id BIGINT NOT NULL,
			indicator_id  BIGINT NOT NULL,
			total_return  DOUBLE NOT NULL,
			win_rate      DOUBLE NOT NULL,
			max_drawdown  DOUBLE NOT NULL,
			profit_loss   DOUBLE NOT NULL,
			total_trades  INTEGER NOT NULL,
			timestamp     TIMESTAMP NOT NULL
		);
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "initialize metadata schema", err)
	}

	return nil
}

// GetOrCreateInstrumentID returns the id for an instrument name,
// auto-registering it on first reference.
func (s *Store) GetOrCreateInstrumentID(ctx context.Context, name string) (int64, error) {
	name = types.NormalizeSymbol(name)

	id, err := s.instrumentID(ctx, name)
	if err == nil {
		return id, nil
	}

	if !errors.HasCode(err, errors.ErrCodeDataNotFound) {
		return 0, err
	}

	insert, args, err := s.sq.
		Insert("instruments").
		Columns("name").
		Values(name).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "build instrument insert", err)
	}

	if _, err := s.db.ExecContext(ctx, insert+" ON CONFLICT (name) DO NOTHING", args...); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeInsertFailed, err, "register instrument %s", name)
	}

	s.logger.Info("registered instrument", zap.String("instrument", name))

	return s.instrumentID(ctx, name)
}

func (s *Store) instrumentID(ctx context.Context, name string) (int64, error) {
	query, args, err := s.sq.
		Select("id").
		From("instruments").
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "build instrument lookup", err)
	}

	var id int64

	err = s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errors.Newf(errors.ErrCodeDataNotFound, "instrument %s not found", name)
	}

	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "lookup instrument %s", name)
	}

	return id, nil
}

// ListInstruments returns all registered instruments ordered by id.
func (s *Store) ListInstruments(ctx context.Context) ([]types.Instrument, error) {
	query, args, err := s.sq.
		Select("id", "name", "opening_time", "closing_time").
		From("instruments").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "build instrument list", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "list instruments", err)
	}
	defer rows.Close()

	var instruments []types.Instrument

	for rows.Next() {
		var inst types.Instrument
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.OpeningTime, &inst.ClosingTime); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "scan instrument", err)
		}

		instruments = append(instruments, inst)
	}

	return instruments, rows.Err()
}

// GetOrCreateIndicatorID returns the id of an indicator definition,
// registering it when missing.
func (s *Store) GetOrCreateIndicatorID(ctx context.Context, name types.IndicatorType, category types.IndicatorCategory) (int64, error) {
	query, args, err := s.sq.
		Select("id").
		From("indicators").
		Where(squirrel.Eq{"name": string(name)}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "build indicator lookup", err)
	}

	var id int64

	err = s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == nil {
		return id, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "lookup indicator %s", name)
	}

	insert, insertArgs, err := s.sq.
		Insert("indicators").
		Columns("name", "category").
		Values(string(name), string(category)).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "build indicator insert", err)
	}

	if _, err := s.db.ExecContext(ctx, insert+" ON CONFLICT (name) DO NOTHING", insertArgs...); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeInsertFailed, err, "register indicator %s", name)
	}

	err = s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "lookup indicator %s after insert", name)
	}

	return id, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// latestTime is shared by LatestCandleTime and sync-status queries.
func (s *Store) latestTime(ctx context.Context, instrumentID int64, granularity types.Granularity) (optional.Option[time.Time], error) {
	query, args, err := s.sq.
		Select("MAX(timestamp)").
		From("historical_data").
		Where(squirrel.And{
			squirrel.Eq{"instrument_id": instrumentID},
			squirrel.Eq{"granularity": string(granularity)},
		}).
		ToSql()
	if err != nil {
		return optional.None[time.Time](), errors.Wrap(errors.ErrCodeQueryFailed, "build latest-candle query", err)
	}

	var latest sql.NullTime

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&latest); err != nil {
		return optional.None[time.Time](), errors.Wrap(errors.ErrCodeQueryFailed, "query latest candle", err)
	}

	if !latest.Valid {
		return optional.None[time.Time](), nil
	}

	return optional.Some(latest.Time.UTC()), nil
}

// LatestCandleTime returns the freshest mirrored candle timestamp for an
// (instrument, granularity) pair, or None when no candles are mirrored.
func (s *Store) LatestCandleTime(ctx context.Context, instrumentID int64, granularity types.Granularity) (optional.Option[time.Time], error) {
	return s.latestTime(ctx, instrumentID, granularity)
}
