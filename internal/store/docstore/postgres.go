package docstore

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// Collection names are interpolated into DDL/DML, so they are restricted to
// a safe shape instead of being parameterized.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// PostgresStore implements Store on Postgres. Each collection is a table with
// a JSONB document column and a unique index on the candle time.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgresStore connects to the document store and verifies the
// connection.
func NewPostgresStore(ctx context.Context, dsn string, logger *logger.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "connect document store", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "ping document store", err)
	}

	return &PostgresStore{
		pool:   pool,
		logger: logger,
	}, nil
}

// ListCollections implements Store.
func (s *PostgresStore) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name LIKE '%_candles'
	`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "list collections", err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "scan collection name", err)
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

// CreateCollectionWithUniqueIndex implements Store.
func (s *PostgresStore) CreateCollectionWithUniqueIndex(ctx context.Context, name string, field string) error {
	if err := validateCollectionName(name); err != nil {
		return err
	}

	if field != "time" {
		return errors.Newf(errors.ErrCodeInvalidParameter, "unsupported unique index field %q", field)
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id   UUID PRIMARY KEY,
			time TIMESTAMPTZ NOT NULL,
			doc  JSONB NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS %s_time_key ON %s (time);
	`, name, name, name)

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "create collection %s", name)
	}

	s.logger.Debug("collection ready", zap.String("collection", name))

	return nil
}

// BulkInsertUnordered implements Store. Each candle is inserted with
// ON CONFLICT DO NOTHING, so a duplicate timestamp drops that record while
// the rest of the batch still lands.
func (s *PostgresStore) BulkInsertUnordered(ctx context.Context, collection string, docs []types.Candle) (int, error) {
	if err := validateCollectionName(collection); err != nil {
		return 0, err
	}

	if len(docs) == 0 {
		s.logger.Warn("no documents to insert", zap.String("collection", collection))

		return 0, nil
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, time, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (time) DO NOTHING
	`, collection)

	batch := &pgx.Batch{}
	for _, doc := range docs {
		batch.Queue(stmt, uuid.New(), doc.Time.UTC(), doc)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0

	for range docs {
		tag, err := results.Exec()
		if err != nil {
			return inserted, errors.Wrapf(errors.ErrCodeInsertFailed, err, "bulk insert into %s", collection)
		}

		inserted += int(tag.RowsAffected())
	}

	s.logger.Info("bulk insert complete",
		zap.String("collection", collection),
		zap.Int("documents", len(docs)),
		zap.Int("inserted", inserted))

	return inserted, nil
}

// Find implements Store.
func (s *PostgresStore) Find(ctx context.Context, collection string, filter Filter) ([]types.Candle, error) {
	if err := validateCollectionName(collection); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT doc FROM %s`, collection)

	var (
		args  []any
		where string
	)

	if filter.Since.IsSome() {
		args = append(args, filter.Since.Unwrap())
		where = fmt.Sprintf(" WHERE time >= $%d", len(args))
	}

	if filter.Until.IsSome() {
		args = append(args, filter.Until.Unwrap())

		if where == "" {
			where = fmt.Sprintf(" WHERE time <= $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND time <= $%d", len(args))
		}
	}

	query += where + " ORDER BY time ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "find in %s", collection)
	}
	defer rows.Close()

	var candles []types.Candle

	for rows.Next() {
		var candle types.Candle
		if err := rows.Scan(&candle); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "scan document from %s", collection)
		}

		candles = append(candles, candle)
	}

	return candles, rows.Err()
}

// FindMax implements Store.
func (s *PostgresStore) FindMax(ctx context.Context, collection string, field string) (optional.Option[types.Candle], error) {
	if err := validateCollectionName(collection); err != nil {
		return optional.None[types.Candle](), err
	}

	if field != "time" {
		return optional.None[types.Candle](), errors.Newf(errors.ErrCodeInvalidParameter, "unsupported max field %q", field)
	}

	query := fmt.Sprintf(`SELECT doc FROM %s ORDER BY time DESC LIMIT 1`, collection)

	var candle types.Candle

	err := s.pool.QueryRow(ctx, query).Scan(&candle)
	if errors.Is(err, pgx.ErrNoRows) {
		return optional.None[types.Candle](), nil
	}

	if err != nil {
		return optional.None[types.Candle](), errors.Wrapf(errors.ErrCodeQueryFailed, err, "find max in %s", collection)
	}

	return optional.Some(candle), nil
}

// Close implements Store.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func validateCollectionName(name string) error {
	if !collectionNamePattern.MatchString(name) {
		return errors.Newf(errors.ErrCodeInvalidParameter, "invalid collection name %q", name)
	}

	return nil
}
