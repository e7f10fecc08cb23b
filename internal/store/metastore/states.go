package metastore

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// UpsertState atomically inserts or overwrites the state row for an
// (instrument, tier) pair. The unique constraint on (instrument_id,
// timeframe) guarantees at most one row per pair; last writer wins.
func (s *Store) UpsertState(ctx context.Context, instrumentID int64, tier types.Tier, state types.State, updated time.Time) error {
	if !state.Valid() {
		return errors.Newf(errors.ErrCodeInvalidState, "state %q is not storable", state)
	}

	insert, args, err := s.sq.
		Insert("instrument_states").
		Columns("instrument_id", "timeframe", "state", "last_updated").
		Values(instrumentID, string(tier), string(state), updated.UTC()).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "build state upsert", err)
	}

	upsert := insert + ` ON CONFLICT (instrument_id, timeframe) DO UPDATE SET
		state = excluded.state,
		last_updated = excluded.last_updated`

	if _, err := s.db.ExecContext(ctx, upsert, args...); err != nil {
		return errors.Wrapf(errors.ErrCodeTransitionFailed, err, "upsert state for instrument %d tier %s", instrumentID, tier)
	}

	s.logger.Debug("state persisted",
		zap.Int64("instrument_id", instrumentID),
		zap.String("tier", string(tier)),
		zap.String("state", string(state)))

	return nil
}

// GetState returns the persisted state for an (instrument, tier) pair.
// Pairs that have never been evaluated report StateUnknown.
func (s *Store) GetState(ctx context.Context, instrumentID int64, tier types.Tier) (types.State, error) {
	query, args, err := s.sq.
		Select("state").
		From("instrument_states").
		Where(squirrel.And{
			squirrel.Eq{"instrument_id": instrumentID},
			squirrel.Eq{"timeframe": string(tier)},
		}).
		ToSql()
	if err != nil {
		return types.StateUnknown, errors.Wrap(errors.ErrCodeQueryFailed, "build state lookup", err)
	}

	var state string

	err = s.db.QueryRowContext(ctx, query, args...).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return types.StateUnknown, nil
	}

	if err != nil {
		return types.StateUnknown, errors.Wrapf(errors.ErrCodeStateReadFailed, err, "read state for instrument %d tier %s", instrumentID, tier)
	}

	return types.State(state), nil
}
