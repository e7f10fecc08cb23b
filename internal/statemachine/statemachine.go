// Package statemachine implements the weighted-scoring trade-readiness state
// machine. Each (instrument, tier) pair carries one of three states; the
// machine scores indicator verdicts against configured weights, folds in
// market conditions and persists the transition.
package statemachine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// DefaultThreshold is the weighted score at or above which a tier is
// considered favorable, before market conditions are applied.
const DefaultThreshold = 0.7

// WeightSource provides per-indicator scoring weights for a tier. Indicators
// unknown to the source are skipped during scoring.
type WeightSource interface {
	Weight(name string, tier types.Tier) (float64, bool)
}

// StateStore persists and reads tier states.
type StateStore interface {
	UpsertState(ctx context.Context, instrumentID int64, tier types.Tier, state types.State, updated time.Time) error
	GetState(ctx context.Context, instrumentID int64, tier types.Tier) (types.State, error)
}

// Machine evaluates and transitions trade-readiness states.
type Machine struct {
	weights   WeightSource
	store     StateStore
	logger    *logger.Logger
	threshold float64
	now       func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithThreshold overrides the favorable-score threshold.
func WithThreshold(threshold float64) Option {
	return func(m *Machine) {
		m.threshold = threshold
	}
}

// NewMachine constructs a Machine with the default threshold.
func NewMachine(weights WeightSource, store StateStore, logger *logger.Logger, opts ...Option) *Machine {
	m := &Machine{
		weights:   weights,
		store:     store,
		logger:    logger,
		threshold: DefaultThreshold,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Score computes the weighted average of indicator verdicts for a tier.
// Indicators without a configured weight for the tier are skipped entirely:
// they contribute to neither the numerator nor the denominator. A tier with
// no scorable indicators scores 0.
func (m *Machine) Score(tier types.Tier, verdicts types.Verdicts) float64 {
	var weightedSum, totalWeight float64

	for name, verdict := range verdicts {
		weight, ok := m.weights.Weight(name, tier)
		if !ok {
			continue
		}

		weightedSum += float64(verdict) * weight
		totalWeight += weight
	}

	if totalWeight > 0 {
		return weightedSum / totalWeight
	}

	return 0
}

// Evaluate maps a weighted score and market conditions to a state. A score
// below the threshold is always RED; a favorable score is still RED under
// high risk or volatility, YELLOW under moderate risk, GREEN otherwise.
func (m *Machine) Evaluate(score float64, conditions types.MarketConditions) types.State {
	switch {
	case (score >= m.threshold && (conditions.RiskLevel > 7 || conditions.Volatility > 5)) || score < m.threshold:
		return types.StateRed
	case conditions.RiskLevel > 4 && conditions.RiskLevel <= 7:
		return types.StateYellow
	default:
		return types.StateGreen
	}
}

// TransitionTo validates and persists a state for one (instrument, tier)
// pair. Invalid target states fail without touching the store.
func (m *Machine) TransitionTo(ctx context.Context, instrumentID int64, tier types.Tier, state types.State) error {
	if !state.Valid() {
		return errors.Newf(errors.ErrCodeInvalidState, "invalid state transition: %s", state)
	}

	if !tier.Valid() {
		return errors.Newf(errors.ErrCodeInvalidTier, "invalid tier: %s", tier)
	}

	m.logger.Info("transitioning state",
		zap.Int64("instrument_id", instrumentID),
		zap.String("tier", string(tier)),
		zap.String("state", string(state)))

	if err := m.store.UpsertState(ctx, instrumentID, tier, state, m.now().UTC()); err != nil {
		return errors.Wrapf(errors.ErrCodeTransitionFailed, err, "persist %s state for instrument %d", tier, instrumentID)
	}

	return nil
}

// Run scores and transitions every tier present in verdictsByTier, then
// reports each tier's state as re-read from the store. A failed transition
// leaves that tier reporting its persisted (possibly stale or UNKNOWN)
// state rather than aborting the remaining tiers.
func (m *Machine) Run(ctx context.Context, instrumentID int64, verdictsByTier map[types.Tier]types.Verdicts, conditions types.MarketConditions) map[types.Tier]types.State {
	states := make(map[types.Tier]types.State, len(verdictsByTier))

	for tier, verdicts := range verdictsByTier {
		score := m.Score(tier, verdicts)
		next := m.Evaluate(score, conditions)

		if err := m.TransitionTo(ctx, instrumentID, tier, next); err != nil {
			m.logger.Error("state transition failed",
				zap.Int64("instrument_id", instrumentID),
				zap.String("tier", string(tier)),
				zap.Error(err))
		}

		state, err := m.store.GetState(ctx, instrumentID, tier)
		if err != nil {
			m.logger.Error("state read-back failed",
				zap.Int64("instrument_id", instrumentID),
				zap.String("tier", string(tier)),
				zap.Error(err))

			state = types.StateUnknown
		}

		states[tier] = state
	}

	return states
}

// CanTrade reports whether every tier of an instrument is GREEN. Any
// non-GREEN tier, including never-evaluated UNKNOWN tiers, blocks trading.
func (m *Machine) CanTrade(ctx context.Context, instrumentID int64) (bool, error) {
	for _, tier := range types.AllTiers {
		state, err := m.store.GetState(ctx, instrumentID, tier)
		if err != nil {
			return false, errors.Wrapf(errors.ErrCodeStateReadFailed, err, "read %s state for instrument %d", tier, instrumentID)
		}

		if state != types.StateGreen {
			return false, nil
		}
	}

	return true, nil
}
