package statemachine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// fakeWeights serves weights from a static tier -> indicator -> weight map.
type fakeWeights struct {
	weights map[types.Tier]map[string]float64
}

func (f *fakeWeights) Weight(name string, tier types.Tier) (float64, bool) {
	tierWeights, ok := f.weights[tier]
	if !ok {
		return 0, false
	}

	weight, ok := tierWeights[name]

	return weight, ok
}

// fakeStateStore keeps states in memory, keyed like the persistent store.
type fakeStateStore struct {
	states     map[int64]map[types.Tier]types.State
	upserts    int
	failUpsert bool
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{states: make(map[int64]map[types.Tier]types.State)}
}

func (f *fakeStateStore) UpsertState(_ context.Context, instrumentID int64, tier types.Tier, state types.State, _ time.Time) error {
	if f.failUpsert {
		return errors.New(errors.ErrCodeStoreUnavailable, "store down")
	}

	if f.states[instrumentID] == nil {
		f.states[instrumentID] = make(map[types.Tier]types.State)
	}

	f.states[instrumentID][tier] = state
	f.upserts++

	return nil
}

func (f *fakeStateStore) GetState(_ context.Context, instrumentID int64, tier types.Tier) (types.State, error) {
	state, ok := f.states[instrumentID][tier]
	if !ok {
		return types.StateUnknown, nil
	}

	return state, nil
}

type StateMachineTestSuite struct {
	suite.Suite
	store   *fakeStateStore
	machine *Machine
}

func TestStateMachineSuite(t *testing.T) {
	suite.Run(t, new(StateMachineTestSuite))
}

func (s *StateMachineTestSuite) SetupTest() {
	weights := &fakeWeights{weights: map[types.Tier]map[string]float64{
		types.TierDaily: {
			"RSI":            2,
			"SMA":            1,
			"BollingerBands": 1,
		},
		types.TierMacro: {
			"RSI": 1,
			"SMA": 1,
		},
	}}

	s.store = newFakeStateStore()
	s.machine = NewMachine(weights, s.store, logger.NewNopLogger())
}

func (s *StateMachineTestSuite) TestScoreWeightedAverage() {
	score := s.machine.Score(types.TierDaily, types.Verdicts{
		"RSI":            1,
		"SMA":            0,
		"BollingerBands": 1,
	})

	// (1*2 + 0*1 + 1*1) / 4
	s.InDelta(0.75, score, 1e-9)
}

func (s *StateMachineTestSuite) TestScoreSkipsUnknownIndicators() {
	score := s.machine.Score(types.TierDaily, types.Verdicts{
		"RSI":     1,
		"Unknown": 1,
	})

	s.InDelta(1.0, score, 1e-9)
}

func (s *StateMachineTestSuite) TestScoreNoScorableIndicators() {
	score := s.machine.Score(types.TierMinute, types.Verdicts{"RSI": 1})

	s.Zero(score)
}

func (s *StateMachineTestSuite) TestScoreEmptyVerdicts() {
	s.Zero(s.machine.Score(types.TierDaily, types.Verdicts{}))
}

func (s *StateMachineTestSuite) TestScoreStaysWithinUnitInterval() {
	for _, verdicts := range []types.Verdicts{
		{"RSI": 1, "SMA": 1, "BollingerBands": 1},
		{"RSI": 0, "SMA": 0, "BollingerBands": 0},
		{"RSI": 1, "SMA": 0},
	} {
		score := s.machine.Score(types.TierDaily, verdicts)
		s.GreaterOrEqual(score, 0.0)
		s.LessOrEqual(score, 1.0)
	}
}

func (s *StateMachineTestSuite) TestEvaluateLowScoreIsRed() {
	state := s.machine.Evaluate(0.66, types.MarketConditions{RiskLevel: 1, Volatility: 1})

	s.Equal(types.StateRed, state)
}

func (s *StateMachineTestSuite) TestEvaluateFavorableCalmIsGreen() {
	state := s.machine.Evaluate(1.0, types.MarketConditions{RiskLevel: 2, Volatility: 1})

	s.Equal(types.StateGreen, state)
}

func (s *StateMachineTestSuite) TestEvaluateFavorableHighRiskIsRed() {
	state := s.machine.Evaluate(1.0, types.MarketConditions{RiskLevel: 9, Volatility: 1})

	s.Equal(types.StateRed, state)
}

func (s *StateMachineTestSuite) TestEvaluateFavorableHighVolatilityIsRed() {
	state := s.machine.Evaluate(0.8, types.MarketConditions{RiskLevel: 1, Volatility: 6})

	s.Equal(types.StateRed, state)
}

func (s *StateMachineTestSuite) TestEvaluateFavorableModerateRiskIsYellow() {
	state := s.machine.Evaluate(0.9, types.MarketConditions{RiskLevel: 5, Volatility: 2})

	s.Equal(types.StateYellow, state)
}

func (s *StateMachineTestSuite) TestEvaluateThresholdBoundary() {
	// Exactly at threshold counts as favorable.
	state := s.machine.Evaluate(DefaultThreshold, types.MarketConditions{})

	s.Equal(types.StateGreen, state)
}

func (s *StateMachineTestSuite) TestTransitionToPersists() {
	err := s.machine.TransitionTo(context.Background(), 1, types.TierDaily, types.StateGreen)
	s.NoError(err)

	state, err := s.store.GetState(context.Background(), 1, types.TierDaily)
	s.NoError(err)
	s.Equal(types.StateGreen, state)
}

func (s *StateMachineTestSuite) TestTransitionToInvalidStateLeavesStoreUntouched() {
	err := s.machine.TransitionTo(context.Background(), 1, types.TierDaily, types.State("PURPLE"))

	s.Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidState))
	s.Zero(s.store.upserts)
}

func (s *StateMachineTestSuite) TestTransitionToUnknownIsRejected() {
	err := s.machine.TransitionTo(context.Background(), 1, types.TierDaily, types.StateUnknown)

	s.True(errors.HasCode(err, errors.ErrCodeInvalidState))
}

func (s *StateMachineTestSuite) TestRepeatedTransitionsKeepSingleEntry() {
	ctx := context.Background()

	s.NoError(s.machine.TransitionTo(ctx, 1, types.TierDaily, types.StateRed))
	s.NoError(s.machine.TransitionTo(ctx, 1, types.TierDaily, types.StateGreen))

	s.Len(s.store.states[1], 1)

	state, _ := s.store.GetState(ctx, 1, types.TierDaily)
	s.Equal(types.StateGreen, state)
}

func (s *StateMachineTestSuite) TestRunReportsPersistedStates() {
	states := s.machine.Run(context.Background(), 7, map[types.Tier]types.Verdicts{
		types.TierDaily: {"RSI": 1, "SMA": 1, "BollingerBands": 1},
		types.TierMacro: {"RSI": 0, "SMA": 0},
	}, types.MarketConditions{RiskLevel: 2, Volatility: 1})

	s.Equal(types.StateGreen, states[types.TierDaily])
	s.Equal(types.StateRed, states[types.TierMacro])
}

func (s *StateMachineTestSuite) TestRunFailedTransitionReportsUnknown() {
	s.store.failUpsert = true

	states := s.machine.Run(context.Background(), 7, map[types.Tier]types.Verdicts{
		types.TierDaily: {"RSI": 1},
	}, types.MarketConditions{})

	s.Equal(types.StateUnknown, states[types.TierDaily])
}

func (s *StateMachineTestSuite) TestCanTradeRequiresAllGreen() {
	ctx := context.Background()

	for _, tier := range types.AllTiers {
		s.NoError(s.machine.TransitionTo(ctx, 3, tier, types.StateGreen))
	}

	ok, err := s.machine.CanTrade(ctx, 3)
	s.NoError(err)
	s.True(ok)

	s.NoError(s.machine.TransitionTo(ctx, 3, types.TierMinute, types.StateYellow))

	ok, err = s.machine.CanTrade(ctx, 3)
	s.NoError(err)
	s.False(ok)
}

func (s *StateMachineTestSuite) TestCanTradeUnknownTierBlocks() {
	ctx := context.Background()

	s.NoError(s.machine.TransitionTo(ctx, 4, types.TierMacro, types.StateGreen))

	ok, err := s.machine.CanTrade(ctx, 4)
	s.NoError(err)
	s.False(ok)
}

func (s *StateMachineTestSuite) TestCustomThreshold() {
	machine := NewMachine(&fakeWeights{}, s.store, logger.NewNopLogger(), WithThreshold(0.5))

	s.Equal(types.StateGreen, machine.Evaluate(0.5, types.MarketConditions{}))
	s.Equal(types.StateRed, machine.Evaluate(0.49, types.MarketConditions{}))
}
