package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

type StochasticTestSuite struct {
	suite.Suite
	stoch *Stochastic
}

func TestStochasticSuite(t *testing.T) {
	suite.Run(t, new(StochasticTestSuite))
}

func (s *StochasticTestSuite) SetupTest() {
	s.stoch = NewStochastic()
}

func (s *StochasticTestSuite) TestName() {
	s.Equal(types.IndicatorTypeStochastic, s.stoch.Name())
}

func (s *StochasticTestSuite) TestComputeBounds() {
	values, err := s.stoch.Compute(candlesFromCloses(10, 12, 11, 14, 9, 15, 13), map[string]float64{"period": 3})
	s.NoError(err)
	s.NotEmpty(values)

	for _, v := range values {
		s.GreaterOrEqual(v.Value, 0.0)
		s.LessOrEqual(v.Value, 100.0)
	}
}

func (s *StochasticTestSuite) TestComputeRisingSeriesReadsHigh() {
	// With high = close + 0.5 and low = close - 0.5, a steadily rising close
	// sits near the top of every rolling window.
	values, err := s.stoch.Compute(candlesFromCloses(1, 2, 3, 4, 5, 6), map[string]float64{"period": 3})
	s.NoError(err)

	kValues := valuesFor(values, "k")
	s.NotEmpty(kValues)

	for _, v := range kValues {
		s.Greater(v.Value, 50.0)
	}
}

func (s *StochasticTestSuite) TestComputeSignalLine() {
	values, err := s.stoch.Compute(candlesFromCloses(10, 12, 11, 14, 9, 15, 13, 12), map[string]float64{"period": 3})
	s.NoError(err)

	kValues := valuesFor(values, "k")
	dValues := valuesFor(values, "d")

	// %D starts once three %K values exist.
	s.Len(dValues, len(kValues)-2)

	// Each %D is the mean of the three most recent %K values.
	var sum float64
	for _, v := range kValues[:3] {
		sum += v.Value
	}

	s.InDelta(sum/3, dValues[0].Value, 1e-9)
}

func (s *StochasticTestSuite) TestComputeInsufficientData() {
	_, err := s.stoch.Compute(candlesFromCloses(1, 2), map[string]float64{"period": 5})

	s.True(errors.IsInsufficientDataError(err))
}
