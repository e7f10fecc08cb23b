package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

type SMATestSuite struct {
	suite.Suite
	sma *SMA
}

func TestSMASuite(t *testing.T) {
	suite.Run(t, new(SMATestSuite))
}

func (s *SMATestSuite) SetupTest() {
	s.sma = NewSMA()
}

func (s *SMATestSuite) TestName() {
	s.Equal(types.IndicatorTypeSMA, s.sma.Name())
}

func (s *SMATestSuite) TestComputeKnownValues() {
	candles := candlesFromCloses(1, 2, 3, 4, 5)

	values, err := s.sma.Compute(candles, map[string]float64{"period": 3})
	s.NoError(err)
	s.Len(values, 3)

	s.InDelta(2.0, values[0].Value, 1e-9)
	s.InDelta(3.0, values[1].Value, 1e-9)
	s.InDelta(4.0, values[2].Value, 1e-9)

	s.Equal(candles[2].Time, values[0].Time)
	s.Equal("sma", values[0].Parameter)
}

func (s *SMATestSuite) TestComputeInsufficientData() {
	_, err := s.sma.Compute(candlesFromCloses(1, 2), map[string]float64{"period": 3})

	s.Error(err)
	s.True(errors.IsInsufficientDataError(err))
}

func (s *SMATestSuite) TestComputeInvalidPeriod() {
	_, err := s.sma.Compute(candlesFromCloses(1, 2, 3), map[string]float64{"period": -1})

	s.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (s *SMATestSuite) TestComputeDefaultPeriod() {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = float64(i + 1)
	}

	values, err := s.sma.Compute(candlesFromCloses(closes...), nil)
	s.NoError(err)
	s.Len(values, 6)
}
