package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

type RegistryTestSuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) SetupTest() {
	s.registry = NewRegistry()
}

func (s *RegistryTestSuite) TestRegisterAndGet() {
	s.NoError(s.registry.Register(NewSMA()))

	ind, err := s.registry.Get(types.IndicatorTypeSMA)
	s.NoError(err)
	s.Equal(types.IndicatorTypeSMA, ind.Name())
}

func (s *RegistryTestSuite) TestRegisterDuplicate() {
	s.NoError(s.registry.Register(NewSMA()))

	err := s.registry.Register(NewSMA())
	s.True(errors.HasCode(err, errors.ErrCodeIndicatorAlreadyExists))
}

func (s *RegistryTestSuite) TestGetUnknown() {
	_, err := s.registry.Get(types.IndicatorType("MACD"))

	s.True(errors.HasCode(err, errors.ErrCodeIndicatorNotFound))
}

func (s *RegistryTestSuite) TestDefaultRegistryHasAllBuiltins() {
	registry := NewDefaultRegistry()

	s.ElementsMatch([]types.IndicatorType{
		types.IndicatorTypeSMA,
		types.IndicatorTypeEMA,
		types.IndicatorTypeRSI,
		types.IndicatorTypeATR,
		types.IndicatorTypeBollingerBands,
		types.IndicatorTypeStochastic,
		types.IndicatorTypeVWAP,
		types.IndicatorTypeOBV,
		types.IndicatorTypeWilliamsR,
		types.IndicatorTypeMACrossover,
	}, registry.List())
}
