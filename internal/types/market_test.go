package types

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type MarketTypesTestSuite struct {
	suite.Suite
}

func TestMarketTypesSuite(t *testing.T) {
	suite.Run(t, new(MarketTypesTestSuite))
}

func (s *MarketTypesTestSuite) TestNormalizeSymbol() {
	cases := map[string]string{
		"eur/usd":  "EUR_USD",
		"EUR_USD":  "EUR_USD",
		"gbp-usd":  "GBP_USD",
		"usd.jpy":  "USD_JPY",
		"aud usd":  "AUD_USD",
		" nzd/usd": "NZD_USD",
		"eur//usd": "EUR_USD",
	}

	for input, want := range cases {
		s.Equal(want, NormalizeSymbol(input), "input %q", input)
	}
}

func (s *MarketTypesTestSuite) TestGranularityValid() {
	s.True(GranularityMinute.Valid())
	s.True(GranularityMonth.Valid())
	s.False(Granularity("H4").Valid())
	s.False(Granularity("").Valid())
}

func (s *MarketTypesTestSuite) TestTierGranularityMapping() {
	s.Equal(GranularityMonth, TierMacro.Granularity())
	s.Equal(GranularityDay, TierDaily.Granularity())
	s.Equal(GranularityMinute, TierMinute.Granularity())
}

func (s *MarketTypesTestSuite) TestStateValidExcludesUnknown() {
	s.True(StateRed.Valid())
	s.True(StateYellow.Valid())
	s.True(StateGreen.Valid())
	s.False(StateUnknown.Valid())
	s.False(State("PURPLE").Valid())
}

func (s *MarketTypesTestSuite) TestAllTiersOrder() {
	s.Equal([]Tier{TierMacro, TierDaily, TierMinute}, AllTiers)
}
