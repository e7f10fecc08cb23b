package docstore

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tradecraft-labs/fxstate/internal/types"
)

type CollectionNameTestSuite struct {
	suite.Suite
}

func TestCollectionNameSuite(t *testing.T) {
	suite.Run(t, new(CollectionNameTestSuite))
}

func (s *CollectionNameTestSuite) TestDerivation() {
	s.Equal("eur_usd_d_candles", CollectionName("EUR_USD", types.GranularityDay))
	s.Equal("eur_usd_m1_candles", CollectionName("EUR_USD", types.GranularityMinute))
	s.Equal("usd_jpy_m_candles", CollectionName("USD_JPY", types.GranularityMonth))
}

func (s *CollectionNameTestSuite) TestNormalizesSymbolFirst() {
	s.Equal("eur_usd_d_candles", CollectionName("eur/usd", types.GranularityDay))
	s.Equal("gbp_usd_h1_candles", CollectionName("gbp-usd", types.GranularityHour))
}
