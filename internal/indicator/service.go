package indicator

import (
	"context"

	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/config"
	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// CandleSource loads candle history for indicator computation.
type CandleSource interface {
	CandlesFor(ctx context.Context, instrument string, granularity types.Granularity) ([]types.Candle, error)
}

// ResultSink persists computed indicator series.
type ResultSink interface {
	GetOrCreateInstrumentID(ctx context.Context, name string) (int64, error)
	GetOrCreateIndicatorID(ctx context.Context, name types.IndicatorType, category types.IndicatorCategory) (int64, error)
	InsertIndicatorResults(ctx context.Context, indicatorID, instrumentID int64, values []types.IndicatorValue) error
}

// Service computes every configured indicator for an instrument on one tier
// and persists the results.
type Service struct {
	registry *Registry
	cfg      *config.IndicatorConfig
	source   CandleSource
	sink     ResultSink
	logger   *logger.Logger
}

// NewService constructs a Service.
func NewService(registry *Registry, cfg *config.IndicatorConfig, source CandleSource, sink ResultSink, logger *logger.Logger) *Service {
	return &Service{
		registry: registry,
		cfg:      cfg,
		source:   source,
		sink:     sink,
		logger:   logger,
	}
}

// ComputeAndStore runs every indicator configured for the tier over the
// tier's candle history and stores the resulting series. Indicators with too
// little history are skipped with a warning; the count of stored values is
// returned.
func (s *Service) ComputeAndStore(ctx context.Context, instrument string, tier types.Tier) (int, error) {
	if !tier.Valid() {
		return 0, errors.Newf(errors.ErrCodeInvalidTier, "invalid tier: %s", tier)
	}

	instrument = types.NormalizeSymbol(instrument)
	granularity := tier.Granularity()

	candles, err := s.source.CandlesFor(ctx, instrument, granularity)
	if err != nil {
		return 0, err
	}

	if len(candles) == 0 {
		return 0, errors.Newf(errors.ErrCodeDataNotFound, "no candle history for %s %s", instrument, granularity)
	}

	instrumentID, err := s.sink.GetOrCreateInstrumentID(ctx, instrument)
	if err != nil {
		return 0, err
	}

	stored := 0

	for name, entry := range s.cfg.Indicators {
		params, ok := s.cfg.Params(string(name), tier)
		if !ok {
			continue
		}

		ind, err := s.registry.Get(name)
		if err != nil {
			s.logger.Warn("configured indicator not registered",
				zap.String("indicator", string(name)))

			continue
		}

		values, err := ind.Compute(candles, params.Parameters)
		if err != nil {
			if errors.IsInsufficientDataError(err) {
				s.logger.Warn("insufficient data for indicator",
					zap.String("indicator", string(name)),
					zap.String("instrument", instrument),
					zap.String("tier", string(tier)))

				continue
			}

			return stored, err
		}

		indicatorID, err := s.sink.GetOrCreateIndicatorID(ctx, name, entry.Category)
		if err != nil {
			return stored, err
		}

		if err := s.sink.InsertIndicatorResults(ctx, indicatorID, instrumentID, values); err != nil {
			return stored, err
		}

		stored += len(values)
	}

	s.logger.Info("indicator results stored",
		zap.String("instrument", instrument),
		zap.String("tier", string(tier)),
		zap.Int("values", stored))

	return stored, nil
}
