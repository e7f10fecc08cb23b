package oanda

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// FetchOpts narrows a candle request. Zero values are omitted from the
// query, letting the provider apply its own defaults.
type FetchOpts struct {
	From  time.Time
	To    time.Time
	Count int
}

type candlesResponse struct {
	Instrument string      `json:"instrument"`
	Candles    []rawCandle `json:"candles"`
}

type rawCandle struct {
	Complete bool     `json:"complete"`
	Time     string   `json:"time"`
	Volume   float64  `json:"volume"`
	Mid      midPrice `json:"mid"`
}

type midPrice struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

// FetchCandles retrieves midpoint candles for an instrument. Incomplete
// candles (the still-forming current bar) are dropped so downstream stores
// only ever see final values.
func (c *Client) FetchCandles(ctx context.Context, instrument string, granularity types.Granularity, opts FetchOpts) ([]types.Candle, error) {
	if !granularity.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidGranularity, "invalid granularity %q", granularity)
	}

	query := url.Values{}
	query.Set("granularity", string(granularity))
	query.Set("price", "M")

	if !opts.From.IsZero() {
		query.Set("from", opts.From.UTC().Format(time.RFC3339))
	}

	if !opts.To.IsZero() {
		query.Set("to", opts.To.UTC().Format(time.RFC3339))
	}

	if opts.Count > 0 {
		query.Set("count", strconv.Itoa(opts.Count))
	}

	raw, err := c.do(ctx, "GET", "/instruments/"+instrument+"/candles", query, nil)
	if err != nil {
		return nil, err
	}

	var resp candlesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderParseFailed, "decode candles response", err)
	}

	candles := make([]types.Candle, 0, len(resp.Candles))

	for _, rc := range resp.Candles {
		if !rc.Complete {
			continue
		}

		candle, err := rc.toCandle(instrument, granularity)
		if err != nil {
			c.logger.Warn("skipping malformed candle",
				zap.String("instrument", instrument),
				zap.String("time", rc.Time),
				zap.Error(err))

			continue
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

func (rc rawCandle) toCandle(instrument string, granularity types.Granularity) (types.Candle, error) {
	ts, err := time.Parse(time.RFC3339Nano, rc.Time)
	if err != nil {
		return types.Candle{}, errors.Wrap(errors.ErrCodeProviderParseFailed, "parse candle time", err)
	}

	open, err := strconv.ParseFloat(rc.Mid.O, 64)
	if err != nil {
		return types.Candle{}, errors.Wrap(errors.ErrCodeProviderParseFailed, "parse open price", err)
	}

	high, err := strconv.ParseFloat(rc.Mid.H, 64)
	if err != nil {
		return types.Candle{}, errors.Wrap(errors.ErrCodeProviderParseFailed, "parse high price", err)
	}

	low, err := strconv.ParseFloat(rc.Mid.L, 64)
	if err != nil {
		return types.Candle{}, errors.Wrap(errors.ErrCodeProviderParseFailed, "parse low price", err)
	}

	closePrice, err := strconv.ParseFloat(rc.Mid.C, 64)
	if err != nil {
		return types.Candle{}, errors.Wrap(errors.ErrCodeProviderParseFailed, "parse close price", err)
	}

	return types.Candle{
		Instrument:  instrument,
		Granularity: granularity,
		Time:        ts.UTC(),
		Open:        open,
		High:        high,
		Low:         low,
		Close:       closePrice,
		Volume:      rc.Volume,
	}, nil
}
