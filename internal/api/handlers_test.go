package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tradecraft-labs/fxstate/internal/broker/oanda"
	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/store/metastore"
	datasync "github.com/tradecraft-labs/fxstate/internal/sync"
	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

type fakeRunner struct {
	states   map[types.Tier]types.State
	canTrade bool
	lastID   int64
}

func (f *fakeRunner) Run(_ context.Context, instrumentID int64, verdictsByTier map[types.Tier]types.Verdicts, _ types.MarketConditions) map[types.Tier]types.State {
	f.lastID = instrumentID

	out := make(map[types.Tier]types.State, len(verdictsByTier))
	for tier := range verdictsByTier {
		out[tier] = f.states[tier]
	}

	return out
}

func (f *fakeRunner) CanTrade(_ context.Context, _ int64) (bool, error) {
	return f.canTrade, nil
}

type fakeStatusStore struct {
	instruments []types.Instrument
	states      map[int64]map[types.Tier]types.State
}

func (f *fakeStatusStore) ListInstruments(_ context.Context) ([]types.Instrument, error) {
	return f.instruments, nil
}

func (f *fakeStatusStore) GetState(_ context.Context, instrumentID int64, tier types.Tier) (types.State, error) {
	state, ok := f.states[instrumentID][tier]
	if !ok {
		return types.StateUnknown, nil
	}

	return state, nil
}

type fakePopulator struct {
	called chan struct{}
}

func (f *fakePopulator) PopulateAll(_ context.Context, _ func(datasync.Result)) ([]datasync.Result, []datasync.PairError) {
	close(f.called)

	return []datasync.Result{{Instrument: "EUR_USD"}}, nil
}

type fakePerformance struct {
	rows []metastore.PerformanceRow
}

func (f *fakePerformance) Performance(_ context.Context) ([]metastore.PerformanceRow, error) {
	return f.rows, nil
}

type fakeGateway struct {
	placed    oanda.OrderRequest
	placeErr  error
	orders    json.RawMessage
	positions json.RawMessage
}

func (f *fakeGateway) PlaceOrder(_ context.Context, order oanda.OrderRequest) (json.RawMessage, error) {
	f.placed = order

	if f.placeErr != nil {
		return nil, f.placeErr
	}

	return json.RawMessage(`{"orderCreateTransaction":{}}`), nil
}

func (f *fakeGateway) GetOpenOrders(_ context.Context) (json.RawMessage, error) {
	return f.orders, nil
}

func (f *fakeGateway) GetOpenPositions(_ context.Context) (json.RawMessage, error) {
	return f.positions, nil
}

type APITestSuite struct {
	suite.Suite
	runner    *fakeRunner
	status    *fakeStatusStore
	populator *fakePopulator
	gateway   *fakeGateway
	server    *Server
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	s.runner = &fakeRunner{states: map[types.Tier]types.State{
		types.TierMacro:  types.StateGreen,
		types.TierDaily:  types.StateRed,
		types.TierMinute: types.StateGreen,
	}}

	s.status = &fakeStatusStore{
		instruments: []types.Instrument{{ID: 1, Name: "EUR_USD"}},
		states: map[int64]map[types.Tier]types.State{
			1: {types.TierMacro: types.StateGreen},
		},
	}

	s.populator = &fakePopulator{called: make(chan struct{})}
	s.gateway = &fakeGateway{
		orders:    json.RawMessage(`{"orders":[]}`),
		positions: json.RawMessage(`{"positions":[]}`),
	}

	s.server = NewServer(":0", s.runner, s.status, s.populator, &fakePerformance{}, s.gateway, logger.NewNopLogger())
}

func (s *APITestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()

	s.server.Handler().ServeHTTP(rec, req)

	return rec
}

func (s *APITestSuite) TestRoot() {
	rec := s.do(http.MethodGet, "/", nil)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Welcome")
}

func (s *APITestSuite) TestEvaluateState() {
	rec := s.do(http.MethodPost, "/api/trading/evaluate_state", map[string]any{
		"instrument_id": 1,
		"indicator_results_by_tier": map[string]map[string]int{
			"macro": {"RSI": 1},
			"daily": {"RSI": 0},
		},
		"market_conditions": map[string]float64{"risk_level": 2, "volatility": 1},
	})

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(int64(1), s.runner.lastID)

	var resp struct {
		State map[types.Tier]types.State `json:"state"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))

	s.Equal(types.StateGreen, resp.State[types.TierMacro])
	s.Equal(types.StateRed, resp.State[types.TierDaily])
}

func (s *APITestSuite) TestEvaluateStateMissingInstrument() {
	rec := s.do(http.MethodPost, "/api/trading/evaluate_state", map[string]any{
		"market_conditions": map[string]float64{"risk_level": 2},
	})

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "Missing required parameters")
}

func (s *APITestSuite) TestEvaluateStateMissingConditions() {
	rec := s.do(http.MethodPost, "/api/trading/evaluate_state", map[string]any{
		"instrument_id": 1,
	})

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestEvaluateStateInvalidTier() {
	rec := s.do(http.MethodPost, "/api/trading/evaluate_state", map[string]any{
		"instrument_id": 1,
		"indicator_results_by_tier": map[string]map[string]int{
			"hourly": {"RSI": 1},
		},
		"market_conditions": map[string]float64{"risk_level": 2},
	})

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestEvaluateStateMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/trading/evaluate_state", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()

	s.server.Handler().ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestSystemStatus() {
	rec := s.do(http.MethodGet, "/system-status", nil)

	s.Equal(http.StatusOK, rec.Code)

	var report []instrumentStatus
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &report))
	s.Require().Len(report, 1)

	s.Equal("EUR_USD", report[0].InstrumentName)
	s.Equal(types.StateGreen, report[0].State[types.TierMacro])
	s.Equal(types.StateUnknown, report[0].State[types.TierDaily])
}

func (s *APITestSuite) TestCanTrade() {
	s.runner.canTrade = true

	rec := s.do(http.MethodGet, "/api/trading/can_trade/1", nil)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"can_trade":true`)
}

func (s *APITestSuite) TestCanTradeInvalidID() {
	rec := s.do(http.MethodGet, "/api/trading/can_trade/abc", nil)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestStartStopStatus() {
	rec := s.do(http.MethodPost, "/api/trading/start", nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/trading/status", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"status":"running"`)

	rec = s.do(http.MethodPost, "/api/trading/stop", nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/trading/status", nil)
	s.Contains(rec.Body.String(), `"status":"stopped"`)
}

func (s *APITestSuite) TestPlaceOrder() {
	rec := s.do(http.MethodPost, "/api/trading/place_order", map[string]any{
		"instrument": "EUR_USD",
		"units":      100,
	})

	s.Equal(http.StatusCreated, rec.Code)
	s.Equal("EUR_USD", s.gateway.placed["instrument"])
}

func (s *APITestSuite) TestPlaceOrderGatewayError() {
	s.gateway.placeErr = errors.New(errors.ErrCodeOrderFailed, "rejected")

	rec := s.do(http.MethodPost, "/api/trading/place_order", map[string]any{"instrument": "EUR_USD"})

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Contains(rec.Body.String(), "error")
}

func (s *APITestSuite) TestPopulateData() {
	rec := s.do(http.MethodPost, "/api/data/populate_data", nil)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Data population started")

	// The pass runs detached from the request.
	<-s.populator.called
}

func (s *APITestSuite) TestPerformance() {
	rec := s.do(http.MethodGet, "/api/trading/performance", nil)

	s.Equal(http.StatusOK, rec.Code)
}
