package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/broker/oanda"
	"github.com/tradecraft-labs/fxstate/internal/types"
)

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the trading API!"})
}

// instrumentStatus is one row of the system status report.
type instrumentStatus struct {
	InstrumentID   int64                      `json:"instrument_id"`
	InstrumentName string                     `json:"instrument_name"`
	State          map[types.Tier]types.State `json:"state"`
	Timestamp      string                     `json:"timestamp"`
}

func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	instruments, err := s.status.ListInstruments(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	report := make([]instrumentStatus, 0, len(instruments))

	for _, instrument := range instruments {
		states := make(map[types.Tier]types.State, len(types.AllTiers))

		for _, tier := range types.AllTiers {
			state, err := s.status.GetState(r.Context(), instrument.ID, tier)
			if err != nil {
				state = types.StateUnknown
			}

			states[tier] = state
		}

		report = append(report, instrumentStatus{
			InstrumentID:   instrument.ID,
			InstrumentName: instrument.Name,
			State:          states,
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
		})
	}

	s.writeJSON(w, http.StatusOK, report)
}

// evaluateStateRequest carries one state machine evaluation.
type evaluateStateRequest struct {
	InstrumentID     int64                         `json:"instrument_id"`
	IndicatorsByTier map[types.Tier]types.Verdicts `json:"indicator_results_by_tier"`
	MarketConditions *types.MarketConditions       `json:"market_conditions"`
}

func (s *Server) handleEvaluateState(w http.ResponseWriter, r *http.Request) {
	var req evaluateStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")

		return
	}

	if req.InstrumentID == 0 || req.MarketConditions == nil {
		s.writeError(w, http.StatusBadRequest, "Missing required parameters: instrument_id or market_conditions")

		return
	}

	for tier := range req.IndicatorsByTier {
		if !tier.Valid() {
			s.writeError(w, http.StatusBadRequest, "invalid tier: "+string(tier))

			return
		}
	}

	states := s.machine.Run(r.Context(), req.InstrumentID, req.IndicatorsByTier, *req.MarketConditions)

	s.writeJSON(w, http.StatusOK, map[string]any{"state": states})
}

func (s *Server) handleCanTrade(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["instrument_id"]

	instrumentID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid instrument_id: "+raw)

		return
	}

	ok, err := s.machine.CanTrade(r.Context(), instrumentID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"instrument_id": instrumentID,
		"can_trade":     ok,
	})
}

func (s *Server) handleStartTrading(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.trading = true
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "Trading started"})
}

func (s *Server) handleStopTrading(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.trading = false
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "Trading stopped"})
}

func (s *Server) handleTradingStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	trading := s.trading
	s.mu.Unlock()

	status := "stopped"
	if trading {
		status = "running"
	}

	orders, err := s.orders.GetOpenOrders(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	positions, err := s.orders.GetOpenPositions(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      status,
		"open_orders": orders,
		"positions":   positions,
	})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var order oanda.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")

		return
	}

	resp, err := s.orders.PlaceOrder(r.Context(), order)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.orders.GetOpenPositions(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	rows, err := s.performance.Performance(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handlePopulateData(w http.ResponseWriter, _ *http.Request) {
	// Population can take minutes; it runs detached from the request.
	go func() {
		results, failed := s.populator.PopulateAll(context.Background(), nil)

		s.logger.Info("population pass finished",
			zap.Int("synced", len(results)),
			zap.Int("failed", len(failed)))
	}()

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Data population started"})
}
