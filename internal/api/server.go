// Package api exposes the HTTP surface: state evaluation, readiness checks,
// system status, data population, performance reporting and order
// pass-through.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tradecraft-labs/fxstate/internal/broker/oanda"
	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/internal/store/metastore"
	datasync "github.com/tradecraft-labs/fxstate/internal/sync"
	"github.com/tradecraft-labs/fxstate/internal/types"
)

// StateRunner evaluates and reads trade-readiness states.
type StateRunner interface {
	Run(ctx context.Context, instrumentID int64, verdictsByTier map[types.Tier]types.Verdicts, conditions types.MarketConditions) map[types.Tier]types.State
	CanTrade(ctx context.Context, instrumentID int64) (bool, error)
}

// StatusStore reads the instrument catalog and per-tier states.
type StatusStore interface {
	ListInstruments(ctx context.Context) ([]types.Instrument, error)
	GetState(ctx context.Context, instrumentID int64, tier types.Tier) (types.State, error)
}

// Populator runs a full candle population pass.
type Populator interface {
	PopulateAll(ctx context.Context, onProgress func(datasync.Result)) ([]datasync.Result, []datasync.PairError)
}

// PerformanceSource reads stored optimization performance.
type PerformanceSource interface {
	Performance(ctx context.Context) ([]metastore.PerformanceRow, error)
}

// OrderGateway forwards order operations to the execution provider.
type OrderGateway interface {
	PlaceOrder(ctx context.Context, order oanda.OrderRequest) (json.RawMessage, error)
	GetOpenOrders(ctx context.Context) (json.RawMessage, error)
	GetOpenPositions(ctx context.Context) (json.RawMessage, error)
}

// Server is the HTTP API server.
type Server struct {
	machine     StateRunner
	status      StatusStore
	populator   Populator
	performance PerformanceSource
	orders      OrderGateway
	logger      *logger.Logger

	mu      sync.Mutex
	trading bool

	http *http.Server
}

// NewServer constructs a Server listening on addr.
func NewServer(addr string, machine StateRunner, status StatusStore, populator Populator, performance PerformanceSource, orders OrderGateway, logger *logger.Logger) *Server {
	s := &Server{
		machine:     machine,
		status:      status,
		populator:   populator,
		performance: performance,
		orders:      orders,
		logger:      logger,
	}

	router := mux.NewRouter()
	router.Use(s.recoverMiddleware, s.loggingMiddleware)

	router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	router.HandleFunc("/system-status", s.handleSystemStatus).Methods(http.MethodGet)

	trading := router.PathPrefix("/api/trading").Subrouter()
	trading.HandleFunc("/start", s.handleStartTrading).Methods(http.MethodPost)
	trading.HandleFunc("/stop", s.handleStopTrading).Methods(http.MethodPost)
	trading.HandleFunc("/status", s.handleTradingStatus).Methods(http.MethodGet)
	trading.HandleFunc("/place_order", s.handlePlaceOrder).Methods(http.MethodPost)
	trading.HandleFunc("/positions", s.handlePositions).Methods(http.MethodGet)
	trading.HandleFunc("/performance", s.handlePerformance).Methods(http.MethodGet)
	trading.HandleFunc("/evaluate_state", s.handleEvaluateState).Methods(http.MethodPost)
	trading.HandleFunc("/can_trade/{instrument_id}", s.handleCanTrade).Methods(http.MethodGet)

	data := router.PathPrefix("/api/data").Subrouter()
	data.HandleFunc("/populate_data", s.handlePopulateData).Methods(http.MethodPost)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("api server listening", zap.String("addr", s.http.Addr))

	return s.http.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
