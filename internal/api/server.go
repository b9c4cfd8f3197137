// Package api is the gateway's thin downstream HTTP surface: the
// eight documented routes plus a /healthz probe, a uniform JSON error
// envelope, and no more
// — auth, rate-limiting, and WebUI concerns are out of scope.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/atlas-desktop/midasgw/internal/indicators"
	"github.com/atlas-desktop/midasgw/internal/marketdata"
	"github.com/atlas-desktop/midasgw/internal/mtf"
	"github.com/atlas-desktop/midasgw/internal/regime"
	"github.com/atlas-desktop/midasgw/internal/segmentcache"
)

// Config configures the API server's network surface.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig is the gateway's default HTTP listener configuration.
func DefaultConfig() Config {
	return Config{Host: "0.0.0.0", Port: 8080, ReadTimeout: 15 * time.Second, WriteTimeout: 30 * time.Second}
}

// Server is the gateway's HTTP API server.
type Server struct {
	cfg Config

	router   *mux.Router
	http     *http.Server
	logger   *zap.Logger

	marketData *marketdata.Provider
	indicators *indicators.Engine
	regime     *regime.Detector
	orchestrator *mtf.Orchestrator
	cache      *segmentcache.Engine

	precision int
}

// Deps bundles the domain components the API layer dispatches to.
type Deps struct {
	MarketData   *marketdata.Provider
	Indicators   *indicators.Engine
	Regime       *regime.Detector
	Orchestrator *mtf.Orchestrator
	Cache        *segmentcache.Engine
	Precision    int
}

// NewServer builds a Server and wires its routes.
func NewServer(cfg Config, deps Deps, logger *zap.Logger) *Server {
	s := &Server{
		cfg:          cfg,
		router:       mux.NewRouter(),
		logger:       logger,
		marketData:   deps.MarketData,
		indicators:   deps.Indicators,
		regime:       deps.Regime,
		orchestrator: deps.Orchestrator,
		cache:        deps.Cache,
		precision:    deps.Precision,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ohlcv", s.handleOHLCV).Methods(http.MethodGet)
	s.router.HandleFunc("/indicators/{name}", s.handleIndicator).Methods(http.MethodGet)
	s.router.HandleFunc("/regime", s.handleRegime).Methods(http.MethodGet)
	s.router.HandleFunc("/context/enriched", s.handleContextEnriched).Methods(http.MethodGet)
	s.router.HandleFunc("/context/mtf-quick", s.handleContextMTFQuick).Methods(http.MethodGet)
	s.router.HandleFunc("/cache/stats", s.handleCacheStats).Methods(http.MethodGet)
	s.router.HandleFunc("/cache", s.handleCacheDelete).Methods(http.MethodDelete)
	s.router.HandleFunc("/backtest", s.handleBacktest).Methods(http.MethodPost)
}

// Handler returns the server's full CORS-wrapped routing handler,
// independent of whether it is ever bound to a listener via Start.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	}).Handler(s.router)
}

// Start begins serving, blocking until Stop is called or the listener
// fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("starting api server", zap.String("addr", addr))
	return s.http.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "time": time.Now().Unix()})
}
