package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-desktop/midasgw/internal/apperr"
	"github.com/atlas-desktop/midasgw/internal/enrich"
	"github.com/atlas-desktop/midasgw/internal/marketdata"
	"github.com/atlas-desktop/midasgw/internal/regime"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
)

// backtestRequest is the contract body for POST /backtest. P&L
// accounting belongs to the driver on the other side of this call;
// this endpoint only replays the regime/indicator pipeline bar by bar
// over the requested window, the way the driver would consume it live.
type backtestRequest struct {
	Symbol    string `json:"symbol"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Timeframe string `json:"timeframe"`
	Strategy  string `json:"strategy"`
}

type backtestStep struct {
	Timestamp int64                 `json:"timestamp"`
	Regime    regime.Classification `json:"regime"`
}

type backtestResult struct {
	RunID     string         `json:"run_id"`
	Symbol    string         `json:"symbol"`
	Timeframe string         `json:"timeframe"`
	Strategy  string         `json:"strategy"`
	Steps     []backtestStep `json:"steps"`
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.InvalidInput, "request body must be valid JSON", err))
		return
	}
	if req.Symbol == "" {
		writeError(w, apperr.New(apperr.InvalidInput, "symbol is required"))
		return
	}
	tf := timeframe.Timeframe(req.Timeframe)
	if !timeframe.Valid(tf) {
		writeError(w, apperr.New(apperr.InvalidInput, "unknown timeframe "+req.Timeframe))
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.InvalidInput, "startDate must be RFC3339", err))
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.InvalidInput, "endDate must be RFC3339", err))
		return
	}
	if !end.After(start) {
		writeError(w, apperr.New(apperr.InvalidInput, "endDate must be after startDate"))
		return
	}

	startMs := start.UnixMilli()
	endMs := end.UnixMilli()

	tfMs, err := timeframe.DurationMs(tf)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.InvalidInput, "invalid timeframe", err))
		return
	}
	count := int((endMs-startMs)/tfMs) + 1
	if count < 1 {
		count = 1
	}

	loaded, err := s.marketData.LoadOHLCV(r.Context(), req.Symbol, tf, count, marketdata.Options{
		From: &startMs, To: &endMs, UseCache: true, DetectGaps: true,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	const minBars = 60
	if len(loaded.Bars) < minBars {
		writeError(w, apperr.New(apperr.InsufficientHistory, "backtest window has too few bars to classify a regime"))
		return
	}

	steps := make([]backtestStep, 0, len(loaded.Bars)-minBars+1)
	for cut := minBars; cut <= len(loaded.Bars); cut++ {
		window := loaded.Bars[:cut]

		flat, err := enrich.BuildSeries(s.indicators, window, string(tf))
		if err != nil {
			writeError(w, err)
			return
		}
		closes := make([]float64, len(window))
		for i, c := range window {
			closes[i] = c.CloseF()
		}
		cls, err := s.regime.Classify(tf, regime.SeriesFromFlat(flat, closes))
		if err != nil {
			writeError(w, err)
			return
		}
		steps = append(steps, backtestStep{Timestamp: window[len(window)-1].Timestamp, Regime: cls})
	}

	writeJSON(w, http.StatusOK, backtestResult{
		RunID:     uuid.NewString(),
		Symbol:    req.Symbol,
		Timeframe: string(tf),
		Strategy:  req.Strategy,
		Steps:     steps,
	})
}
