package api

import (
	"net/http"

	"github.com/atlas-desktop/midasgw/internal/enrich"
	"github.com/atlas-desktop/midasgw/internal/marketdata"
	"github.com/atlas-desktop/midasgw/internal/regime"
)

func (s *Server) handleRegime(w http.ResponseWriter, r *http.Request) {
	symbol, err := requireSymbol(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tf, err := requireTimeframe(r, "timeframe")
	if err != nil {
		writeError(w, err)
		return
	}
	count, err := intParam(r, "count", 200)
	if err != nil {
		writeError(w, err)
		return
	}
	asOf, err := optionalInt64Param(r, "analysisDate")
	if err != nil {
		writeError(w, err)
		return
	}

	loaded, err := s.marketData.LoadOHLCV(r.Context(), symbol, tf, count, marketdata.Options{AsOf: asOf, UseCache: true})
	if err != nil {
		writeError(w, err)
		return
	}

	flat, err := enrich.BuildSeries(s.indicators, loaded.Bars, string(tf))
	if err != nil {
		writeError(w, err)
		return
	}

	closes := make([]float64, len(loaded.Bars))
	for i, c := range loaded.Bars {
		closes[i] = c.CloseF()
	}

	classification, err := s.regime.Classify(tf, regime.SeriesFromFlat(flat, closes))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classification)
}
