package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/atlas-desktop/midasgw/internal/apperr"
	"github.com/atlas-desktop/midasgw/internal/indicators"
	"github.com/atlas-desktop/midasgw/internal/marketdata"
)

func (s *Server) handleIndicator(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, ok := indicators.Catalog[name]; !ok {
		writeError(w, apperr.New(apperr.InvalidInput, "unknown indicator "+name))
		return
	}

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
	bars, err := intParam(r, "bars", 200)
	if err != nil {
		writeError(w, err)
		return
	}
	asOf, err := optionalInt64Param(r, "analysisDate")
	if err != nil {
		writeError(w, err)
		return
	}

	cfg := indicators.Config{}
	if raw := r.URL.Query().Get("config"); raw != "" {
		var overrides map[string]interface{}
		if jsonErr := json.Unmarshal([]byte(raw), &overrides); jsonErr != nil {
			writeError(w, apperr.Wrap(apperr.InvalidInput, "config must be valid JSON", jsonErr))
			return
		}
		for k, v := range overrides {
			cfg[k] = v
		}
	}

	loaded, err := s.marketData.LoadOHLCV(r.Context(), symbol, tf, bars, marketdata.Options{AsOf: asOf, UseCache: true})
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.indicators.ComputeSeries(loaded.Bars, map[string]indicators.Config{name: cfg}, string(tf))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
