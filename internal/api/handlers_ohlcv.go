package api

import (
	"net/http"

	"github.com/atlas-desktop/midasgw/internal/marketdata"
)

func (s *Server) handleOHLCV(w http.ResponseWriter, r *http.Request) {
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
	from, err := optionalInt64Param(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := optionalInt64Param(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}
	asOf, err := optionalInt64Param(r, "analysisDate")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.marketData.LoadOHLCV(r.Context(), symbol, tf, count, marketdata.Options{
		From: from, To: to, AsOf: asOf, UseCache: true, DetectGaps: true,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
