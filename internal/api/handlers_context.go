package api

import (
	"net/http"

	"github.com/atlas-desktop/midasgw/internal/mtf"
	"github.com/atlas-desktop/midasgw/internal/tradingcontext"
)

func (s *Server) handleContextEnriched(w http.ResponseWriter, r *http.Request) {
	symbol, err := requireSymbol(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sel, err := parseSelection(r)
	if err != nil {
		writeError(w, err)
		return
	}
	asOf, err := optionalInt64Param(r, "analysisDate")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.orchestrator.Process(r.Context(), symbol, sel, asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	tradeContext := tradingcontext.Compose(result)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":          result.Symbol,
		"timeframes":      result.Timeframes,
		"alignment":       result.Alignment,
		"trading_context": tradeContext,
	})
}

func (s *Server) handleContextMTFQuick(w http.ResponseWriter, r *http.Request) {
	symbol, err := requireSymbol(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sel, err := parseSelection(r)
	if err != nil {
		writeError(w, err)
		return
	}

	alignment, err := s.orchestrator.ProcessQuick(r.Context(), symbol, sel, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"symbol": symbol, "alignment": alignment})
}

func parseSelection(r *http.Request) (mtf.Selection, error) {
	long, err := optionalTimeframe(r, "long")
	if err != nil {
		return mtf.Selection{}, err
	}
	medium, err := optionalTimeframe(r, "medium")
	if err != nil {
		return mtf.Selection{}, err
	}
	short, err := optionalTimeframe(r, "short")
	if err != nil {
		return mtf.Selection{}, err
	}
	return mtf.Selection{Long: long, Medium: medium, Short: short}, nil
}
