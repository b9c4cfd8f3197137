package api

import "net/http"

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.cache.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCacheDelete(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	tf := r.URL.Query().Get("timeframe")
	if err := s.cache.Clear(r.Context(), symbol, tf); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}
