package api

import (
	"encoding/json"
	"net/http"

	"github.com/atlas-desktop/midasgw/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorBody is the gateway's uniform failure envelope:
// {success:false, error:{type,message}}.
type errorBody struct {
	Success bool      `json:"success"`
	Error   errorDesc `json:"error"`
}

type errorDesc struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperr.Internal
	var appErr *apperr.Error
	if e, ok := err.(*apperr.Error); ok {
		appErr = e
		kind = e.Kind
	}
	status := apperr.HTTPStatus(kind)
	msg := err.Error()
	if appErr != nil {
		msg = appErr.Message
	}
	writeJSON(w, status, errorBody{Success: false, Error: errorDesc{Type: string(kind), Message: msg}})
}
