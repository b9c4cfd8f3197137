package api

import (
	"net/http"
	"strconv"

	"github.com/atlas-desktop/midasgw/internal/apperr"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
	"github.com/atlas-desktop/midasgw/pkg/utils"
)

func requireSymbol(r *http.Request) (string, error) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		return "", apperr.New(apperr.InvalidInput, "symbol is required")
	}
	return utils.FormatSymbol(symbol), nil
}

func requireTimeframe(r *http.Request, param string) (timeframe.Timeframe, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return "", apperr.New(apperr.InvalidInput, param+" is required")
	}
	tf := timeframe.Timeframe(raw)
	if !timeframe.Valid(tf) {
		return "", apperr.New(apperr.InvalidInput, "unsupported timeframe "+raw)
	}
	return tf, nil
}

func optionalTimeframe(r *http.Request, param string) (*timeframe.Timeframe, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil, nil
	}
	tf := timeframe.Timeframe(raw)
	if !timeframe.Valid(tf) {
		return nil, apperr.New(apperr.InvalidInput, "unsupported timeframe "+raw)
	}
	return &tf, nil
}

func intParam(r *http.Request, param string, def int) (int, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.New(apperr.InvalidInput, param+" must be an integer")
	}
	return v, nil
}

func optionalInt64Param(r *http.Request, param string) (*int64, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperr.New(apperr.InvalidInput, param+" must be an epoch millisecond integer")
	}
	return &v, nil
}
