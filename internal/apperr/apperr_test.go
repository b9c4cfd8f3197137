package apperr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atlas-desktop/midasgw/internal/apperr"
)

func TestNewAndError(t *testing.T) {
	err := apperr.New(apperr.InvalidInput, "symbol is required")
	assert.Equal(t, "invalid_input: symbol is required", err.Error())
}

func TestWrapCarriesCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := apperr.Wrap(apperr.Upstream, "fetching candles", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dial tcp: timeout")
}

func TestIsMatchesKind(t *testing.T) {
	err := apperr.New(apperr.InsufficientHistory, "too few bars")
	assert.True(t, apperr.Is(err, apperr.InsufficientHistory))
	assert.False(t, apperr.Is(err, apperr.InvalidInput))
	assert.False(t, apperr.Is(errors.New("plain"), apperr.InvalidInput))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.InvalidInput:        400,
		apperr.Upstream:            502,
		apperr.Timeout:             504,
		apperr.InsufficientData:    422,
		apperr.InsufficientHistory: 422,
		apperr.InvalidOHLC:         502,
		apperr.CacheUnavailable:    503,
		apperr.Internal:            500,
	}
	for kind, status := range cases {
		assert.Equal(t, status, apperr.HTTPStatus(kind), "kind %s", kind)
	}
}

func TestWrapUpstreamCarriesStatusAndBody(t *testing.T) {
	err := apperr.WrapUpstream(418, `{"code":-1121}`)
	assert.Equal(t, apperr.Upstream, err.Kind)
	assert.Equal(t, 418, err.Status)
	assert.Equal(t, `{"code":-1121}`, err.Body)
}
