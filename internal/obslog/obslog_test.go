package obslog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/atlas-desktop/midasgw/internal/obslog"
)

func TestNewBuildsLoggerAtRequestedLevel(t *testing.T) {
	logger, err := obslog.New("debug")
	assert.NoError(t, err)
	assert.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewDefaultsToInfoOnUnknownLevel(t *testing.T) {
	logger, err := obslog.New("not-a-level")
	assert.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewErrorLevelSuppressesWarn(t *testing.T) {
	logger, err := obslog.New("error")
	assert.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel))
}
