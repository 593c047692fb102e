package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/petasbytes/overview-agent/internal/config"
	"github.com/petasbytes/overview-agent/internal/logging"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		verbose bool
		want    zapcore.Level
	}{
		{"default is info", config.LoggingConfig{}, false, zapcore.InfoLevel},
		{"json warn", config.LoggingConfig{Level: "warn", Format: "json"}, false, zapcore.WarnLevel},
		{"console debug", config.LoggingConfig{Level: "debug", Format: "console"}, false, zapcore.DebugLevel},
		{"verbose wins", config.LoggingConfig{Level: "error"}, true, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := logging.New(tt.cfg, tt.verbose)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNew_BadLevel(t *testing.T) {
	_, err := logging.New(config.LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)
}
