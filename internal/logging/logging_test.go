package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"lubixbot/internal/config"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.Logging
		debug bool
		info  bool
	}{
		{"default info", config.Logging{}, false, true},
		{"debug", config.Logging{Level: "debug"}, true, true},
		{"warn dev", config.Logging{Level: "WARN", Development: true}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)

			require.NoError(t, err)
			require.Equal(t, tt.debug, logger.Core().Enabled(zapcore.DebugLevel))
			require.Equal(t, tt.info, logger.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(config.Logging{Level: "loud"})

	require.ErrorContains(t, err, "logging")
}
