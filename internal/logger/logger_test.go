package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"unknown": zapcore.InfoLevel,
	}

	for level, want := range cases {
		log, err := New(level, "console", "agencyos")
		require.NoError(t, err, level)
		require.True(t, log.Core().Enabled(want), level)
		if want > zapcore.DebugLevel {
			require.False(t, log.Core().Enabled(want-1), level)
		}
	}
}
