package zaplog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewWithCore(core, zapcore.DebugLevel)

	logger.Info("HardSession.submit.policyTimeout", "session", "s-1", "policy", "pol-1")
	logger.Warn("HardSession.errorFromPolicy.unmappedCode", "errors", "[BRAND_NEW]")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "HardSession.submit.policyTimeout", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, map[string]any{"session": "s-1", "policy": "pol-1"}, entries[0].ContextMap())
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestLoggerLevelGate(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewWithCore(core, zapcore.WarnLevel)

	logger.Debug("Resolve.stream.closed")
	logger.Info("SoftSession.created")
	logger.Error("SoftSession.submit.error", "error", "boom")
	assert.Equal(t, 1, logs.Len())

	require.NoError(t, logger.SetLevel("debug"))
	logger.Debug("Resolve.stream.closed")
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logger.Level())

	require.Error(t, logger.SetLevel("chatty"))
	assert.Equal(t, zapcore.DebugLevel, logger.Level())
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    zapcore.Level
		wantErr bool
	}{
		{raw: "", want: zapcore.WarnLevel},
		{raw: "DEBUG", want: zapcore.DebugLevel},
		{raw: " info ", want: zapcore.InfoLevel},
		{raw: "error", want: zapcore.ErrorLevel},
		{raw: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLevel(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewBuildsProductionAndDevelopmentLoggers(t *testing.T) {
	t.Parallel()

	prod, err := New(Options{Level: "info"})
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, prod.Level())

	dev, err := New(Options{Development: true})
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, dev.Level())

	_, err = New(Options{Level: "nope"})
	require.Error(t, err)
}
