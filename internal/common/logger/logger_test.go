package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestBuild_InvalidOutputFallsBackToNop(t *testing.T) {
	l, err := Build(Options{Level: "info", Format: "json", Output: "/nonexistent-dir/research.log"})

	require.Error(t, err)
	require.NotNil(t, l)
}

func TestZapWrapper_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.With(map[string]interface{}{"taskType": "research-business"}).
		Info("processing job", map[string]interface{}{"jobKey": int64(42)})
	log.WithError(errors.New("boom")).Error("job failed", map[string]interface{}{"cause": errors.New("inner")})

	entries := logs.All()
	require.Len(t, entries, 2)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "research-business", ctx["taskType"])
	assert.Equal(t, int64(42), ctx["jobKey"])

	errCtx := entries[1].ContextMap()
	assert.Equal(t, "boom", errCtx["error"])
	assert.Equal(t, "inner", errCtx["cause"])
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	assert.NotPanics(t, func() {
		log.Debug("x", nil)
		log.WithFields(map[string]interface{}{"a": 1}).Warn("y", nil)
	})
}
