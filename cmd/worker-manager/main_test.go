package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"business-research/internal/common/config"
	"business-research/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWorkerTimeout(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)

	tests := []struct {
		name     string
		wcfg     config.WorkerConfig
		taskType string
		want     time.Duration
	}{
		{"configured wins", config.WorkerConfig{Timeout: 45000}, "research-business", 45 * time.Second},
		{"registry timeout", config.WorkerConfig{}, "research-batch", 600 * time.Second},
		{"unknown task uses fallback", config.WorkerConfig{}, "send-email", 7 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, workerTimeout(tt.wcfg, reg, tt.taskType, 7*time.Second))
		})
	}
}

func TestServeMux_HealthAndMetrics(t *testing.T) {
	srv := httptest.NewServer(newServeMux(nil, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, 5, time.Millisecond, zap.NewNop(), "redis")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	boom := errors.New("still down")
	err = retryWithBackoff(context.Background(), func() error { return boom }, 2, time.Millisecond, zap.NewNop(), "redis")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "redis failed after 2 attempts")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = retryWithBackoff(ctx, func() error { return boom }, 5, time.Hour, zap.NewNop(), "redis")
	assert.ErrorIs(t, err, context.Canceled)
}
