package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"scholar-export/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPinger struct {
	name string
	err  error
}

func (p stubPinger) Name() string { return p.name }
func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthChecker_CheckAll(t *testing.T) {
	h := NewHealthChecker(zap.NewNop(), time.Second,
		stubPinger{name: "hc-up"},
		stubPinger{name: "hc-down", err: errors.New("connection refused")},
	)
	assert.True(t, h.Healthy())

	h.CheckAll(context.Background())

	status := h.Status()
	require.Len(t, status, 2)
	assert.True(t, status["hc-up"].Up)
	assert.False(t, status["hc-down"].Up)
	assert.Equal(t, "connection refused", status["hc-down"].Error)
	assert.False(t, h.Healthy())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UpstreamUp.WithLabelValues("hc-up")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.UpstreamUp.WithLabelValues("hc-down")))
}

func TestHealthChecker_Schedule(t *testing.T) {
	h := NewHealthChecker(zap.NewNop(), time.Second, stubPinger{name: "hc-cron"})
	c := cron.New()

	id, err := h.Schedule(c, "@every 1m")
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Len(t, c.Entries(), 1)

	_, err = h.Schedule(c, "not a schedule")
	assert.Error(t, err)
}
