package services

import (
	"context"
	"sync"
	"time"

	"scholar-export/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pinger ist ein Upstream, dessen Erreichbarkeit geprüft werden kann.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// UpstreamStatus ist das Ergebnis der letzten Prüfung eines Upstreams.
type UpstreamStatus struct {
	Up        bool      `json:"up"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// HealthChecker prüft periodisch die externen Dienste und exportiert das Ergebnis als Gauge.
type HealthChecker struct {
	Targets []Pinger
	Logger  *zap.Logger
	Timeout time.Duration

	mu     sync.RWMutex
	status map[string]UpstreamStatus
}

// NewHealthChecker erstellt einen neuen HealthChecker.
func NewHealthChecker(logger *zap.Logger, timeout time.Duration, targets ...Pinger) *HealthChecker {
	return &HealthChecker{
		Targets: targets,
		Logger:  logger,
		Timeout: timeout,
		status:  make(map[string]UpstreamStatus),
	}
}

// CheckAll prüft alle Upstreams nacheinander.
func (h *HealthChecker) CheckAll(ctx context.Context) {
	for _, t := range h.Targets {
		h.check(ctx, t)
	}
}

func (h *HealthChecker) check(ctx context.Context, t Pinger) {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	st := UpstreamStatus{Up: true, CheckedAt: time.Now().UTC()}
	if err := t.Ping(ctx); err != nil {
		st.Up = false
		st.Error = err.Error()
		h.Logger.Warn("Upstream nicht erreichbar", zap.String("service", t.Name()), zap.Error(err))
		metrics.UpstreamUp.WithLabelValues(t.Name()).Set(0)
	} else {
		h.Logger.Debug("Upstream erreichbar", zap.String("service", t.Name()))
		metrics.UpstreamUp.WithLabelValues(t.Name()).Set(1)
	}

	h.mu.Lock()
	h.status[t.Name()] = st
	h.mu.Unlock()
}

// Status gibt eine Kopie des letzten Prüfergebnisses zurück.
func (h *HealthChecker) Status() map[string]UpstreamStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]UpstreamStatus, len(h.status))
	for k, v := range h.status {
		out[k] = v
	}
	return out
}

// Healthy ist false, sobald ein geprüfter Upstream als down markiert ist.
func (h *HealthChecker) Healthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, st := range h.status {
		if !st.Up {
			return false
		}
	}
	return true
}

// Schedule registriert die periodische Prüfung im Cron-Scheduler.
func (h *HealthChecker) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		h.Logger.Debug("Running scheduled upstream check...")
		h.CheckAll(context.Background())
	})
}
