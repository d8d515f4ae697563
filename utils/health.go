package utils

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthStatus is the latest backend reachability snapshot.
type HealthStatus struct {
	Connected  bool      `json:"connected"`
	StatusCode int       `json:"statusCode,omitempty"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// Pinger issues the liveness GET and reports the HTTP status.
type Pinger interface {
	Ping(ctx context.Context, url string) (int, error)
}

// HealthMonitor polls the backend health endpoint on its own lifecycle.
// Nothing in the booking flow reads it; it only feeds the status endpoint.
type HealthMonitor struct {
	url      string
	interval time.Duration
	pinger   Pinger
	logger   *zap.Logger

	mu      sync.RWMutex
	current HealthStatus
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewHealthMonitor(url string, interval time.Duration, pinger Pinger, logger *zap.Logger) *HealthMonitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthMonitor{url: url, interval: interval, pinger: pinger, logger: logger}
}

// Status returns the latest stored snapshot.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Start checks immediately and then on every interval until Stop or ctx ends.
// Starting a running monitor is a no-op.
func (m *HealthMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.check(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.check(ctx)
			}
		}
	}()
}

// Stop tears the poller down and waits for it to exit.
func (m *HealthMonitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *HealthMonitor) check(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	code, err := m.pinger.Ping(cctx, m.url)
	status := HealthStatus{
		Connected:  err == nil && code == http.StatusOK,
		StatusCode: code,
		CheckedAt:  time.Now(),
	}
	if !status.Connected {
		m.logger.Warn("Backend health check failed", zap.String("url", m.url), zap.Int("status", code), zap.Error(err))
	}

	m.mu.Lock()
	prev := m.current
	m.current = status
	m.mu.Unlock()

	if prev.Connected != status.Connected && !prev.CheckedAt.IsZero() {
		m.logger.Info("Backend connectivity changed", zap.Bool("connected", status.Connected))
	}
}
