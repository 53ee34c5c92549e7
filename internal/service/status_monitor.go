// internal/service/status_monitor.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StatusMonitor polls the display at a fixed interval so that websocket
// and MQTT consumers see live readings without issuing requests themselves.
type StatusMonitor struct {
	psu      *PowerSupplyService
	interval time.Duration
	logger   *zap.Logger
}

// NewStatusMonitor creates a monitor polling psu every interval
func NewStatusMonitor(psu *PowerSupplyService, interval time.Duration, logger *zap.Logger) *StatusMonitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &StatusMonitor{
		psu:      psu,
		interval: interval,
		logger:   logger.With(zap.String("component", "status_monitor")),
	}
}

// Run polls until ctx is done
func (m *StatusMonitor) Run(ctx context.Context) {
	m.logger.Info("Status monitor started", zap.Duration("interval", m.interval))
	defer m.logger.Info("Status monitor stopped")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *StatusMonitor) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := m.psu.PollDisplayStatus(ctx); err != nil {
		m.logger.Debug("Display poll failed", zap.Error(err))
	}
}
