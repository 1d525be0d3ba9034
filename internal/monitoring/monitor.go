// Package monitoring periodically samples queue state into Prometheus
// gauges so dashboards can see backlog without scraping RabbitMQ.
package monitoring

import (
	"context"
	"time"

	"github.com/videokit/bgremove/internal/logging"
	"github.com/videokit/bgremove/internal/metrics"
)

// QueueProvider reports the number of jobs waiting in the queue.
type QueueProvider interface {
	GetQueueDepth() (int, error)
}

// Monitor samples queue depth on a fixed interval.
type Monitor struct {
	queue    QueueProvider
	logger   *logging.Logger
	interval time.Duration
}

// NewMonitor creates a monitor sampling every interval. A zero interval
// defaults to ten seconds.
func NewMonitor(queue QueueProvider, logger *logging.Logger, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{
		queue:    queue,
		logger:   logger,
		interval: interval,
	}
}

// Start begins sampling until the context is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go m.loop(ctx)
}

func (m *Monitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	depth, err := m.queue.GetQueueDepth()
	if err != nil {
		m.logger.Warnf("Failed to sample queue depth: %v", err)
		return
	}
	metrics.QueueDepth.Set(float64(depth))
}
