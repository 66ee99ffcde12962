package shutdown

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	shutdownDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_shutdown_duration_seconds",
		Help:    "Total time taken to shut down gracefully",
		Buckets: []float64{1, 5, 10, 15, 20, 30},
	})

	shutdownErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_shutdown_errors_total",
		Help: "Shutdown errors by component",
	}, []string{"component"})
)

// Func shuts down one component
type Func func(context.Context) error

type component struct {
	name string
	fn   Func
}

// Manager coordinates graceful shutdown. Components shut down in reverse
// registration order, so register outer layers last: stores first, then
// the page channel, then HTTP servers.
type Manager struct {
	mu         sync.Mutex
	components []component
	timeout    time.Duration
	logger     *zap.Logger
}

// NewManager creates a shutdown manager with an overall timeout
func NewManager(logger *zap.Logger, timeout time.Duration) *Manager {
	return &Manager{timeout: timeout, logger: logger}
}

// Register adds a component; later registrations shut down earlier
func (m *Manager) Register(name string, fn Func) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component{name: name, fn: fn})
}

// RegisterServer registers anything with a context-aware Shutdown method
func (m *Manager) RegisterServer(name string, server interface {
	Shutdown(context.Context) error
}) {
	m.Register(name, server.Shutdown)
}

// RegisterCloser registers anything with a plain Close method
func (m *Manager) RegisterCloser(name string, closer interface{ Close() error }) {
	m.Register(name, func(context.Context) error { return closer.Close() })
}

// RegisterNoErr registers a shutdown step that cannot fail
func (m *Manager) RegisterNoErr(name string, fn func()) {
	m.Register(name, func(context.Context) error {
		fn()
		return nil
	})
}

// Shutdown runs every registered component in reverse order, bounded by the
// manager's timeout. Failures are logged and counted, never fatal.
func (m *Manager) Shutdown() {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	components := make([]component, len(m.components))
	copy(components, m.components)
	m.mu.Unlock()

	m.logger.Info("shutting down",
		zap.Int("components", len(components)),
		zap.Duration("timeout", m.timeout))

	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if err := c.fn(ctx); err != nil {
			shutdownErrors.WithLabelValues(c.name).Inc()
			m.logger.Error("component shutdown failed",
				zap.String("component", c.name),
				zap.Error(err))
			continue
		}
		m.logger.Debug("component shut down", zap.String("component", c.name))
	}

	shutdownDuration.Observe(time.Since(start).Seconds())
	m.logger.Info("shutdown complete", zap.Duration("elapsed", time.Since(start)))
}
