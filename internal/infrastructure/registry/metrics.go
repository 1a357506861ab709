package registry

import (
	"fmt"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsSubsystem = "operation_registry"

// Metrics exposes registry occupancy and churn. A nil *Metrics disables instrumentation.
type Metrics struct {
	operations prometheus.Gauge
	pruneable  prometheus.Gauge
	clients    prometheus.Gauge
	added      prometheus.Counter
	removed    *prometheus.CounterVec
	reclaims   prometheus.Counter
}

// NewMetrics creates the registry collectors under namespace and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "operations",
			Help:      "Number of live operations tracked by the registry.",
		}),
		pruneable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "pruneable_operations",
			Help:      "Number of live operations eligible for eviction.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "clients",
			Help:      "Number of clients owning at least one live operation.",
		}),
		added: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "operations_added_total",
			Help:      "Total number of operations registered.",
		}),
		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "operations_removed_total",
			Help:      "Total number of operations removed, by reason.",
		}, []string{"reason"}),
		reclaims: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "client_reclaims_total",
			Help:      "Total number of clients whose operations were reclaimed in bulk.",
		}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.pruneable, m.clients, m.added, m.removed, m.reclaims} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register registry metrics: %w", err)
		}
	}

	m.removed.WithLabelValues(operations.RemovalReasonExplicit)
	m.removed.WithLabelValues(operations.RemovalReasonDisconnect)

	return m, nil
}

func (m *Metrics) observe(stats operations.Stats) {
	if m == nil {
		return
	}
	m.operations.Set(float64(stats.Operations))
	m.pruneable.Set(float64(stats.Pruneable))
	m.clients.Set(float64(stats.Clients))
}

func (m *Metrics) operationAdded() {
	if m == nil {
		return
	}
	m.added.Inc()
}

func (m *Metrics) operationRemoved(reason string) {
	if m == nil {
		return
	}
	m.removed.WithLabelValues(reason).Inc()
}

func (m *Metrics) clientReclaimed() {
	if m == nil {
		return
	}
	m.reclaims.Inc()
}
