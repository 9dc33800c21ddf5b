package auth

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink counts activity events in Prometheus
type MetricsSink struct {
	events *prometheus.CounterVec
}

var _ ActivitySink = (*MetricsSink)(nil)

// NewMetricsSink registers the activity counter with reg
func NewMetricsSink(reg prometheus.Registerer) (*MetricsSink, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blogauth",
		Name:      "activity_events_total",
		Help:      "Authentication and lifecycle events by type and outcome code.",
	}, []string{"event", "code"})

	if reg != nil {
		if err := reg.Register(events); err != nil {
			return nil, fmt.Errorf("register activity metrics: %w", err)
		}
	}
	return &MetricsSink{events: events}, nil
}

func (m *MetricsSink) Record(_ context.Context, event ActivityEvent) error {
	code, _ := event.Metadata["code"].(string)
	if code == "" {
		code, _ = event.Metadata["reason"].(string)
	}
	m.events.WithLabelValues(string(event.EventType), code).Inc()
	return nil
}

// Collector exposes the underlying counter, used by tests
func (m *MetricsSink) Collector() *prometheus.CounterVec {
	return m.events
}
