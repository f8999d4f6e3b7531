package core

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultMetricsNamespace prefixes every exported metric name.
const DefaultMetricsNamespace = "upvcerp"

// Metrics records command outcomes and the latest inventory valuation on a
// Prometheus registry.
type Metrics struct {
	commands  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	valuation prometheus.Gauge
}

// NewMetrics registers the service collectors on reg. Collectors that are
// already registered are reused, so several services may share a registry.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if namespace == "" {
		namespace = DefaultMetricsNamespace
	}
	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Commands executed, by command and outcome.",
	}, []string{"command", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "command_duration_seconds",
		Help:      "Command latency including the durable write.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"command"})
	value := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "inventory_value",
		Help:      "Inventory valuation after the last committed mutation.",
	})

	m := &Metrics{}
	var err error
	if m.commands, err = registerOrReuse(reg, commands); err != nil {
		return nil, err
	}
	if m.duration, err = registerOrReuse(reg, duration); err != nil {
		return nil, err
	}
	if m.valuation, err = registerOrReuse[prometheus.Gauge](reg, value); err != nil {
		return nil, err
	}
	return m, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if reg == nil {
		return c, nil
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// Observe records a command outcome.
func (m *Metrics) Observe(_ context.Context, command string, success bool, duration time.Duration) {
	if m == nil || command == "" {
		return
	}
	outcome := "error"
	if success {
		outcome = "success"
	}
	m.commands.WithLabelValues(command, outcome).Inc()
	m.duration.WithLabelValues(command).Observe(duration.Seconds())
}

// SetValuation publishes the current inventory value.
func (m *Metrics) SetValuation(value float64) {
	if m == nil {
		return
	}
	m.valuation.Set(value)
}
