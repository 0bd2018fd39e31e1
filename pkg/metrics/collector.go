// Package metrics exports nanny instance counters to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name when none is given.
const DefaultNamespace = "nanny"

// Collector implements nanny.Metrics on top of Prometheus vectors.
type Collector struct {
	updates         *prometheus.CounterVec
	updateDuration  prometheus.Histogram
	renders         prometheus.Counter
	persistFailures *prometheus.CounterVec
	mismatches      prometheus.Counter
	routes          *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with reg. A nil reg
// leaves them unregistered.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	c := &Collector{
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Update and navigation cycles by outcome.",
		}, []string{"outcome"}),
		updateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_duration_seconds",
			Help:      "Time spent in an update cycle, render included.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Renderer invocations.",
		}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Snapshot load, decode, encode and save failures.",
		}, []string{"op"}),
		mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shape_mismatches_total",
			Help:      "Scalar candidates rejected by record state and records replacing scalars.",
		}),
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_resolutions_total",
			Help:      "Navigation route lookups by result.",
		}, []string{"result"}),
	}
	if reg == nil {
		return c, nil
	}
	var err error
	if c.updates, err = register(reg, c.updates); err != nil {
		return nil, err
	}
	if c.updateDuration, err = register(reg, c.updateDuration); err != nil {
		return nil, err
	}
	if c.renders, err = register(reg, c.renders); err != nil {
		return nil, err
	}
	if c.persistFailures, err = register(reg, c.persistFailures); err != nil {
		return nil, err
	}
	if c.mismatches, err = register(reg, c.mismatches); err != nil {
		return nil, err
	}
	if c.routes, err = register(reg, c.routes); err != nil {
		return nil, err
	}
	return c, nil
}

// register adopts an already registered collector of the same type so two
// instances can share one registry.
func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return collector, err
}

func (c *Collector) ObserveUpdate(d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.updates.WithLabelValues(outcome).Inc()
	c.updateDuration.Observe(d.Seconds())
}

func (c *Collector) IncRender() {
	c.renders.Inc()
}

func (c *Collector) IncPersistFailure(op string) {
	c.persistFailures.WithLabelValues(op).Inc()
}

func (c *Collector) IncShapeMismatch() {
	c.mismatches.Inc()
}

func (c *Collector) ObserveRoute(found bool) {
	result := "found"
	if !found {
		result = "not_found"
	}
	c.routes.WithLabelValues(result).Inc()
}

// Renders exposes the render counter.
func (c *Collector) Renders() prometheus.Counter {
	return c.renders
}

// PersistFailures exposes the failure counter for op.
func (c *Collector) PersistFailures(op string) prometheus.Counter {
	return c.persistFailures.WithLabelValues(op)
}
