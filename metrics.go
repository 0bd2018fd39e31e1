package nanny

import "time"

// Metrics receives counters from a Nanny instance. pkg/metrics provides a
// Prometheus implementation.
type Metrics interface {
	ObserveUpdate(d time.Duration, err error)
	IncRender()
	IncPersistFailure(op string)
	IncShapeMismatch()
	ObserveRoute(found bool)
}

type noopMetrics struct{}

func (noopMetrics) ObserveUpdate(time.Duration, error) {}
func (noopMetrics) IncRender()                         {}
func (noopMetrics) IncPersistFailure(string)           {}
func (noopMetrics) IncShapeMismatch()                  {}
func (noopMetrics) ObserveRoute(bool)                  {}
