package metrics_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	nanny "github.com/goliatone/go-nanny"
	"github.com/goliatone/go-nanny/pkg/metrics"
	"github.com/goliatone/go-nanny/pkg/state"
	"github.com/goliatone/go-nanny/router"
)

var _ nanny.Metrics = (*metrics.Collector)(nil)

func TestCollectorCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.NewCollector(reg, "")
	if err != nil {
		t.Fatalf("collector: %v", err)
	}
	c.ObserveUpdate(time.Millisecond, nil)
	c.ObserveUpdate(time.Millisecond, errors.New("boom"))
	c.IncRender()
	c.IncPersistFailure("save")
	c.IncShapeMismatch()
	c.ObserveRoute(false)

	expected := `
# HELP nanny_updates_total Update and navigation cycles by outcome.
# TYPE nanny_updates_total counter
nanny_updates_total{outcome="error"} 1
nanny_updates_total{outcome="ok"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "nanny_updates_total"); err != nil {
		t.Fatalf("unexpected updates metric: %v", err)
	}
	if got := testutil.ToFloat64(c.Renders()); got != 1 {
		t.Fatalf("expected 1 render, got %v", got)
	}
	if n := testutil.CollectAndCount(reg, "nanny_update_duration_seconds"); n != 1 {
		t.Fatalf("expected one histogram, got %d", n)
	}
}

func TestCollectorRegistersTwiceWithoutError(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := metrics.NewCollector(reg, "app"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := metrics.NewCollector(reg, "app"); err != nil {
		t.Fatalf("second registration should be tolerated: %v", err)
	}
	if _, err := metrics.NewCollector(nil, "app"); err != nil {
		t.Fatalf("nil registerer: %v", err)
	}
}

func TestCollectorWiredIntoNanny(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.NewCollector(reg, "ui")
	if err != nil {
		t.Fatalf("collector: %v", err)
	}
	n, err := nanny.New(nanny.Record(nil),
		nanny.WithMetrics(c),
		nanny.WithRoutes(nanny.Route{Path: "/"}),
		nanny.WithStore(state.NewMemoryStore(state.WithQuota(4))),
		nanny.WithStorageKey("k"),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	n.Update(nanny.Set("a", 1))
	if err := n.Navigate("/missing"); !errors.Is(err, router.ErrRouteNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	expected := `
# HELP ui_route_resolutions_total Navigation route lookups by result.
# TYPE ui_route_resolutions_total counter
ui_route_resolutions_total{result="found"} 1
ui_route_resolutions_total{result="not_found"} 1
# HELP ui_renders_total Renderer invocations.
# TYPE ui_renders_total counter
ui_renders_total 3
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "ui_route_resolutions_total", "ui_renders_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
	if got := testutil.ToFloat64(c.PersistFailures("save")); got < 1 {
		t.Fatalf("expected save failures counted, got %v", got)
	}
}
