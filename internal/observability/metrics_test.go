package observability

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAPICollectorObserveCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector error: %v", err)
	}

	c.ObserveCall("tick", "200", 0.25)
	c.ObserveCall("tick", "200", 0.5)
	c.ObserveCall("query", "503", 0.1)

	if got := testutil.ToFloat64(c.Requests.WithLabelValues("tick", "200")); got != 2 {
		t.Fatalf("tick/200 count = %g, want 2", got)
	}
	if got := testutil.ToFloat64(c.Requests.WithLabelValues("query", "503")); got != 1 {
		t.Fatalf("query/503 count = %g, want 1", got)
	}
}

func TestAPICollectorCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector error: %v", err)
	}

	c.AddTickSeconds(400)
	c.AddTickSeconds(100)
	if got := testutil.ToFloat64(c.TickSeconds); got != 500 {
		t.Fatalf("tick seconds = %g, want 500", got)
	}

	c.IncTrackedMessages()
	c.IncTrackedMessages()
	if got := testutil.ToFloat64(c.TrackedMessages); got != 2 {
		t.Fatalf("tracked messages = %g, want 2", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *APICollector
	c.ObserveCall("tick", "200", 0.1)
	c.AddTickSeconds(1)
	c.IncTrackedMessages()
}

func TestDuplicateRegistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewAPICollector(reg); err != nil {
		t.Fatalf("first NewAPICollector error: %v", err)
	}
	c, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("second NewAPICollector error: %v", err)
	}
	c.ObserveCall("tick", "200", 0.1)
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector error: %v", err)
	}
	c.ObserveCall("session.create", "200", 0.01)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "simapi_requests_total") {
		t.Fatalf("metrics output missing simapi_requests_total:\n%s", body)
	}
	if !strings.Contains(body, `op="session.create"`) {
		t.Fatalf("metrics output missing op label:\n%s", body)
	}
}
