package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"onepersonleft.ai/internal/transport/ws"
)

type fixedMetrics ws.Metrics

func (f fixedMetrics) Metrics() ws.Metrics { return ws.Metrics(f) }

func TestMetricsHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	metricsHandler(fixedMetrics{OpenSessions: 2, TotalSessions: 7, TicksServed: 1040}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, line := range []string{
		"opl_sessions_open 2\n",
		"opl_sessions_total 7\n",
		"opl_ticks_served_total 1040\n",
		"# TYPE opl_ticks_served_total counter\n",
	} {
		if !strings.Contains(body, line) {
			t.Fatalf("missing %q in:\n%s", line, body)
		}
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("OPL_TEST_KNOB", "  :9090 ")
	if got := envOr("OPL_TEST_KNOB", ":8080"); got != ":9090" {
		t.Fatalf("got %q", got)
	}
	t.Setenv("OPL_TEST_KNOB", "")
	if got := envOr("OPL_TEST_KNOB", ":8080"); got != ":8080" {
		t.Fatalf("got %q", got)
	}
}
