package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/juststeveking/vpnwatch/internal/monitor"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorRecordsProbes(t *testing.T) {
	c := NewCollector()

	c.ProbeObserved(monitor.ProbeResult{StatusCode: 200, Healthy: true, ResponseTime: 120 * time.Millisecond})
	c.ProbeObserved(monitor.ProbeResult{StatusCode: 503})
	c.ProbeObserved(monitor.ProbeResult{Err: errors.New("timeout")})
	c.ProbeSkipped()
	c.FailCount(2)

	if got := testutil.ToFloat64(c.probes.WithLabelValues("ok")); got != 1 {
		t.Errorf("Expected 1 ok probe, got %v", got)
	}
	if got := testutil.ToFloat64(c.probes.WithLabelValues("503")); got != 1 {
		t.Errorf("Expected 1 probe with status 503, got %v", got)
	}
	if got := testutil.ToFloat64(c.probes.WithLabelValues("error")); got != 1 {
		t.Errorf("Expected 1 errored probe, got %v", got)
	}
	if got := testutil.ToFloat64(c.probesSkipped); got != 1 {
		t.Errorf("Expected 1 skipped probe, got %v", got)
	}
	if got := testutil.ToFloat64(c.failCount); got != 2 {
		t.Errorf("Expected fail count 2, got %v", got)
	}
}

func TestCollectorRecordsReconnects(t *testing.T) {
	c := NewCollector()

	c.ReconnectFinished(monitor.ReconnectEvent{Stage: monitor.StageConnect, FinishedAt: time.Unix(100, 0)})
	c.ReconnectFinished(monitor.ReconnectEvent{Stage: monitor.StageDisconnect, Err: errors.New("boom"), FinishedAt: time.Unix(200, 0)})

	if got := testutil.ToFloat64(c.reconnects.WithLabelValues("success", "")); got != 1 {
		t.Errorf("Expected 1 successful reconnect, got %v", got)
	}
	if got := testutil.ToFloat64(c.reconnects.WithLabelValues("failure", "disconnect")); got != 1 {
		t.Errorf("Expected 1 failed disconnect, got %v", got)
	}
	if got := testutil.ToFloat64(c.lastReconnect); got != 200 {
		t.Errorf("Expected last reconnect timestamp 200, got %v", got)
	}
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector()
	c.ProbeSkipped()

	ts := httptest.NewServer(c.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "vpnwatch_probes_skipped_total 1") {
		t.Errorf("Expected skipped counter in output, got:\n%s", body)
	}
}
