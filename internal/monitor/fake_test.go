package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/juststeveking/vpnwatch/internal/config"
	"github.com/juststeveking/vpnwatch/internal/logging"
)

// fakeClient records VPN CLI invocations
type fakeClient struct {
	mu            sync.Mutex
	disconnectErr error
	connectErr    error
	disconnects   int
	connects      int
	regions       []string

	// When block is set Disconnect signals entered and waits for block to close
	block   chan struct{}
	entered chan struct{}

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeClient) Disconnect(ctx context.Context) (string, error) {
	n := f.inFlight.Add(1)
	for {
		max := f.maxInFlight.Load()
		if n <= max || f.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}

	f.mu.Lock()
	f.disconnects++
	f.mu.Unlock()

	if f.block != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		<-f.block
	}

	if f.disconnectErr != nil {
		f.inFlight.Add(-1)
		return "", f.disconnectErr
	}
	return "disconnected", nil
}

func (f *fakeClient) Connect(ctx context.Context, region string) (string, error) {
	defer f.inFlight.Add(-1)

	f.mu.Lock()
	f.connects++
	f.regions = append(f.regions, region)
	f.mu.Unlock()

	if f.connectErr != nil {
		return "", f.connectErr
	}
	return "connected to " + region, nil
}

func (f *fakeClient) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects, f.connects
}

// statusServer answers every request with status and counts hits
func statusServer(t *testing.T, status *atomic.Int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	hits := &atomic.Int32{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(int(status.Load()))
	}))
	t.Cleanup(ts.Close)
	return ts, hits
}

func testConfig(url string) *config.Config {
	cfg := &config.Config{
		Target:      config.Target{URL: url, Timeout: "1s"},
		SettleDelay: "0s",
		Regions:     []string{"Canada", "Australia", "Hong Kong", "Taiwan", "Poland", "Ireland"},
		RegionSeed:  42,
	}
	cfg.ApplyDefaults()
	return cfg
}

func testLogger() *logging.Logger {
	return logging.New(nil, "")
}
