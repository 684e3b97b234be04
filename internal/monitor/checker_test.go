package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/juststeveking/vpnwatch/internal/config"
)

func TestHTTPChecker(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("<html>ignored</html>"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	// Test healthy target
	checker := NewHTTPChecker(config.Target{URL: ts.URL + "/"}, 1*time.Second)
	defer checker.Close()

	result := checker.Check(context.Background())
	if !result.Healthy || result.StatusCode != http.StatusOK {
		t.Errorf("Expected healthy 200, got %+v", result)
	}

	// Test unhealthy target
	checker = NewHTTPChecker(config.Target{URL: ts.URL + "/down"}, 1*time.Second)
	defer checker.Close()

	result = checker.Check(context.Background())
	if result.Healthy {
		t.Error("Expected 503 to be unhealthy")
	}
	if result.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", result.StatusCode)
	}
	if result.Err != nil {
		t.Errorf("Expected no error for a status failure, got %v", result.Err)
	}
}

func TestHTTPCheckerSendsHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("User-Agent") != config.DefaultHeaders["User-Agent"] {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.Header.Get("Accept-Language") != "en-US,en;q=0.9" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	checker := NewHTTPChecker(config.Target{URL: ts.URL, Headers: config.DefaultHeaders}, 1*time.Second)
	defer checker.Close()

	result := checker.Check(context.Background())
	if !result.Healthy {
		t.Errorf("Expected browser headers to be accepted, got status %d", result.StatusCode)
	}
}

func TestHTTPCheckerDoesNotFollowRedirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/elsewhere", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	checker := NewHTTPChecker(config.Target{URL: ts.URL + "/"}, 1*time.Second)
	defer checker.Close()

	result := checker.Check(context.Background())
	if result.StatusCode != http.StatusFound || result.Healthy {
		t.Errorf("Expected unhealthy 302, got %+v", result)
	}
}

func TestHTTPCheckerNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	checker := NewHTTPChecker(config.Target{URL: url}, 1*time.Second)
	defer checker.Close()

	result := checker.Check(context.Background())
	if result.Err == nil {
		t.Error("Expected error for closed server")
	}
	if result.Healthy {
		t.Error("Expected closed server to be unhealthy")
	}
}

func TestHTTPCheckerTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	checker := NewHTTPChecker(config.Target{URL: ts.URL}, 50*time.Millisecond)
	defer checker.Close()

	result := checker.Check(context.Background())
	if result.Err == nil {
		t.Error("Expected timeout error")
	}
}
