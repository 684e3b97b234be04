package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/juststeveking/vpnwatch/internal/config"
)

func TestStateBeginReconnectIsExclusive(t *testing.T) {
	s := NewState()
	now := time.Now()

	if !s.BeginReconnect(now, 30*time.Second) {
		t.Fatal("Expected first BeginReconnect to succeed")
	}
	if s.BeginReconnect(now, 30*time.Second) {
		t.Error("Expected second BeginReconnect to be refused")
	}

	s.EndReconnect()
	if s.Reconnecting() {
		t.Error("Expected guard to be released")
	}
	if !s.BeginReconnect(now, 30*time.Second) {
		t.Error("Expected BeginReconnect to succeed after release")
	}
}

func TestStateCooldownNeverShrinks(t *testing.T) {
	s := NewState()
	now := time.Now()

	s.BeginReconnect(now, time.Minute)
	first := s.Snapshot().CooldownUntil
	s.EndReconnect()

	// A shorter window starting at the same time must not pull the deadline back
	s.BeginReconnect(now, time.Second)
	if got := s.Snapshot().CooldownUntil; !got.Equal(first) {
		t.Errorf("Expected cooldown to stay at %v, got %v", first, got)
	}
	s.EndReconnect()

	s.BeginReconnect(now.Add(2*time.Minute), time.Minute)
	if got := s.Snapshot().CooldownUntil; !got.After(first) {
		t.Errorf("Expected cooldown to move forward past %v, got %v", first, got)
	}

	if !s.InCooldown(now.Add(2 * time.Minute)) {
		t.Error("Expected to be in cooldown")
	}
	if s.InCooldown(now.Add(4 * time.Minute)) {
		t.Error("Expected cooldown to have expired")
	}
}

func TestStateRefusedReconnectLeavesCooldown(t *testing.T) {
	s := NewState()
	now := time.Now()

	s.BeginReconnect(now, time.Second)
	before := s.Snapshot().CooldownUntil

	if s.BeginReconnect(now, time.Hour) {
		t.Fatal("Expected refusal while reconnecting")
	}
	if got := s.Snapshot().CooldownUntil; !got.Equal(before) {
		t.Errorf("Refused reconnect changed cooldown from %v to %v", before, got)
	}
}

func TestPolicyThreshold(t *testing.T) {
	s := NewState()
	p := Policy{Mode: config.PolicyThreshold, Threshold: 3}
	fail := ProbeResult{StatusCode: 503}

	for i := 1; i <= 2; i++ {
		v := p.Observe(s, fail)
		if v.Reconnect {
			t.Fatalf("Unexpected reconnect after %d failures", i)
		}
		if v.FailCount != i {
			t.Errorf("Expected fail count %d, got %d", i, v.FailCount)
		}
	}

	v := p.Observe(s, fail)
	if !v.Reconnect {
		t.Fatal("Expected reconnect on third failure")
	}
	if v.Reason != "3 consecutive errors" {
		t.Errorf("Unexpected reason %q", v.Reason)
	}
	if s.Snapshot().FailCount != 0 {
		t.Errorf("Expected fail count reset after trigger, got %d", s.Snapshot().FailCount)
	}
}

func TestPolicyFetchErrorReason(t *testing.T) {
	s := NewState()
	p := Policy{Mode: config.PolicyThreshold, Threshold: 2}
	fail := ProbeResult{Err: errors.New("dial tcp: connection refused")}

	p.Observe(s, fail)
	v := p.Observe(s, fail)
	if !v.Reconnect || v.Reason != "2 consecutive fetch errors" {
		t.Errorf("Unexpected verdict %+v", v)
	}
}

func TestPolicySuccessResets(t *testing.T) {
	s := NewState()
	p := Policy{Mode: config.PolicyThreshold, Threshold: 3}

	p.Observe(s, ProbeResult{StatusCode: 500})
	p.Observe(s, ProbeResult{Err: errors.New("timeout")})

	v := p.Observe(s, ProbeResult{StatusCode: 200, Healthy: true})
	if !v.Recovered {
		t.Error("Expected recovery after failures")
	}
	if s.Snapshot().FailCount != 0 {
		t.Errorf("Expected fail count 0, got %d", s.Snapshot().FailCount)
	}

	v = p.Observe(s, ProbeResult{StatusCode: 200, Healthy: true})
	if v.Recovered {
		t.Error("Expected no recovery when nothing had failed")
	}
}

func TestPolicyImmediate(t *testing.T) {
	s := NewState()
	p := Policy{Mode: config.PolicyImmediate, Threshold: 1}

	v := p.Observe(s, ProbeResult{StatusCode: 403})
	if !v.Reconnect || v.Reason != "status 403" {
		t.Errorf("Unexpected verdict %+v", v)
	}

	v = p.Observe(s, ProbeResult{Err: errors.New("no such host")})
	if !v.Reconnect || v.Reason != "fetch error" {
		t.Errorf("Unexpected verdict %+v", v)
	}
	if s.Snapshot().FailCount != 0 {
		t.Errorf("Expected fail count 0 under immediate policy, got %d", s.Snapshot().FailCount)
	}
}
