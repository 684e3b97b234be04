package monitor

import (
	"fmt"

	"github.com/juststeveking/vpnwatch/internal/config"
)

// Policy decides when failed probes trigger a reconnect
type Policy struct {
	Mode      string
	Threshold int
}

// Verdict is the outcome of applying a probe result to the state
type Verdict struct {
	FailCount int    // consecutive failures including this probe, before any reset
	Recovered bool   // healthy probe after at least one failure
	Reconnect bool   // a reconnect should be triggered
	Reason    string // reconnect reason, set when Reconnect is true
}

// NewPolicy builds the policy described by the config
func NewPolicy(cfg *config.Config) Policy {
	return Policy{Mode: cfg.FailurePolicy.Mode, Threshold: cfg.Threshold()}
}

// Observe updates the failure counter in s for result and reports what to do next
func (p Policy) Observe(s *State, result ProbeResult) Verdict {
	if result.Healthy {
		return Verdict{Recovered: s.ResetFailures() > 0}
	}

	if p.Mode == config.PolicyImmediate {
		s.ResetFailures()
		return Verdict{FailCount: 1, Reconnect: true, Reason: p.immediateReason(result)}
	}

	count := s.RecordFailure()
	v := Verdict{FailCount: count}
	if count >= p.threshold() {
		v.Reconnect = true
		v.Reason = p.thresholdReason(result)
		s.ResetFailures()
	}
	return v
}

func (p Policy) threshold() int {
	if p.Threshold < 1 {
		return 1
	}
	return p.Threshold
}

func (p Policy) thresholdReason(result ProbeResult) string {
	if result.Err != nil {
		return fmt.Sprintf("%d consecutive fetch errors", p.threshold())
	}
	return fmt.Sprintf("%d consecutive errors", p.threshold())
}

func (p Policy) immediateReason(result ProbeResult) string {
	if result.Err != nil {
		return "fetch error"
	}
	return fmt.Sprintf("status %d", result.StatusCode)
}
