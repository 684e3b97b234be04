package monitor

import (
	"sync"
	"time"
)

// State holds the mutable monitor state shared by the probe loop and reconnects
type State struct {
	mu            sync.Mutex
	reconnecting  bool
	cooldownUntil time.Time
	failCount     int
	region        string
}

// Snapshot is a point-in-time copy of State
type Snapshot struct {
	Reconnecting  bool
	CooldownUntil time.Time
	FailCount     int
	Region        string
}

// NewState returns the start-of-process state
func NewState() *State {
	return &State{}
}

// InCooldown reports whether probes should be skipped at now
func (s *State) InCooldown(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Before(s.cooldownUntil)
}

// BeginReconnect claims the reconnect slot and extends the cooldown window.
// It returns false, changing nothing, if a reconnect is already in flight.
func (s *State) BeginReconnect(now time.Time, cooldown time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reconnecting {
		return false
	}
	s.reconnecting = true
	s.extendCooldown(now.Add(cooldown))
	return true
}

// EndReconnect releases the reconnect slot
func (s *State) EndReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnecting = false
}

// Reconnecting reports whether a reconnect is in flight
func (s *State) Reconnecting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnecting
}

// RecordFailure increments the consecutive failure counter and returns it
func (s *State) RecordFailure() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCount++
	return s.failCount
}

// ResetFailures zeroes the counter and returns the previous value
func (s *State) ResetFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.failCount
	s.failCount = 0
	return prev
}

// SetRegion records the region of the last successful connect
func (s *State) SetRegion(region string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.region = region
}

// Snapshot returns a copy of the current state
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Reconnecting:  s.reconnecting,
		CooldownUntil: s.cooldownUntil,
		FailCount:     s.failCount,
		Region:        s.region,
	}
}

// cooldownUntil only moves forward
func (s *State) extendCooldown(until time.Time) {
	if until.After(s.cooldownUntil) {
		s.cooldownUntil = until
	}
}
