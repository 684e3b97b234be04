package monitor

import "time"

// ProbeResult is the outcome of one request against the target.
// Err is set for network, DNS, TLS and timeout failures; otherwise
// StatusCode holds the response status.
type ProbeResult struct {
	URL          string
	StatusCode   int
	Err          error
	Healthy      bool
	ResponseTime time.Duration
	CheckedAt    time.Time
}

// Stage names the step of a reconnect sequence that failed
type Stage string

const (
	StageDisconnect Stage = "disconnect"
	StageConnect    Stage = "connect"
)

// ReconnectEvent describes one disconnect/connect sequence.
// Err is nil when the sequence connected successfully.
type ReconnectEvent struct {
	ID         string
	Reason     string
	Region     string
	Stage      Stage
	Output     string
	Err        error
	Egress     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// OK reports whether the new connection was established
func (e ReconnectEvent) OK() bool {
	return e.Err == nil
}

// EventKind identifies what an Event reports
type EventKind string

const (
	EventProbe             EventKind = "probe"
	EventProbeSkipped      EventKind = "probe_skipped"
	EventReconnectStarted  EventKind = "reconnect_started"
	EventReconnectFinished EventKind = "reconnect_finished"
)

// Event is published by the monitor for dashboards and other observers
type Event struct {
	Kind      EventKind
	Time      time.Time
	Probe     ProbeResult
	Reconnect ReconnectEvent
	State     Snapshot
}
