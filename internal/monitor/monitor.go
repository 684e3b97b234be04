package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juststeveking/vpnwatch/internal/config"
	"github.com/juststeveking/vpnwatch/internal/logging"
	"github.com/juststeveking/vpnwatch/internal/vpn"
)

// RefreshReason is logged when the refresh timer forces a reconnect
const RefreshReason = "Hourly refresh"

// Recorder receives measurements from the monitor
type Recorder interface {
	ProbeObserved(result ProbeResult)
	ProbeSkipped()
	FailCount(n int)
	ReconnectFinished(event ReconnectEvent)
}

// Monitor probes the target on a timer and reconnects the VPN when the
// failure policy says so, or when the refresh timer fires.
type Monitor struct {
	Config      *config.Config
	checker     Checker
	state       *State
	policy      Policy
	reconnector *Reconnector
	logger      *logging.Logger
	recorder    Recorder
	events      chan Event
	now         func() time.Time

	// wgMu orders wg.Add in TriggerReconnect before the final wg.Wait in Start
	wgMu    sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// Options carries optional collaborators for NewMonitor
type Options struct {
	// Checker replaces the HTTP checker built from the config
	Checker Checker
	Egress  EgressLookup
}

// NewMonitor creates a new monitor instance
func NewMonitor(cfg *config.Config, client vpn.Client, logger *logging.Logger, opts Options) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor config: %w", err)
	}

	checker := opts.Checker
	if checker == nil {
		checker = NewHTTPChecker(cfg.Target, cfg.TimeoutDuration())
	}

	state := NewState()
	reconnector := NewReconnector(client, state, logger, ReconnectorOptions{
		Regions:     cfg.Regions,
		Cooldown:    cfg.CooldownDuration(),
		SettleDelay: cfg.SettleDelayDuration(),
		Seed:        cfg.RegionSeed,
		Egress:      opts.Egress,
	})

	m := &Monitor{
		Config:      cfg,
		checker:     checker,
		state:       state,
		policy:      NewPolicy(cfg),
		reconnector: reconnector,
		logger:      logger,
		events:      make(chan Event, 64),
		now:         time.Now,
	}

	reconnector.OnStarted(func(e ReconnectEvent) {
		m.publish(Event{Kind: EventReconnectStarted, Reconnect: e})
	})
	reconnector.OnFinished(func(e ReconnectEvent) {
		if m.recorder != nil {
			m.recorder.ReconnectFinished(e)
		}
		m.publish(Event{Kind: EventReconnectFinished, Reconnect: e})
	})

	return m, nil
}

// SetRecorder attaches a metrics recorder. Call before Start.
func (m *Monitor) SetRecorder(r Recorder) {
	m.recorder = r
}

// Start runs an initial check and then probes and refreshes until ctx is done
func (m *Monitor) Start(ctx context.Context) {
	defer m.closeChecker()

	m.Check(ctx)

	probeTicker := time.NewTicker(m.Config.CheckIntervalDuration())
	defer probeTicker.Stop()

	refreshTicker := time.NewTicker(m.Config.RefreshIntervalDuration())
	defer refreshTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.wgMu.Lock()
			m.stopped = true
			m.wgMu.Unlock()
			m.wg.Wait()
			return
		case <-probeTicker.C:
			m.Check(ctx)
		case <-refreshTicker.C:
			m.TriggerReconnect(ctx, RefreshReason)
		}
	}
}

// Check probes the target once, applying the cooldown and failure policy.
// It returns false without touching the network while a cooldown is active.
func (m *Monitor) Check(ctx context.Context) (ProbeResult, bool) {
	if m.state.InCooldown(m.now()) {
		m.logger.Warn("Cooldown active, skipping this check.")
		if m.recorder != nil {
			m.recorder.ProbeSkipped()
		}
		m.publish(Event{Kind: EventProbeSkipped})
		return ProbeResult{}, false
	}

	result := m.checker.Check(ctx)
	verdict := m.policy.Observe(m.state, result)
	threshold := m.policy.threshold()

	switch {
	case result.Err != nil:
		m.logger.Error("Fetch error (%d/%d): %v", verdict.FailCount, threshold, result.Err)
	case !result.Healthy:
		m.logger.Info("Status code: %d", result.StatusCode)
		m.logger.Warn("Failed (%d/%d)", verdict.FailCount, threshold)
	default:
		m.logger.Info("Status code: %d", result.StatusCode)
		if verdict.Recovered {
			m.logger.Success("Server recovered.")
		}
		m.logger.Success("Server reachable.")
	}

	if m.recorder != nil {
		m.recorder.ProbeObserved(result)
		m.recorder.FailCount(m.state.Snapshot().FailCount)
	}
	m.publish(Event{Kind: EventProbe, Probe: result})

	if verdict.Reconnect {
		m.TriggerReconnect(ctx, verdict.Reason)
	}

	return result, true
}

// TriggerReconnect starts a reconnect in the background so the timers keep running.
// It does nothing once ctx is done or Start has returned.
func (m *Monitor) TriggerReconnect(ctx context.Context, reason string) {
	m.wgMu.Lock()
	defer m.wgMu.Unlock()
	if m.stopped || ctx.Err() != nil {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.reconnector.Reconnect(ctx, reason)
	}()
}

// Wait blocks until every background reconnect has returned
func (m *Monitor) Wait() {
	m.wg.Wait()
}

// Reconnector returns the monitor's reconnector
func (m *Monitor) Reconnector() *Reconnector {
	return m.reconnector
}

// State returns a snapshot of the monitor state
func (m *Monitor) State() Snapshot {
	return m.state.Snapshot()
}

// Events returns the channel of monitor events. Events are dropped when
// nobody keeps up with the channel.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

func (m *Monitor) publish(e Event) {
	if e.Time.IsZero() {
		e.Time = m.now()
	}
	e.State = m.state.Snapshot()

	select {
	case m.events <- e:
	default:
	}
}

func (m *Monitor) closeChecker() {
	if httpChecker, ok := m.checker.(*HTTPChecker); ok {
		httpChecker.Close()
	}
}
