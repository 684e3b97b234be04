package monitor

import (
	"context"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juststeveking/vpnwatch/internal/logging"
	"github.com/juststeveking/vpnwatch/internal/vpn"
)

// EgressLookup reports where traffic exits after a connect
type EgressLookup interface {
	Lookup(ctx context.Context) (string, error)
}

// ReconnectorOptions tune a Reconnector
type ReconnectorOptions struct {
	Regions     []string
	Cooldown    time.Duration
	SettleDelay time.Duration
	// Seed for region selection; zero seeds from the clock
	Seed   int64
	Egress EgressLookup
}

// Reconnector runs the disconnect, settle, connect sequence.
// At most one sequence runs at a time; overlapping calls return immediately.
//
// There is no rollback: if disconnect succeeds and connect fails the host
// stays disconnected until the next trigger.
type Reconnector struct {
	client  vpn.Client
	state   *State
	logger  *logging.Logger
	regions []string
	opts    ReconnectorOptions

	rngMu sync.Mutex
	rng   *rand.Rand

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	hookMu     sync.Mutex
	onStarted  []func(ReconnectEvent)
	onFinished []func(ReconnectEvent)
}

// NewReconnector creates a reconnector sharing state with the monitor
func NewReconnector(client vpn.Client, state *State, logger *logging.Logger, opts ReconnectorOptions) *Reconnector {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Reconnector{
		client:  client,
		state:   state,
		logger:  logger,
		regions: append([]string(nil), opts.Regions...),
		opts:    opts,
		rng:     rand.New(rand.NewSource(seed)),
		now:     time.Now,
		after:   time.After,
	}
}

// OnStarted registers fn to run when a sequence begins
func (r *Reconnector) OnStarted(fn func(ReconnectEvent)) {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	r.onStarted = append(r.onStarted, fn)
}

// OnFinished registers fn to run after a sequence completes, successful or not
func (r *Reconnector) OnFinished(fn func(ReconnectEvent)) {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	r.onFinished = append(r.onFinished, fn)
}

// Reconnect disconnects, waits for the settle delay and connects through a
// random region. The second return value is false when another reconnect was
// already in flight and nothing was done.
func (r *Reconnector) Reconnect(ctx context.Context, reason string) (ReconnectEvent, bool) {
	now := r.now()
	if !r.state.BeginReconnect(now, r.opts.Cooldown) {
		return ReconnectEvent{}, false
	}

	event := ReconnectEvent{
		ID:        uuid.NewString(),
		Reason:    reason,
		StartedAt: now,
	}

	r.logger.Warn("Reconnecting VPN (%s)...", reason)
	r.emit(r.startedHooks(), event)

	out, err := r.client.Disconnect(ctx)
	if err != nil {
		r.logger.Error("Error disconnecting: %v", err)
		event.Stage = StageDisconnect
		event.Err = err
		event.Output = out
		return r.finish(event), true
	}
	r.logger.Info("Disconnected: %s", out)

	select {
	case <-ctx.Done():
		r.logger.Error("Error connecting: %v", ctx.Err())
		event.Stage = StageConnect
		event.Err = ctx.Err()
		return r.finish(event), true
	case <-r.after(r.opts.SettleDelay):
	}

	region := r.PickRegion()
	event.Region = region
	event.Stage = StageConnect

	out, err = r.client.Connect(ctx, region)
	event.Output = out
	if err != nil {
		r.logger.Error("Error connecting: %v", err)
		event.Err = err
		return r.finish(event), true
	}
	r.logger.Success("Connected to %s: %s", region, out)
	r.state.SetRegion(region)

	event = r.finish(event)

	if r.opts.Egress != nil {
		egress, err := r.opts.Egress.Lookup(ctx)
		if err != nil {
			r.logger.Warn("Egress lookup failed: %v", err)
		} else {
			event.Egress = egress
			r.logger.Info("Egress location: %s", egress)
		}
	}

	r.emit(r.finishedHooks(), event)
	return event, true
}

// finish releases the guard. Failed sequences notify observers here;
// successful ones do so after the egress lookup.
func (r *Reconnector) finish(event ReconnectEvent) ReconnectEvent {
	event.FinishedAt = r.now()
	r.state.EndReconnect()
	if event.Err != nil {
		r.emit(r.finishedHooks(), event)
	}
	return event
}

// PickRegion returns a region chosen uniformly at random from the candidates
func (r *Reconnector) PickRegion() string {
	if len(r.regions) == 0 {
		return ""
	}
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.regions[r.rng.Intn(len(r.regions))]
}

func (r *Reconnector) startedHooks() []func(ReconnectEvent) {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	return slices.Clone(r.onStarted)
}

func (r *Reconnector) finishedHooks() []func(ReconnectEvent) {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	return slices.Clone(r.onFinished)
}

func (r *Reconnector) emit(hooks []func(ReconnectEvent), event ReconnectEvent) {
	for _, fn := range hooks {
		fn(event)
	}
}
