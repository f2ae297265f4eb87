package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2beens/padcontrol/internal/device"
	"github.com/2beens/padcontrol/internal/logging"
	"github.com/2beens/padcontrol/internal/store"
	"github.com/2beens/padcontrol/internal/telemetry/metrics"
	"github.com/2beens/padcontrol/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

var log = logging.Component("poller")

const (
	DefaultPollInterval       = time.Second
	DefaultReconnectBaseDelay = 5 * time.Second
	DefaultReconnectMaxDelay  = 30 * time.Second
)

var ErrDeviceDisconnected = errors.New("device reports its controller is disconnected")

type State int

const (
	StateIdle State = iota
	StatePolling
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

type StatusFetcher interface {
	GetStatus(ctx context.Context) (*device.Status, error)
}

// Notifier is told about connectivity transitions, once per transition
type Notifier interface {
	ConnectionLost(ctx context.Context, err error)
	ConnectionRestored(ctx context.Context)
}

type Params struct {
	Fetcher  StatusFetcher
	Store    *store.Store
	Notifier Notifier // optional
	Metrics  *metrics.Manager

	PollInterval       time.Duration
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
	MinSpeed           float64 // km/h
	MaxSpeed           float64 // km/h
}

// Poller keeps the store in sync with the device status. At most one
// activation runs at a time; see Start.
type Poller struct {
	fetcher  StatusFetcher
	store    *store.Store
	notifier Notifier
	metrics  *metrics.Manager

	pollInterval       time.Duration
	reconnectBaseDelay time.Duration
	reconnectMaxDelay  time.Duration
	minSpeed           float64
	maxSpeed           float64

	// guards everything below, and serializes the apply path
	mutex         sync.Mutex
	active        *Handle
	failures      int
	lastDuration  time.Duration
	sessionActive bool

	now func() time.Time
}

// Handle controls one activation of the poller
type Handle struct {
	poller    *Poller
	cancel    context.CancelFunc
	done      chan struct{}
	cancelled atomic.Bool
}

func New(params Params) *Poller {
	p := &Poller{
		fetcher:            params.Fetcher,
		store:              params.Store,
		notifier:           params.Notifier,
		metrics:            params.Metrics,
		pollInterval:       params.PollInterval,
		reconnectBaseDelay: params.ReconnectBaseDelay,
		reconnectMaxDelay:  params.ReconnectMaxDelay,
		minSpeed:           params.MinSpeed,
		maxSpeed:           params.MaxSpeed,
		now:                time.Now,
	}
	if p.pollInterval <= 0 {
		p.pollInterval = DefaultPollInterval
	}
	if p.reconnectBaseDelay <= 0 {
		p.reconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if p.reconnectMaxDelay < p.reconnectBaseDelay {
		p.reconnectMaxDelay = max(DefaultReconnectMaxDelay, p.reconnectBaseDelay)
	}
	return p
}

// Start activates polling: an immediate fetch, then one fetch per interval,
// each scheduled only after the previous one resolved. Calling Start while
// already active returns the running handle.
func (p *Poller) Start(ctx context.Context) *Handle {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.active != nil {
		return p.active
	}

	loopCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		poller: p,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	p.active = h

	log.Debugf("status poller starting, interval %s", p.pollInterval)
	go p.run(loopCtx, h)

	return h
}

// Stop cancels the running activation, if any, and waits for it to finish
func (p *Poller) Stop() {
	p.mutex.Lock()
	h := p.active
	p.mutex.Unlock()
	if h != nil {
		h.Cancel()
	}
}

// Cancel stops the activation and blocks until its loop has exited.
// Once it returns, no store write originates from this activation.
func (h *Handle) Cancel() {
	p := h.poller
	p.mutex.Lock()
	h.cancelled.Store(true)
	if p.active == h {
		p.active = nil
		p.setStateGauges(StateIdle)
	}
	p.mutex.Unlock()

	h.cancel()
	<-h.done
}

// Done is closed once the activation loop has exited
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (p *Poller) State() State {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.stateLocked()
}

func (p *Poller) stateLocked() State {
	switch {
	case p.active == nil:
		return StateIdle
	case p.failures > 0:
		return StateReconnecting
	default:
		return StatePolling
	}
}

func (p *Poller) run(ctx context.Context, h *Handle) {
	defer func() {
		p.mutex.Lock()
		if p.active == h {
			p.active = nil
			p.setStateGauges(StateIdle)
		}
		p.mutex.Unlock()
		close(h.done)
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debugf("status poller stopped: %s", ctx.Err())
			return
		case <-timer.C:
		}

		status, err := p.fetch(ctx)
		if ctx.Err() != nil {
			// cancelled mid-flight, drop the result
			return
		}

		next, _ := p.apply(ctx, h, status, err)
		timer.Reset(next)
	}
}

// Refresh performs one out-of-band fetch and applies it the same way a
// scheduled poll would. It returns the fetch error, if any.
func (p *Poller) Refresh(ctx context.Context) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "poller.refresh")
	span.SetAttributes(attribute.String("poller.state", p.State().String()))
	status, err := p.fetch(ctx)
	if ctx.Err() != nil {
		tracing.EndSpanWithErrCheck(span, ctx.Err())
		return ctx.Err()
	}
	_, err = p.apply(ctx, nil, status, err)
	tracing.EndSpanWithErrCheck(span, err)
	return err
}

func (p *Poller) fetch(ctx context.Context) (*device.Status, error) {
	status, err := p.fetcher.GetStatus(ctx)
	if err != nil {
		return nil, err
	}
	if status.IsConnected != nil && !*status.IsConnected {
		return nil, &device.Error{
			Kind:    device.KindTransient,
			Message: "device status poll failed",
			Cause:   ErrDeviceDisconnected,
		}
	}
	return status, nil
}

// apply commits one poll outcome and returns the delay until the next poll.
// h is nil for out-of-band refreshes.
func (p *Poller) apply(ctx context.Context, h *Handle, status *device.Status, fetchErr error) (time.Duration, error) {
	var notify func()

	p.mutex.Lock()
	if h != nil && (p.active != h || h.cancelled.Load()) {
		p.mutex.Unlock()
		return p.pollInterval, nil
	}

	var next time.Duration
	var resultErr error
	if fetchErr != nil {
		p.failures++
		failures := p.failures
		resultErr = device.NewUnreachableError(fetchErr, failures)
		p.store.RecordPollFailure(resultErr, failures)
		next = BackoffDelay(failures, p.reconnectBaseDelay, p.reconnectMaxDelay)

		p.metrics.CounterPolls.WithLabelValues("failure").Inc()
		if failures == 1 {
			p.metrics.CounterOutages.Inc()
			log.Warnf("device connection lost: %s", fetchErr)
			if p.notifier != nil {
				notify = func() { p.notifier.ConnectionLost(ctx, resultErr) }
			}
		} else {
			log.Debugf("device still unreachable (%d failed polls), next attempt in %s", failures, next)
		}
	} else {
		restored := p.failures > 0
		p.failures = 0
		p.store.CommitPoll(p.normalize(status))
		next = p.pollInterval

		p.metrics.CounterPolls.WithLabelValues("success").Inc()
		p.metrics.GaugeCurrentSpeed.Set(p.store.Stats().CurrentSpeed)
		if restored {
			log.Infof("device connection restored")
			if p.notifier != nil {
				notify = func() { p.notifier.ConnectionRestored(ctx) }
			}
		}
	}
	p.metrics.GaugeConsecutiveFailures.Set(float64(p.failures))
	p.setStateGauges(p.stateLocked())
	p.mutex.Unlock()

	if notify != nil {
		notify()
	}
	return next, resultErr
}

func (p *Poller) setStateGauges(state State) {
	connected, reconnecting := 0.0, 0.0
	if p.failures == 0 && state != StateIdle {
		connected = 1
	}
	if state == StateReconnecting {
		reconnecting = 1
	}
	p.metrics.GaugeDeviceConnected.Set(connected)
	p.metrics.GaugeReconnecting.Set(reconnecting)
}

// BackoffDelay returns min(base * 2^n, maxDelay)
func BackoffDelay(n int, base, maxDelay time.Duration) time.Duration {
	if n < 0 {
		n = 0
	}
	delay := base
	for i := 0; i < n; i++ {
		delay *= 2
		if delay >= maxDelay || delay <= 0 {
			return maxDelay
		}
	}
	return min(delay, maxDelay)
}
