package supervisor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/turtacn/Tether/internal/lifecycle"
	"github.com/turtacn/Tether/internal/monitor"
	"github.com/turtacn/Tether/internal/transport"
	"github.com/turtacn/Tether/pkg/consts"
	"github.com/turtacn/Tether/pkg/logger"
	"github.com/turtacn/Tether/pkg/protocol"
)

// StatusSink receives every transient and fatal status message. Callers
// can only tell them apart by text and by the lifecycle being terminal.
type StatusSink interface {
	SetMessage(message string)
}

// Navigator leaves the current session, forcing a full reload from path.
type Navigator interface {
	Navigate(path string)
}

// Termination reasons, used as metric labels and in logs.
const (
	ReasonServerRestarted  = "server-restarted"
	ReasonIdentityMismatch = "identity-mismatch"
	ReasonOperator         = "operator"
)

type Options struct {
	Dialer    transport.Dialer
	States    *lifecycle.Machine
	Status    StatusSink
	Navigator Navigator
	Messages  protocol.Messages

	// Defaults: clockwork.NewRealClock(), consts.DefaultRetryInterval, consts.DefaultMaxRetry, logger.Log.
	Clock         clockwork.Clock
	RetryInterval time.Duration
	MaxRetry      int
	Logger        logger.Logger
}

// ConnectionSupervisor owns the state channel and its retry budget. Every
// handler runs on the goroutine executing Run; dial, reader and timer
// goroutines only post events tagged with the generation that produced them.
type ConnectionSupervisor struct {
	dialer    transport.Dialer
	states    *lifecycle.Machine
	status    StatusSink
	navigator Navigator
	messages  protocol.Messages
	clock     clockwork.Clock
	interval  time.Duration
	maxRetry  int
	log       logger.Logger

	events chan event
	done   chan struct{}
	ctx    context.Context

	// Loop-owned.
	identity   string
	gen        uint64
	conn       transport.Conn
	cancelDial context.CancelFunc
	resume     func()
	retryTimer clockwork.Timer
	retryGen   uint64
	retryCount int
	exhausted  bool

	// Mirrors for readers outside the loop.
	retryView     atomic.Int32
	connectedView atomic.Bool
}

type event interface{}

type openRequest struct {
	identity      string
	onEstablished func()
}

type terminateRequest struct {
	message  string
	reason   string
	navigate bool
}

type openedEvent struct {
	gen  uint64
	conn transport.Conn
}

type frameEvent struct {
	gen  uint64
	data []byte
}

type closedEvent struct {
	gen uint64
	err error
}

type retryEvent struct {
	gen uint64
}

func New(opts Options) *ConnectionSupervisor {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = consts.DefaultRetryInterval
	}
	if opts.MaxRetry <= 0 {
		opts.MaxRetry = consts.DefaultMaxRetry
	}
	if opts.Logger == nil {
		opts.Logger = logger.Log
	}
	return &ConnectionSupervisor{
		dialer:    opts.Dialer,
		states:    opts.States,
		status:    opts.Status,
		navigator: opts.Navigator,
		messages:  opts.Messages,
		clock:     opts.Clock,
		interval:  opts.RetryInterval,
		maxRetry:  opts.MaxRetry,
		log:       opts.Logger.With("component", "supervisor"),
		events:    make(chan event, 64),
		done:      make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled. It must be called exactly once.
func (s *ConnectionSupervisor) Run(ctx context.Context) error {
	s.ctx = ctx
	defer func() {
		s.cancelRetry()
		s.discard()
		close(s.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

// Open binds a new channel instance to identity, discarding any previous
// one. onEstablished runs at most once, after the first successful open.
func (s *ConnectionSupervisor) Open(identity string, onEstablished func()) {
	s.post(openRequest{identity: identity, onEstablished: onEstablished})
}

// Terminate ends the session at the operator's request, without navigating.
func (s *ConnectionSupervisor) Terminate(message string) {
	s.post(terminateRequest{message: message, reason: ReasonOperator})
}

// ServerRestarted runs the same termination as a session identity mismatch.
func (s *ConnectionSupervisor) ServerRestarted() {
	s.post(terminateRequest{message: s.messages.ServerRestarted, reason: ReasonServerRestarted, navigate: true})
}

// RetryCount returns the current retry count.
func (s *ConnectionSupervisor) RetryCount() int { return int(s.retryView.Load()) }

// Connected reports whether a channel instance is currently open.
func (s *ConnectionSupervisor) Connected() bool { return s.connectedView.Load() }

func (s *ConnectionSupervisor) post(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *ConnectionSupervisor) handle(ev event) {
	switch ev := ev.(type) {
	case openRequest:
		s.onOpenRequest(ev)
	case terminateRequest:
		s.onTerminateRequest(ev)
	case openedEvent:
		s.onOpened(ev)
	case frameEvent:
		s.onFrame(ev)
	case closedEvent:
		s.onClosed(ev)
	case retryEvent:
		s.onRetry(ev)
	}
}

func (s *ConnectionSupervisor) onOpenRequest(r openRequest) {
	if s.states.IsTerminated() {
		s.log.Debug("Open ignored, session is terminated")
		return
	}
	s.identity = r.identity
	s.exhausted = false
	s.stopRetrying()
	s.resume = r.onEstablished
	s.dial()
}

func (s *ConnectionSupervisor) onTerminateRequest(r terminateRequest) {
	if s.states.IsTerminated() {
		return
	}
	s.terminate(r.message, r.reason, r.navigate)
}

func (s *ConnectionSupervisor) onOpened(ev openedEvent) {
	if s.states.IsTerminated() || ev.gen != s.gen {
		ev.conn.Close()
		return
	}

	s.conn = ev.conn
	s.connectedView.Store(true)
	s.stopRetrying()
	monitor.ChannelOpens.Inc()
	s.log.Info("State channel opened", "generation", ev.gen)

	go s.read(ev.gen, ev.conn)

	if resume := s.resume; resume != nil {
		s.resume = nil
		go resume()
	}

	if err := ev.conn.WriteJSON(protocol.NewCheckSessionKeyRequest()); err != nil {
		// The reader sees the same failure and reports the close.
		s.log.Warn("Failed to send identity check", "err", err)
	}
}

func (s *ConnectionSupervisor) onFrame(ev frameEvent) {
	if s.states.IsTerminated() || ev.gen != s.gen {
		return
	}

	frame, err := protocol.DecodeFrame(ev.data)
	if err != nil {
		s.log.Debug("Ignoring undecodable frame", "err", err)
		return
	}
	monitor.FramesTotal.WithLabelValues(frame.MessageType).Inc()

	switch frame.MessageType {
	case consts.MessageCheckSessionKey:
		if frame.CurrentSessionKey != s.identity {
			s.log.Warn("Server session identity changed")
			s.terminate(s.messages.ServerRestarted, ReasonServerRestarted, true)
		}
	case consts.MessageAppInfo:
		if frame.SessionKey != s.identity {
			s.log.Warn("Telemetry carries a foreign session identity")
			s.terminate(s.messages.AnotherTab, ReasonIdentityMismatch, true)
			return
		}
		s.applyAppInfo(frame)
	default:
		s.log.Debug("Ignoring frame", "messageType", frame.MessageType)
	}
}

func (s *ConnectionSupervisor) applyAppInfo(f protocol.InboundFrame) {
	s.states.Update(lifecycle.KindHealthChecked, func(tx *lifecycle.Tx) {
		if f.State != nil {
			switch app := consts.ApplicationState(*f.State); app {
			case consts.AppInit, consts.AppStarted:
				tx.SetApplication(app)
			default:
				s.log.Debug("Ignoring unknown application state", "state", *f.State)
			}
		}
		if tx.Application() == consts.AppInit {
			tx.SetApplication(consts.AppInit)
			return
		}

		var h protocol.DroneHealth
		if f.DroneHealth != nil {
			h = *f.DroneHealth
		}
		tx.SetHealth(h.Health, h.BatteryLevel)

		if f.DroneState == nil {
			return
		}
		switch consts.DroneState(*f.DroneState) {
		case consts.DroneReady:
			tx.ToReady()
		case consts.DroneLand:
			if tx.Health().HealthInfo().State == consts.HealthOk {
				tx.ToLand()
			} else {
				tx.ToReady()
			}
		case consts.DroneTakeOff:
			tx.ToTakeOff()
		}
		if err := tx.Err(); err != nil {
			s.log.Warn("Telemetry produced an invalid transition", "err", err)
		}
	})
}

func (s *ConnectionSupervisor) onClosed(ev closedEvent) {
	if s.states.IsTerminated() || ev.gen != s.gen {
		return
	}

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connectedView.Store(false)
	monitor.ChannelCloses.Inc()
	s.log.Info("State channel closed", "generation", ev.gen, "err", ev.err)

	if s.exhausted {
		return
	}
	s.scheduleRetry()
}

func (s *ConnectionSupervisor) onRetry(ev retryEvent) {
	if s.states.IsTerminated() || ev.gen != s.retryGen {
		return
	}
	s.retryTimer = nil
	s.retryCount++
	s.retryView.Store(int32(s.retryCount))
	monitor.ChannelRetries.Inc()

	if s.retryCount > s.maxRetry {
		s.stopRetrying()
		s.exhausted = true
		monitor.RetryExhausted.Inc()
		s.log.Error("Retry budget exhausted", "max", s.maxRetry)
		s.setMessage(s.messages.Unavailable)
		return
	}

	s.log.Info("Reopening state channel", "attempt", s.retryCount)
	s.setMessage(s.messages.Retrying)
	s.resume = nil
	s.dial()
}

// terminate runs to completion on the loop: nothing else is handled until
// it returns, and every later handler sees the terminal state first.
func (s *ConnectionSupervisor) terminate(message, reason string, navigate bool) {
	s.stopRetrying()
	if !s.states.Terminate() {
		return
	}
	monitor.SessionTerminations.WithLabelValues(reason).Inc()
	s.log.Warn("Session terminated", "reason", reason)

	s.status.SetMessage(message)
	s.discard()
	if navigate {
		s.navigator.Navigate(consts.EntryPointPath)
	}
}

// dial discards the current instance before creating the next one, so
// stale handlers can never act.
func (s *ConnectionSupervisor) dial() {
	s.discard()
	s.gen++
	gen, identity := s.gen, s.identity

	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelDial = cancel

	go func() {
		conn, err := s.dialer.Dial(ctx, identity)
		if err != nil {
			s.post(closedEvent{gen: gen, err: err})
			return
		}
		if !s.post(openedEvent{gen: gen, conn: conn}) {
			conn.Close()
		}
	}()
}

func (s *ConnectionSupervisor) read(gen uint64, conn transport.Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			s.post(closedEvent{gen: gen, err: err})
			return
		}
		if !s.post(frameEvent{gen: gen, data: data}) {
			return
		}
	}
}

func (s *ConnectionSupervisor) discard() {
	if s.cancelDial != nil {
		s.cancelDial()
		s.cancelDial = nil
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connectedView.Store(false)
}

func (s *ConnectionSupervisor) scheduleRetry() {
	s.cancelRetry()
	gen := s.retryGen
	s.retryTimer = s.clock.AfterFunc(s.interval, func() {
		s.post(retryEvent{gen: gen})
	})
}

// cancelRetry stops the pending timer and retires its generation, so a
// callback that already fired is dropped by the loop.
func (s *ConnectionSupervisor) cancelRetry() {
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	s.retryGen++
}

func (s *ConnectionSupervisor) stopRetrying() {
	s.cancelRetry()
	s.retryCount = 0
	s.retryView.Store(0)
}

func (s *ConnectionSupervisor) setMessage(message string) {
	if s.states.IsTerminated() {
		return
	}
	s.status.SetMessage(message)
}

// Personal.AI order the ending
