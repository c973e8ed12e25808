package orchestrator

import (
	"context"
	"time"

	"github.com/turtacn/Tether/internal/cgi"
	"github.com/turtacn/Tether/internal/lifecycle"
	"github.com/turtacn/Tether/internal/monitor"
	"github.com/turtacn/Tether/internal/session"
	"github.com/turtacn/Tether/pkg/consts"
	"github.com/turtacn/Tether/pkg/errors"
	"github.com/turtacn/Tether/pkg/fsm"
	"github.com/turtacn/Tether/pkg/logger"
	"github.com/turtacn/Tether/pkg/protocol"
)

// Supervisor is the part of the connection supervisor the bootstrap drives.
type Supervisor interface {
	Open(identity string, onEstablished func())
	Terminate(message string)
	ServerRestarted()
}

// CredentialDisplay shows the description of the stored access token.
type CredentialDisplay interface {
	SetSavedAccessTokenDesc(desc string)
}

// KeyHolder keeps the start key of a pending start command.
type KeyHolder interface {
	SetStartKey(key string)
}

// TabNavigator switches the console to its run pane.
type TabNavigator interface {
	Run()
}

type Options struct {
	Config      *protocol.Config
	Identity    *session.Identity
	Client      *cgi.Client
	States      *lifecycle.Machine
	Supervisor  Supervisor
	Credentials CredentialDisplay
	Keys        KeyHolder
	Tabs        TabNavigator
	// Resume re-issues the start command once the channel is up. It only
	// runs when the server reported the application as started.
	Resume func()
}

const (
	evAuthorize fsm.Event = "authorize"
	evFetch     fsm.Event = "fetch"
	evSeed      fsm.Event = "seed"
	evSupervise fsm.Event = "supervise"
	evFail      fsm.Event = "fail"
)

// Engine runs the one-time session bootstrap and then hands the session
// to the connection supervisor.
type Engine struct {
	cfg   *protocol.Config
	opts  Options
	phase *fsm.StateMachine
	log   logger.Logger
}

func NewEngine(opts Options) *Engine {
	if opts.Config == nil {
		opts.Config = protocol.Default()
	}
	e := &Engine{
		cfg:   opts.Config,
		opts:  opts,
		phase: fsm.New(fsm.State(consts.PhasePending)),
		log:   logger.Log.With("component", "orchestrator"),
	}
	e.setupFSM()
	return e
}

func (e *Engine) setupFSM() {
	p := func(s consts.BootstrapPhase) fsm.State { return fsm.State(s) }

	e.phase.AddTransition(p(consts.PhasePending), p(consts.PhaseAuthorizing), evAuthorize, e.onPhase)
	e.phase.AddTransition(p(consts.PhaseAuthorizing), p(consts.PhaseFetching), evFetch, e.onPhase)
	e.phase.AddTransition(p(consts.PhaseFetching), p(consts.PhaseSeeding), evSeed, e.onPhase)
	e.phase.AddTransition(p(consts.PhaseSeeding), p(consts.PhaseSupervising), evSupervise, e.onPhase)

	running := []fsm.State{p(consts.PhaseAuthorizing), p(consts.PhaseFetching), p(consts.PhaseSeeding)}
	e.phase.AddTransitions(running, p(consts.PhaseFailed), evFail, e.onFailed)

	e.phase.SetTerminal(p(consts.PhaseSupervising))
	e.phase.SetTerminal(p(consts.PhaseFailed))
}

func (e *Engine) onPhase(from, to fsm.State, event fsm.Event, args ...interface{}) error {
	e.log.Info("Bootstrap phase", "from", from, "to", to)
	return nil
}

func (e *Engine) onFailed(from, to fsm.State, event fsm.Event, args ...interface{}) error {
	var cause interface{}
	if len(args) > 0 {
		cause = args[0]
	}
	e.log.Error("Bootstrap failed", "phase", from, "err", cause)
	return nil
}

// Phase returns the current bootstrap phase.
func (e *Engine) Phase() consts.BootstrapPhase {
	return consts.BootstrapPhase(e.phase.Current())
}

// Start runs the bootstrap. It may be called once; the lifecycle is
// re-checked after every suspension, since a termination can arrive at
// any point while a network call is pending.
func (e *Engine) Start(ctx context.Context) error {
	begin := time.Now()

	if err := e.phase.Fire(evAuthorize); err != nil {
		return errors.New(errors.ErrCodeUnknown, "orchestrator.Start", "bootstrap already ran", err)
	}

	// 1. Wait for the session identity from the authorization endpoint.
	key, err := e.opts.Identity.Await(ctx, e.cfg.Bootstrap.IdentityTimeoutDuration())
	if err != nil {
		return e.fail(err)
	}
	e.opts.Client.SetSessionKey(key)
	if err := e.live(); err != nil {
		return e.fail(err)
	}

	// 2. Fetch the application states bound to that identity.
	if err := e.advance(evFetch); err != nil {
		return e.fail(err)
	}
	var resp protocol.StatesResponse
	if err := e.opts.Client.Get(ctx, consts.PathApplicationState, &resp, ""); err != nil {
		return e.fail(errors.New(errors.ErrCodeStatesFetchFailed, "orchestrator.Start", "fetch application states", err))
	}
	if err := e.live(); err != nil {
		return e.fail(err)
	}

	// 3. Seed the lifecycle and the console collaborators.
	if err := e.advance(evSeed); err != nil {
		return e.fail(err)
	}
	app := consts.ApplicationState(resp.ApplicationState)
	if !e.opts.States.Seed(app) {
		return e.fail(e.live())
	}
	e.opts.Credentials.SetSavedAccessTokenDesc(resp.AccessTokenDesc)
	e.opts.Keys.SetStartKey(resp.StartKey)

	// 4. With a stored token there is nothing to set up.
	if resp.AccessTokenDesc != "" {
		e.opts.Tabs.Run()
	}

	// 5. Hand over to the supervisor; only a started application resumes.
	var resume func()
	if app == consts.AppStarted {
		resume = e.opts.Resume
	}
	e.opts.Supervisor.Open(key, resume)
	if err := e.advance(evSupervise); err != nil {
		return err
	}

	monitor.BootstrapDuration.Observe(time.Since(begin).Seconds())
	return nil
}

// Terminate asks the server to shut down, then ends the session locally.
// No navigation follows since the operator chose to leave.
func (e *Engine) Terminate(ctx context.Context) error {
	if err := e.opts.Client.PostJSON(ctx, consts.PathTerminate, nil, nil, ""); err != nil {
		return err
	}
	e.opts.Supervisor.Terminate(e.cfg.Messages.Terminated)
	return nil
}

// ServerRestarted ends the session as if the server had been restarted.
func (e *Engine) ServerRestarted() {
	e.opts.Supervisor.ServerRestarted()
}

func (e *Engine) live() error {
	if e.opts.States.IsTerminated() {
		return errors.New(errors.ErrCodeTerminated, "orchestrator.Start", "session terminated during bootstrap", errors.ErrTerminated)
	}
	return nil
}

func (e *Engine) advance(ev fsm.Event) error {
	if err := e.phase.Fire(ev); err != nil {
		return errors.New(errors.ErrCodeUnknown, "orchestrator.Start", "bootstrap phase "+string(ev), err)
	}
	return nil
}

func (e *Engine) fail(err error) error {
	e.phase.Fire(evFail, err)
	return err
}

// Personal.AI order the ending
