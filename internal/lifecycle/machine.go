package lifecycle

import (
	"fmt"
	"sync"

	"github.com/turtacn/Tether/internal/health"
	"github.com/turtacn/Tether/pkg/consts"
	"github.com/turtacn/Tether/pkg/fsm"
	"github.com/turtacn/Tether/pkg/notify"
)

// Kind tells render collaborators which conceptual transition happened.
type Kind int

const (
	// KindStateChanged follows a seed, a local command or termination.
	KindStateChanged Kind = iota
	// KindHealthChecked follows every applied telemetry frame.
	KindHealthChecked
)

func (k Kind) String() string {
	if k == KindHealthChecked {
		return "health-checked"
	}
	return "state-changed"
}

// Snapshot is a consistent copy of the whole lifecycle record.
type Snapshot struct {
	Application consts.ApplicationState
	View        consts.ViewState
	Health      health.Model
}

func (s Snapshot) Terminated() bool { return s.Application == consts.AppTerminated }

// Notification is emitted exactly once per logical transition.
type Notification struct {
	Kind     Kind
	Snapshot Snapshot
}

const (
	evInit      fsm.Event = "init"
	evStart     fsm.Event = "start"
	evTerminate fsm.Event = "terminate"

	evReset   fsm.Event = "reset"
	evReady   fsm.Event = "ready"
	evLand    fsm.Event = "land"
	evTakeOff fsm.Event = "takeoff"
)

func appState(s consts.ApplicationState) fsm.State { return fsm.State(s.String()) }
func viewState(s consts.ViewState) fsm.State      { return fsm.State(s) }

// Machine is the finite-state record of what the console currently allows.
// All methods are safe for concurrent use; observers are called after the
// machine's lock is released.
type Machine struct {
	mu        sync.RWMutex
	app       *fsm.StateMachine
	view      *fsm.StateMachine
	health    health.Model
	observers notify.Registry[Notification]
}

func New() *Machine {
	m := &Machine{
		app:  fsm.New(appState(consts.AppInit)),
		view: fsm.New(viewState(consts.ViewInit)),
	}
	m.setupFSM()
	return m
}

func (m *Machine) setupFSM() {
	live := []fsm.State{appState(consts.AppInit), appState(consts.AppStarted)}
	m.app.AddTransitions(live, appState(consts.AppInit), evInit, nil)
	m.app.AddTransitions(live, appState(consts.AppStarted), evStart, nil)
	m.app.AddTransitions(live, appState(consts.AppTerminated), evTerminate, nil)
	m.app.SetTerminal(appState(consts.AppTerminated))

	all := []fsm.State{viewState(consts.ViewInit), viewState(consts.ViewReady), viewState(consts.ViewLand), viewState(consts.ViewTakeOff)}
	active := all[1:]
	m.view.AddTransitions(all, viewState(consts.ViewInit), evReset, nil)
	m.view.AddTransitions(all, viewState(consts.ViewReady), evReady, nil)
	m.view.AddTransitions(active, viewState(consts.ViewLand), evLand, nil)
	m.view.AddTransitions(active, viewState(consts.ViewTakeOff), evTakeOff, nil)
}

// Subscribe registers an observer for every notification from now on.
func (m *Machine) Subscribe(fn func(Notification)) (unsubscribe func()) {
	return m.observers.Subscribe(fn)
}

// Update runs fn as one transaction and emits a single notification of the
// given kind afterwards, however many fields fn wrote. Once the machine is
// terminal Update does nothing and returns false.
func (m *Machine) Update(kind Kind, fn func(tx *Tx)) (Snapshot, bool) {
	m.mu.Lock()
	if m.app.IsTerminal() {
		m.mu.Unlock()
		return m.Snapshot(), false
	}
	tx := &Tx{m: m}
	fn(tx)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.observers.Emit(Notification{Kind: kind, Snapshot: snap})
	return snap, true
}

// Seed sets the application state reported by the bootstrap request.
func (m *Machine) Seed(app consts.ApplicationState) bool {
	_, ok := m.Update(KindStateChanged, func(tx *Tx) { tx.SetApplication(app) })
	return ok
}

// Terminate enters the absorbing Terminated state. It returns true only
// for the call that actually entered it.
func (m *Machine) Terminate() bool {
	m.mu.Lock()
	if err := m.app.Fire(evTerminate); err != nil {
		m.mu.Unlock()
		return false
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.observers.Emit(Notification{Kind: KindStateChanged, Snapshot: snap})
	return true
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		Application: parseApp(m.app.Current()),
		View:        consts.ViewState(m.view.Current()),
		Health:      m.health,
	}
}

func (m *Machine) Application() consts.ApplicationState { return m.Snapshot().Application }
func (m *Machine) View() consts.ViewState               { return m.Snapshot().View }
func (m *Machine) Health() health.Model                 { return m.Snapshot().Health }
func (m *Machine) IsTerminated() bool                   { return m.app.IsTerminal() }

func parseApp(s fsm.State) consts.ApplicationState {
	switch s {
	case appState(consts.AppStarted):
		return consts.AppStarted
	case appState(consts.AppTerminated):
		return consts.AppTerminated
	default:
		return consts.AppInit
	}
}

// Tx is the write handle passed to Update. It must not escape fn.
type Tx struct {
	m   *Machine
	err error
}

// SetApplication moves the process-level state. Returning to Init resets
// the health model and the view.
func (tx *Tx) SetApplication(s consts.ApplicationState) {
	switch s {
	case consts.AppInit:
		tx.fire(tx.m.app, evInit)
		tx.m.health.Reset()
		tx.fire(tx.m.view, evReset)
	case consts.AppStarted:
		tx.fire(tx.m.app, evStart)
	case consts.AppTerminated:
		tx.fire(tx.m.app, evTerminate)
	default:
		tx.record(fmt.Errorf("unknown application state %d", int(s)))
	}
}

func (tx *Tx) SetHealth(healthCode, batteryRaw int) {
	tx.m.health.SetData(healthCode, batteryRaw)
}

func (tx *Tx) ToInit()  { tx.fire(tx.m.view, evReset) }
func (tx *Tx) ToReady() { tx.fire(tx.m.view, evReady) }

// ToLand and ToTakeOff pass through Ready when starting from Init; both
// writes land in the same notification.
func (tx *Tx) ToLand()    { tx.activate(evLand) }
func (tx *Tx) ToTakeOff() { tx.activate(evTakeOff) }

func (tx *Tx) activate(ev fsm.Event) {
	if !tx.m.view.Can(ev) {
		tx.fire(tx.m.view, evReady)
	}
	tx.fire(tx.m.view, ev)
}

func (tx *Tx) Application() consts.ApplicationState { return parseApp(tx.m.app.Current()) }
func (tx *Tx) Health() health.Model                 { return tx.m.health }
func (tx *Tx) View() consts.ViewState               { return consts.ViewState(tx.m.view.Current()) }
func (tx *Tx) Terminated() bool                     { return tx.m.app.IsTerminal() }
func (tx *Tx) Err() error                           { return tx.err }
func (tx *Tx) record(err error)                     { tx.err = err }

func (tx *Tx) fire(sm *fsm.StateMachine, ev fsm.Event) {
	if err := sm.Fire(ev); err != nil && tx.err == nil {
		tx.err = err
	}
}

// Personal.AI order the ending
