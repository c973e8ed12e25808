package fsm

import (
	"fmt"
	"sync"
)

type State string
type Event string

// Handler is executed after a transition has been applied. It runs outside
// the machine's lock, so it may read Current or Fire further events.
type Handler func(from, to State, event Event, args ...interface{}) error

type edge struct {
	to       State
	callback Handler
}

type StateMachine struct {
	mu          sync.RWMutex
	current     State
	transitions map[State]map[Event]edge
	terminal    map[State]bool
}

func New(initial State) *StateMachine {
	return &StateMachine{
		current:     initial,
		transitions: make(map[State]map[Event]edge),
		terminal:    make(map[State]bool),
	}
}

func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Is reports whether the machine is currently in s.
func (sm *StateMachine) Is(s State) bool {
	return sm.Current() == s
}

// AddTransition registers from --event--> to. Registering the same pair
// again replaces the earlier edge.
func (sm *StateMachine) AddTransition(from, to State, event Event, callback Handler) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.transitions[from]; !ok {
		sm.transitions[from] = make(map[Event]edge)
	}
	sm.transitions[from][event] = edge{to: to, callback: callback}
}

// AddTransitions registers the same event from several source states.
func (sm *StateMachine) AddTransitions(from []State, to State, event Event, callback Handler) {
	for _, f := range from {
		sm.AddTransition(f, to, event, callback)
	}
}

// SetTerminal marks s as absorbing. Fire never leaves a terminal state,
// even if a transition out of it was registered.
func (sm *StateMachine) SetTerminal(s State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.terminal[s] = true
}

// IsTerminal reports whether the current state is absorbing.
func (sm *StateMachine) IsTerminal() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.terminal[sm.current]
}

// Can reports whether event is accepted from the current state.
func (sm *StateMachine) Can(event Event) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if sm.terminal[sm.current] {
		return false
	}
	_, ok := sm.transitions[sm.current][event]
	return ok
}

// Fire triggers a state transition. It is thread-safe.
// The new state is committed before the callback runs; a callback error is
// returned to the caller but does not roll the transition back.
func (sm *StateMachine) Fire(event Event, args ...interface{}) error {
	sm.mu.Lock()
	from := sm.current
	if sm.terminal[from] {
		sm.mu.Unlock()
		return fmt.Errorf("state %s is terminal, ignoring %s", from, event)
	}
	e, ok := sm.transitions[from][event]
	if !ok {
		sm.mu.Unlock()
		return fmt.Errorf("invalid transition from %s via %s", from, event)
	}
	sm.current = e.to
	sm.mu.Unlock()

	if e.callback != nil {
		return e.callback(from, e.to, event, args...)
	}
	return nil
}

// Personal.AI order the ending
