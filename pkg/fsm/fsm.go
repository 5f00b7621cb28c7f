// Package fsm implements the small finite state machine that drives the
// sampler lifecycle.
package fsm

import (
	"fmt"
)

// State represents a possible state of the machine.
type State string

// Machine is a basic finite state machine.  It is not safe for concurrent
// use; the sampler owns exactly one and drives it from a single goroutine.
type Machine struct {
	current   State
	allowable map[State][]State
	stoppable stoppable
}

// NewMachine returns a Machine in the initial state with the configured
// transitions.  A machine with no configured transitions allows none.
func NewMachine(initial State, opts ...MachineOption) (*Machine, error) {
	machine := &Machine{
		current:   initial,
		allowable: map[State][]State{},
	}
	for _, opt := range opts {
		if err := opt(machine); err != nil {
			return nil, err
		}
	}
	return machine, nil
}

// State returns the current state of the Machine.
func (m *Machine) State() State {
	return m.current
}

// Allowable checks whether a transition between two states is allowable.
func (m *Machine) Allowable(from, to State) bool {
	return contains(to, m.allowable[from])
}

// Transition changes the current state of the machine if allowable.
func (m *Machine) Transition(to State) error {
	if err := m.stoppable.ok(); err != nil {
		return err
	}
	if !m.Allowable(m.current, to) {
		m.stoppable.stopped = true
		return TransitionNotAllowed{Msg: fmt.Sprintf("cannot transition from state %s to %s", m.current, to)}
	}
	m.current = to
	return nil
}

func contains(s State, all []State) bool {
	for _, a := range all {
		if s == a {
			return true
		}
	}
	return false
}
