package fsm

// MachineOption represents options to initially set up a machine.
type MachineOption func(m *Machine) error

// WithTransitions adds allowable transitions declared with the
// T(from, tos...) shorthand.
func WithTransitions(transitions ...[]Transition) MachineOption {
	return func(m *Machine) error {
		for _, t := range flatten(transitions) {
			m.allowable[t.From] = append(m.allowable[t.From], t.To)
		}
		return nil
	}
}

// WithStoppable makes the machine stop after an unallowable transition.
// Further attempted transitions will always error.
func WithStoppable() MachineOption {
	return func(m *Machine) error {
		m.stoppable.stopOnError = true
		return nil
	}
}

type stoppable struct {
	stopOnError bool
	stopped     bool
}

func (s stoppable) ok() error {
	if s.stopOnError && s.stopped {
		return StopError{Msg: "state machine is in stopped state due to unallowable transition"}
	}
	return nil
}
