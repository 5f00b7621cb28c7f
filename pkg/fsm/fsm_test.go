package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	t1 := Transition{
		From: State("running"),
		To:   State("terminated"),
	}
	out := flatten([][]Transition{{t1, t1}, {t1}})
	assert.Equal(t, []Transition{t1, t1, t1}, out)
}

func TestMachineCreation(t *testing.T) {
	expect := map[State][]State{
		State("initializing"): {State("running"), State("failed")},
		State("running"):      {State("terminated"), State("failed")},
	}
	m, err := NewMachine(State("initializing"),
		WithTransitions(
			T(State("initializing"), State("running"), State("failed")),
			T(State("running"), State("terminated"), State("failed")),
		))
	require.NoError(t, err)
	assert.Equal(t, expect, m.allowable)
	assert.Equal(t, State("initializing"), m.State())
}

func TestTransitions(t *testing.T) {
	var tt = []struct {
		name  string
		path  []State
		fails bool
	}{
		{name: "normal lifecycle", path: []State{"running", "terminated"}},
		{name: "failure during init", path: []State{"failed"}},
		{name: "failure while running", path: []State{"running", "failed"}},
		{name: "skip running", path: []State{"terminated"}, fails: true},
		{name: "leave terminal state", path: []State{"running", "terminated", "running"}, fails: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			m, err := NewMachine(State("initializing"),
				WithTransitions(
					T(State("initializing"), State("running"), State("failed")),
					T(State("running"), State("terminated"), State("failed")),
				))
			require.NoError(t, err)

			var last error
			for _, s := range tc.path {
				last = m.Transition(s)
			}
			switch tc.fails {
			case true:
				assert.Error(t, last)
			default:
				assert.NoError(t, last)
				assert.Equal(t, tc.path[len(tc.path)-1], m.State())
			}
		})
	}
}

func TestStoppable(t *testing.T) {
	m, err := NewMachine(State("a"),
		WithTransitions(T(State("a"), State("b"))),
		WithStoppable(),
	)
	require.NoError(t, err)

	assert.Error(t, m.Transition(State("c")))

	err = m.Transition(State("b"))
	assert.IsType(t, StopError{}, err)
}
