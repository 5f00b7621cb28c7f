package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory Source for exercising discovery without a
// real /proc.
type fakeSource struct {
	procs map[int]fakeProc
}

type fakeProc struct {
	name     string
	rssKB    uint64
	children []int
}

func (f fakeSource) ResidentMemoryKB(pid int) (uint64, error) {
	p, ok := f.procs[pid]
	if !ok {
		return 0, ErrProcessAbsent
	}
	return p.rssKB, nil
}

func (f fakeSource) ProcessName(pid int) (string, error) {
	p, ok := f.procs[pid]
	if !ok {
		return "", ErrProcessAbsent
	}
	return p.name, nil
}

func (f fakeSource) Children(pid int) ([]int, error) {
	p, ok := f.procs[pid]
	if !ok {
		return nil, ErrProcessAbsent
	}
	return p.children, nil
}

func (f fakeSource) Processes() ([]int, error) {
	pids := make([]int, 0, len(f.procs))
	for pid := range f.procs {
		pids = append(pids, pid)
	}
	return pids, nil
}

func TestResolveByPID(t *testing.T) {
	src := fakeSource{procs: map[int]fakeProc{
		100: {name: "bash"},
	}}

	roots, err := Resolve(src, RootSpec{PID: 100})
	require.NoError(t, err)
	assert.Equal(t, []Process{{PID: 100, Name: "bash"}}, roots)
}

func TestResolveByPIDNotFound(t *testing.T) {
	src := fakeSource{procs: map[int]fakeProc{}}

	_, err := Resolve(src, RootSpec{PID: 100})
	var notFound RootNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 100, notFound.PID)
}

func TestResolveByName(t *testing.T) {
	src := fakeSource{procs: map[int]fakeProc{
		200: {name: "worker"},
		201: {name: "worker"},
		300: {name: "other"},
	}}

	roots, err := Resolve(src, RootSpec{Name: "worker"})
	require.NoError(t, err)
	assert.Equal(t, []Process{{PID: 200, Name: "worker"}, {PID: 201, Name: "worker"}}, roots)
}

func TestResolveByNameExactMatchOnly(t *testing.T) {
	src := fakeSource{procs: map[int]fakeProc{
		200: {name: "worker-2"},
	}}

	_, err := Resolve(src, RootSpec{Name: "worker"})
	var notFound RootNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "worker", notFound.Name)
}

func TestExpandTree(t *testing.T) {
	src := fakeSource{procs: map[int]fakeProc{
		1:   {name: "init", children: []int{100, 300}},
		100: {name: "bash", children: []int{101, 102}},
		101: {name: "child", children: []int{103}},
		102: {name: "child"},
		103: {name: "grandchild"},
		300: {name: "unrelated"},
	}}

	assert.Equal(t, []int{100, 101, 102, 103}, Expand(src, 100))
	assert.Equal(t, []int{101, 103}, Expand(src, 101))
	assert.Equal(t, []int{102}, Expand(src, 102))
}

func TestExpandIsIdempotent(t *testing.T) {
	src := fakeSource{procs: map[int]fakeProc{
		100: {name: "bash", children: []int{101}},
		101: {name: "child"},
	}}

	first := Expand(src, 100)
	second := Expand(src, 100)
	assert.Equal(t, first, second)
}

func TestExpandSurvivesCycles(t *testing.T) {
	// a pid appearing as its own descendant must not loop forever
	src := fakeSource{procs: map[int]fakeProc{
		100: {name: "a", children: []int{101}},
		101: {name: "b", children: []int{100}},
	}}

	assert.Equal(t, []int{100, 101}, Expand(src, 100))
}
