package proc

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProc lays out a fake /proc entry for one process.
func writeProc(t *testing.T, root string, pid int, status string, children string) {
	t.Helper()
	dir := filepath.Join(root, strconv.Itoa(pid))
	taskDir := filepath.Join(dir, "task", strconv.Itoa(pid))
	require.NoError(t, os.MkdirAll(taskDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), []byte(status), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(taskDir, "children"), []byte(children), 0644))
}

func TestProcfsResidentMemory(t *testing.T) {
	tt := []struct {
		name      string
		status    string
		expect    uint64
		absent    bool
		malformed bool
	}{
		{name: "valid", status: "Name:\tbash\nVmSize:\t 10000 kB\nVmRSS:\t    1234 kB\nPPid:\t1\n", expect: 1234},
		{name: "no VmRSS field", status: "Name:\tkthreadd\nPPid:\t0\n", malformed: true},
		{name: "non numeric value", status: "Name:\tbash\nVmRSS:\tlots kB\n", malformed: true},
		{name: "empty value", status: "Name:\tbash\nVmRSS:\n", malformed: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			writeProc(t, root, 100, tc.status, "")
			src := NewProcfsAt(root)

			kb, err := src.ResidentMemoryKB(100)
			switch {
			case tc.malformed:
				var malformed MalformedRecordError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, 100, malformed.PID)
				assert.Equal(t, "VmRSS", malformed.Field)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.expect, kb)
			}
		})
	}
}

func TestProcfsAbsentProcess(t *testing.T) {
	src := NewProcfsAt(t.TempDir())

	_, err := src.ResidentMemoryKB(4242)
	assert.True(t, errors.Is(err, ErrProcessAbsent))

	_, err = src.ProcessName(4242)
	assert.True(t, errors.Is(err, ErrProcessAbsent))

	_, err = src.Children(4242)
	assert.True(t, errors.Is(err, ErrProcessAbsent))
}

func TestProcfsProcessName(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, 100, "Name:\tmy-worker\nVmRSS:\t 10 kB\n", "")
	src := NewProcfsAt(root)

	name, err := src.ProcessName(100)
	require.NoError(t, err)
	assert.Equal(t, "my-worker", name)
}

func TestProcfsChildren(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, 100, "Name:\tparent\nVmRSS:\t 10 kB\n", "101 102 ")
	src := NewProcfsAt(root)

	children, err := src.Children(100)
	require.NoError(t, err)
	assert.Equal(t, []int{101, 102}, children)
}

func TestProcfsChildrenEmpty(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, 100, "Name:\tleaf\nVmRSS:\t 10 kB\n", "")
	src := NewProcfsAt(root)

	children, err := src.Children(100)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestProcfsProcesses(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, 100, "Name:\ta\n", "")
	writeProc(t, root, 250, "Name:\tb\n", "")
	// non-numeric entries like /proc/self must be skipped
	require.NoError(t, os.MkdirAll(filepath.Join(root, "self"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uptime"), []byte("1 1"), 0644))
	src := NewProcfsAt(root)

	pids, err := src.Processes()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{100, 250}, pids)
}
