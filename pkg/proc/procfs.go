package proc

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Procfs reads process information directly from the Linux /proc
// pseudo-filesystem.  The zero value is not usable; use NewProcfs.
type Procfs struct {
	root string
}

var _ Source = &Procfs{}

// NewProcfs returns a Source backed by /proc.
func NewProcfs() *Procfs {
	return &Procfs{root: "/proc"}
}

// NewProcfsAt returns a Source rooted at an alternate directory laid out
// like /proc.  Used by tests.
func NewProcfsAt(root string) *Procfs {
	return &Procfs{root: root}
}

// ResidentMemoryKB reads /proc/<pid>/status and returns the VmRSS value.
// The kernel always reports VmRSS in kilobytes.
func (p *Procfs) ResidentMemoryKB(pid int) (uint64, error) {
	path := filepath.Join(p.root, strconv.Itoa(pid), "status")
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, ErrProcessAbsent
	}
	line, ok := statusField(data, "VmRSS:")
	if !ok {
		return 0, MalformedRecordError{PID: pid, Field: "VmRSS", Path: path}
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, MalformedRecordError{PID: pid, Field: "VmRSS", Path: path}
	}
	kb, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0, MalformedRecordError{PID: pid, Field: "VmRSS", Path: path}
	}
	return kb, nil
}

// ProcessName reads the Name field (kernel comm, truncated to 15 chars)
// from /proc/<pid>/status.
func (p *Procfs) ProcessName(pid int) (string, error) {
	path := filepath.Join(p.root, strconv.Itoa(pid), "status")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ErrProcessAbsent
	}
	line, ok := statusField(data, "Name:")
	if !ok {
		return "", MalformedRecordError{PID: pid, Field: "Name", Path: path}
	}
	return strings.TrimSpace(line), nil
}

// Children returns the immediate children of pid by reading the children
// record of every task of the process.
func (p *Procfs) Children(pid int) ([]int, error) {
	taskDir := filepath.Join(p.root, strconv.Itoa(pid), "task")
	tasks, err := os.ReadDir(taskDir)
	if err != nil {
		return nil, ErrProcessAbsent
	}
	var children []int
	for _, t := range tasks {
		data, err := os.ReadFile(filepath.Join(taskDir, t.Name(), "children"))
		if err != nil {
			// task exited mid-enumeration
			continue
		}
		for _, f := range strings.Fields(string(data)) {
			child, err := strconv.Atoi(f)
			if err != nil {
				continue
			}
			children = append(children, child)
		}
	}
	return children, nil
}

// Processes enumerates all live PIDs from the numeric entries of /proc.
func (p *Procfs) Processes() ([]int, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, err
	}
	pids := make([]int, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// statusField scans a /proc/<pid>/status document for the line starting
// with the given prefix and returns the remainder of that line.
func statusField(data []byte, prefix string) (string, bool) {
	s := bufio.NewScanner(bytes.NewReader(data))
	for s.Scan() {
		line := s.Text()
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", false
}
