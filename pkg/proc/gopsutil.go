package proc

import (
	"errors"

	"github.com/shirou/gopsutil/v3/process"
)

// Gopsutil is an alternate Source backed by the gopsutil library.  It trades
// the kB-exact procfs parsing of Procfs for portability.
type Gopsutil struct{}

var _ Source = Gopsutil{}

// NewGopsutil returns a Source backed by gopsutil.
func NewGopsutil() Gopsutil {
	return Gopsutil{}
}

func (Gopsutil) ResidentMemoryKB(pid int) (uint64, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return 0, ErrProcessAbsent
	}
	info, err := p.MemoryInfo()
	if err != nil {
		if running, rerr := p.IsRunning(); rerr == nil && !running {
			return 0, ErrProcessAbsent
		}
		return 0, MalformedRecordError{PID: pid, Field: "rss", Path: "gopsutil"}
	}
	return info.RSS / 1024, nil
}

func (Gopsutil) ProcessName(pid int) (string, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", ErrProcessAbsent
	}
	name, err := p.Name()
	if err != nil {
		return "", ErrProcessAbsent
	}
	return name, nil
}

func (Gopsutil) Children(pid int) ([]int, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, ErrProcessAbsent
	}
	procs, err := p.Children()
	if err != nil {
		if errors.Is(err, process.ErrorNoChildren) {
			return nil, nil
		}
		return nil, ErrProcessAbsent
	}
	children := make([]int, 0, len(procs))
	for _, c := range procs {
		children = append(children, int(c.Pid))
	}
	return children, nil
}

func (Gopsutil) Processes() ([]int, error) {
	raw, err := process.Pids()
	if err != nil {
		return nil, err
	}
	pids := make([]int, 0, len(raw))
	for _, pid := range raw {
		pids = append(pids, int(pid))
	}
	return pids, nil
}
