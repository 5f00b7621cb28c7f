package monitor

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/BTBurke/memimpact/pkg/fsm"
	"github.com/BTBurke/memimpact/pkg/proc"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Sampler lifecycle states.
const (
	StateInitializing = fsm.State("initializing")
	StateRunning      = fsm.State("running")
	StateTerminated   = fsm.State("terminated")
	StateFailed       = fsm.State("failed")
)

func newLifecycle() *fsm.Machine {
	m, _ := fsm.NewMachine(StateInitializing, fsm.WithTransitions(
		fsm.T(StateInitializing, StateRunning, StateFailed),
		fsm.T(StateRunning, StateTerminated, StateFailed),
	))
	return m
}

// TrackedProcess is one live member of the tracked tree.  Entries are
// created when discovery first observes a PID and removed the tick a read
// reports the process absent.
type TrackedProcess struct {
	PID       int
	Name      string
	LastRSSKB uint64
	Alive     bool
}

// RootStat accumulates per-root aggregates.  Roots that exited are kept,
// not-alive, so the final summary can still report their peaks.
type RootStat struct {
	PID       int
	Name      string
	CurrentKB uint64
	PeakKB    uint64
	Alive     bool
}

// Monitor samples the resident memory of a process tree at a fixed rate
// and tracks the peak aggregate.  All state is owned by the single
// goroutine driving Run; there is no locking because there are no
// concurrent readers.
type Monitor struct {
	Config Config

	src       proc.Source
	machine   *fsm.Machine
	reporter  *Reporter
	publisher *Publisher
	logger    *log.Logger

	tracked   map[int]*TrackedProcess
	roots     map[int]*RootStat
	currentKB uint64
	peakKB    uint64
}

// New builds a Monitor from the positional root argument and config
// options.  All configuration errors are returned together.
func New(rootArg string, options ...ConfigOption) (*Monitor, []error) {
	cfg, errs := newConfig(rootArg, options...)
	if len(errs) > 0 {
		return nil, errs
	}

	reporter, err := NewReporter(cfg.OutputPath)
	if err != nil {
		return nil, []error{err}
	}

	var src proc.Source
	switch cfg.Backend {
	case BackendGopsutil:
		src = proc.NewGopsutil()
	default:
		src = proc.NewProcfs()
	}

	logWriter := io.Writer(os.Stderr)
	if cfg.LogPath != "" {
		logWriter = &lumberjack.Logger{Filename: cfg.LogPath, MaxSize: 10, MaxBackups: 3}
	}

	m := newMonitor(cfg, src, reporter, log.New(logWriter, "memimpact ", log.LstdFlags))

	if cfg.NatsURL != "" {
		publisher, err := NewPublisher(cfg.NatsURL, cfg.NatsSubject)
		if err != nil {
			return nil, []error{err}
		}
		m.publisher = publisher
	}
	return m, nil
}

func newMonitor(cfg Config, src proc.Source, reporter *Reporter, logger *log.Logger) *Monitor {
	return &Monitor{
		Config:   cfg,
		src:      src,
		machine:  newLifecycle(),
		reporter: reporter,
		logger:   logger,
		tracked:  map[int]*TrackedProcess{},
		roots:    map[int]*RootStat{},
	}
}

// State returns the current lifecycle state.
func (m *Monitor) State() fsm.State {
	return m.machine.State()
}

// PeakKB returns the peak aggregate observed so far.
func (m *Monitor) PeakKB() uint64 {
	return m.peakKB
}

// Run samples until the tracked tree has fully exited or ctx is cancelled.
// Cancellation still emits the best-known peak before returning.  A nil
// return means the final summary reached the output sink.
func (m *Monitor) Run(ctx context.Context) error {
	defer m.reporter.Close()
	if m.publisher != nil {
		defer m.publisher.Close()
	}

	if err := m.initialize(); err != nil {
		return err
	}

	ticker := time.NewTicker(m.Config.Interval())
	defer ticker.Stop()
	for {
		done, err := m.tick()
		if err != nil {
			_ = m.machine.Transition(StateFailed)
			return err
		}
		if done {
			return m.finish()
		}
		select {
		case <-ctx.Done():
			return m.finish()
		case <-ticker.C:
		}
	}
}

func (m *Monitor) rootSpec() proc.RootSpec {
	return proc.RootSpec{PID: m.Config.RootPID, Name: m.Config.RootName}
}

// initialize resolves the root specification once.  No matching process at
// this point is a hard failure.
func (m *Monitor) initialize() error {
	roots, err := proc.Resolve(m.src, m.rootSpec())
	if err != nil {
		_ = m.machine.Transition(StateFailed)
		return err
	}
	for _, r := range roots {
		m.roots[r.PID] = &RootStat{PID: r.PID, Name: r.Name, Alive: true}
		m.tracked[r.PID] = &TrackedProcess{PID: r.PID, Name: r.Name, Alive: true}
	}
	if !m.Config.Final {
		if err := m.reporter.Header(m.allRoots()); err != nil {
			_ = m.machine.Transition(StateFailed)
			return err
		}
	}
	_ = m.machine.Transition(StateRunning)
	return nil
}

// tick performs one sample: discovery refresh, per-PID reads, aggregation,
// peak update, and output.  It reports done when the tracked tree is empty.
func (m *Monitor) tick() (bool, error) {
	roots, err := proc.Resolve(m.src, m.rootSpec())
	if err != nil {
		var notFound proc.RootNotFoundError
		if errors.As(err, &notFound) {
			return true, m.markAllExited()
		}
		return false, err
	}

	liveRoots := map[int]bool{}
	for _, r := range roots {
		liveRoots[r.PID] = true
		if _, ok := m.roots[r.PID]; !ok {
			m.roots[r.PID] = &RootStat{PID: r.PID, Name: r.Name, Alive: true}
		}
	}

	// The tracked set is recomputed from scratch: expansion re-runs the
	// full child enumeration so trees changed since the last tick are
	// picked up and reparented descendants are dropped.
	subtrees := map[int][]int{}
	treeSet := map[int]bool{}
	for _, r := range roots {
		pids := proc.Expand(m.src, r.PID)
		subtrees[r.PID] = pids
		for _, pid := range pids {
			treeSet[pid] = true
		}
	}

	for pid, tp := range m.tracked {
		if !treeSet[pid] {
			tp.Alive = false
			if !m.Config.Final {
				if err := m.reporter.Exited(pid, tp.Name); err != nil {
					return false, err
				}
			}
			delete(m.tracked, pid)
		}
	}

	rss := map[int]uint64{}
	for pid := range treeSet {
		kb, err := m.src.ResidentMemoryKB(pid)
		if err != nil {
			switch {
			case errors.Is(err, proc.ErrProcessAbsent):
				// exited between discovery and read
			default:
				m.logger.Printf("skipping pid %d for this sample: %v", pid, err)
			}
			delete(m.tracked, pid)
			continue
		}
		if tp, ok := m.tracked[pid]; ok {
			tp.LastRSSKB = kb
			tp.Alive = true
		} else {
			name, nerr := m.src.ProcessName(pid)
			if nerr != nil {
				name = "?"
			}
			m.tracked[pid] = &TrackedProcess{PID: pid, Name: name, LastRSSKB: kb, Alive: true}
		}
		rss[pid] = kb
	}

	var current uint64
	for _, kb := range rss {
		current += kb
	}
	m.currentKB = current
	if current > m.peakKB {
		m.peakKB = current
	}

	for rootPID, pids := range subtrees {
		var sum uint64
		for _, pid := range pids {
			sum += rss[pid]
		}
		rs := m.roots[rootPID]
		rs.CurrentKB = sum
		rs.Alive = true
		if sum > rs.PeakKB {
			rs.PeakKB = sum
		}
	}
	for pid, rs := range m.roots {
		if !liveRoots[pid] {
			rs.Alive = false
			rs.CurrentKB = 0
		}
	}

	if !m.Config.Final {
		if err := m.reporter.Sample(m.aliveRoots(), current, m.peakKB); err != nil {
			return false, err
		}
	}
	if m.publisher != nil {
		if err := m.publisher.Publish(m.sample()); err != nil {
			m.logger.Printf("publish failed: %v", err)
		}
	}

	return len(rss) == 0, nil
}

// markAllExited handles the root specification no longer matching any live
// process: every remaining tracked entry gets its exit notice and the
// aggregate drops to zero.  The peak is left untouched.
func (m *Monitor) markAllExited() error {
	for pid, tp := range m.tracked {
		tp.Alive = false
		if !m.Config.Final {
			if err := m.reporter.Exited(pid, tp.Name); err != nil {
				return err
			}
		}
		delete(m.tracked, pid)
	}
	for _, rs := range m.roots {
		rs.Alive = false
		rs.CurrentKB = 0
	}
	m.currentKB = 0
	return nil
}

// finish emits the final peak summary and transitions to Terminated.  Used
// for both natural termination and external cancellation.
func (m *Monitor) finish() error {
	_ = m.machine.Transition(StateTerminated)
	return m.reporter.Final(m.allRoots(), m.peakKB)
}

func (m *Monitor) aliveRoots() []RootStat {
	var out []RootStat
	for _, rs := range m.roots {
		if rs.Alive {
			out = append(out, *rs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

func (m *Monitor) allRoots() []RootStat {
	out := make([]RootStat, 0, len(m.roots))
	for _, rs := range m.roots {
		out = append(out, *rs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

func (m *Monitor) sample() Sample {
	roots := m.aliveRoots()
	s := Sample{
		Time:      time.Now(),
		CurrentKB: m.currentKB,
		PeakKB:    m.peakKB,
	}
	for _, r := range roots {
		s.Roots = append(s.Roots, RootSample{PID: r.PID, Name: r.Name, CurrentKB: r.CurrentKB, PeakKB: r.PeakKB})
	}
	return s
}
