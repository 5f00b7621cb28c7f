// Package proc exposes the kernel process information consumed by the
// sampler: resident memory, process names, and parent/child relationships.
//
// The default backend reads the Linux /proc pseudo-filesystem directly.  A
// gopsutil-backed implementation of the same Source interface is available
// for environments where parsing /proc by hand is undesirable.
//
// A PID is only ever a snapshot-scoped identifier.  If a process exits and
// the kernel recycles its PID for an unrelated process between two reads,
// the new process is indistinguishable from the old one at this layer.
package proc

// Source provides the minimal process capabilities needed to discover and
// measure a process tree.  All methods re-read kernel state on every call;
// implementations must not cache results between calls.
type Source interface {
	// ResidentMemoryKB returns the resident set size of pid in kilobytes.
	// Returns ErrProcessAbsent if the process no longer exists, or a
	// MalformedRecordError if its record exists but cannot be parsed.
	ResidentMemoryKB(pid int) (uint64, error)

	// ProcessName returns the kernel short name (comm) for pid.
	ProcessName(pid int) (string, error)

	// Children returns the immediate child PIDs of pid.  A process that
	// exited mid-call yields ErrProcessAbsent.
	Children(pid int) ([]int, error)

	// Processes enumerates the PIDs of all currently live processes.
	Processes() ([]int, error)
}

// Process pairs a PID with its display name.
type Process struct {
	PID  int
	Name string
}
