package proc

import (
	"errors"
	"fmt"
)

// ErrProcessAbsent signals that a PID's kernel record no longer exists.
// This is the normal termination signal for a process, not a failure.
var ErrProcessAbsent = errors.New("process absent")

// MalformedRecordError is returned when a process record exists but the
// expected field is missing or unparsable.  Callers skip the PID for the
// current sample and may log a diagnostic.
type MalformedRecordError struct {
	PID   int
	Field string
	Path  string
}

func (e MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record for pid %d: field %s missing or unparsable in %s", e.PID, e.Field, e.Path)
}

// RootNotFoundError is returned when a root specification matches no live
// process.  Fatal when resolving the root for the first time, otherwise it
// means the tracked tree has fully exited.
type RootNotFoundError struct {
	PID  int
	Name string
}

func (e RootNotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("no process named %q", e.Name)
	}
	return fmt.Sprintf("no process with pid %d", e.PID)
}
