package proc

import (
	"errors"
	"sort"
)

// RootSpec identifies the root of the tracked process tree, either by PID
// or by exact process name.  Exactly one of the two fields is set.
type RootSpec struct {
	PID  int
	Name string
}

// Resolve returns the current root processes for spec.  A PID spec yields
// at most one root; a name spec yields every live process whose kernel name
// matches exactly.  Returns RootNotFoundError when nothing matches.
func Resolve(src Source, spec RootSpec) ([]Process, error) {
	if spec.Name == "" {
		name, err := src.ProcessName(spec.PID)
		if err != nil {
			if errors.Is(err, ErrProcessAbsent) {
				return nil, RootNotFoundError{PID: spec.PID}
			}
			return nil, err
		}
		return []Process{{PID: spec.PID, Name: name}}, nil
	}

	pids, err := src.Processes()
	if err != nil {
		return nil, err
	}
	var roots []Process
	for _, pid := range pids {
		name, err := src.ProcessName(pid)
		if err != nil {
			// exited or unreadable between enumeration and read
			continue
		}
		if name == spec.Name {
			roots = append(roots, Process{PID: pid, Name: name})
		}
	}
	if len(roots) == 0 {
		return nil, RootNotFoundError{Name: spec.Name}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].PID < roots[j].PID })
	return roots, nil
}

// Expand returns root and all of its transitive descendants, sorted by PID.
// It repeatedly enumerates immediate children until a full pass discovers
// nothing new.  Enumeration errors on individual PIDs are ignored since the
// tree may change while it is being walked.
func Expand(src Source, root int) []int {
	seen := map[int]bool{root: true}
	frontier := []int{root}
	for len(frontier) > 0 {
		var next []int
		for _, pid := range frontier {
			children, err := src.Children(pid)
			if err != nil {
				continue
			}
			for _, child := range children {
				if !seen[child] {
					seen[child] = true
					next = append(next, child)
				}
			}
		}
		frontier = next
	}
	pids := make([]int, 0, len(seen))
	for pid := range seen {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}
