package monitor

import (
	"fmt"
	"io"
	"os"
	"strings"
)

var units = [...]string{"KB", "MB", "GB", "TB", "PB", "EB", "ZB"}

// formatMemory renders a kilobyte count as a human-scaled string using
// binary 1024 steps and a truncated integer value, e.g. 1536 -> "1MB".
func formatMemory(kb uint64) string {
	current := kb
	unit := 0
	for current >= 1024 && unit < len(units)-1 {
		current >>= 10
		unit++
	}
	return fmt.Sprintf("%d%s", current, units[unit])
}

// Reporter renders samples and the final peak summary.  The sink is opened
// once at construction and written incrementally, never truncated mid-run.
type Reporter struct {
	w    io.Writer
	path string
	f    *os.File
}

// NewReporter returns a Reporter writing to the given path, or to stdout
// when path is empty.
func NewReporter(path string) (*Reporter, error) {
	if path == "" {
		return &Reporter{w: os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, OutputSinkError{Path: path, Err: err}
	}
	return &Reporter{w: f, path: path, f: f}, nil
}

// Close releases the output file, if any.
func (r *Reporter) Close() error {
	if r.f == nil {
		return nil
	}
	return r.f.Close()
}

func (r *Reporter) write(line string) error {
	if _, err := io.WriteString(r.w, line); err != nil {
		return OutputSinkError{Path: r.path, Err: err}
	}
	return nil
}

// Header announces the tracked roots before the first sample.
func (r *Reporter) Header(roots []RootStat) error {
	for _, root := range roots {
		if err := r.write(fmt.Sprintf("Tracking memory usage of PID %d %s\n", root.PID, root.Name)); err != nil {
			return err
		}
	}
	return nil
}

// Exited emits a one-time notice that a tracked process is gone.
func (r *Reporter) Exited(pid int, name string) error {
	return r.write(fmt.Sprintf("PID %d %s exited\n", pid, name))
}

// Sample emits the per-tick lines: one line per root when more than one
// root is tracked, then the line for the whole tree's aggregate.
func (r *Reporter) Sample(roots []RootStat, currentKB, peakKB uint64) error {
	if len(roots) > 1 {
		for _, root := range roots {
			line := fmt.Sprintf("PID %d %s: current %s, max %s\n",
				root.PID, root.Name, formatMemory(root.CurrentKB), formatMemory(root.PeakKB))
			if err := r.write(line); err != nil {
				return err
			}
		}
		return r.write(fmt.Sprintf("total: current %s, max %s\n", formatMemory(currentKB), formatMemory(peakKB)))
	}

	label := "total"
	if len(roots) == 1 {
		label = fmt.Sprintf("PID %d %s", roots[0].PID, roots[0].Name)
	}
	return r.write(fmt.Sprintf("%s: current %s, max %s\n", label, formatMemory(currentKB), formatMemory(peakKB)))
}

// Final emits the peak summary.  Always a single line; when several roots
// were tracked their individual peaks are included on it.
func (r *Reporter) Final(roots []RootStat, peakKB uint64) error {
	if len(roots) == 1 {
		return r.write(fmt.Sprintf("PID %d %s: max %s\n", roots[0].PID, roots[0].Name, formatMemory(peakKB)))
	}
	var detail []string
	for _, root := range roots {
		detail = append(detail, fmt.Sprintf("PID %d %s max %s", root.PID, root.Name, formatMemory(root.PeakKB)))
	}
	line := fmt.Sprintf("total: max %s", formatMemory(peakKB))
	if len(detail) > 0 {
		line += fmt.Sprintf(" (%s)", strings.Join(detail, ", "))
	}
	return r.write(line + "\n")
}
