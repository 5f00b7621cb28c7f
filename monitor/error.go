package monitor

import "fmt"

// OutputSinkError wraps a failure to open or write the measurement output.
// The result cannot be guaranteed to have reached the user, so this error
// is fatal to the monitor.
type OutputSinkError struct {
	Path string
	Err  error
}

func (e OutputSinkError) Error() string {
	path := e.Path
	if path == "" {
		path = "stdout"
	}
	return fmt.Sprintf("could not write output to %s: %v", path, e.Err)
}

func (e OutputSinkError) Unwrap() error {
	return e.Err
}
