package monitor

import (
	"fmt"
	"strconv"
	"time"
)

// Process information backends.
const (
	BackendProcfs   = "procfs"
	BackendGopsutil = "gopsutil"
)

// DefaultNatsSubject is the subject samples are published to when
// publishing is enabled and no subject is configured.
const DefaultNatsSubject = "memimpact.samples"

// Config holds the resolved monitor configuration.  Exactly one of RootPID
// and RootName is set.
type Config struct {
	RootPID     int
	RootName    string
	Hertz       int
	OutputPath  string
	Final       bool
	Backend     string
	LogPath     string
	NatsURL     string
	NatsSubject string
}

// ConfigOption mutates a Config during construction, returning an error if
// the supplied value is invalid.
type ConfigOption func(c *Config) error

// newConfig builds a Config from the positional root argument and any
// options, collecting all validation errors rather than stopping at the
// first.
func newConfig(rootArg string, options ...ConfigOption) (Config, []error) {
	c := Config{
		Hertz:       1,
		Backend:     BackendProcfs,
		NatsSubject: DefaultNatsSubject,
	}

	var errors []error
	for _, option := range options {
		if err := option(&c); err != nil {
			errors = append(errors, err)
		}
	}

	if rootArg != "" {
		pid, err := strconv.Atoi(rootArg)
		switch {
		case err != nil || pid <= 0:
			errors = append(errors, fmt.Errorf("invalid pid: %s", rootArg))
		case c.RootName != "":
			errors = append(errors, fmt.Errorf("a pid argument and --name are mutually exclusive"))
		default:
			c.RootPID = pid
		}
	}
	if rootArg == "" && c.RootName == "" {
		errors = append(errors, fmt.Errorf("a pid argument or --name is required"))
	}

	if len(errors) > 0 {
		return Config{}, errors
	}
	return c, nil
}

// Interval returns the fixed sleep between tick starts.
func (c Config) Interval() time.Duration {
	return time.Second / time.Duration(c.Hertz)
}

// Name tracks every process whose kernel name exactly matches value instead
// of a single PID.
func Name(value string) ConfigOption {
	return func(c *Config) error {
		if value == "" {
			return fmt.Errorf("name must be the non-empty string")
		}
		c.RootName = value
		return nil
	}
}

// Hertz sets the sampling rate in ticks per second.
func Hertz(value string) ConfigOption {
	return func(c *Config) error {
		hz, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("could not convert hertz to integer: %s", value)
		}
		if hz < 1 {
			return fmt.Errorf("hertz must be at least 1")
		}
		c.Hertz = hz
		return nil
	}
}

// OutputFile directs measurement output to a file instead of stdout.
func OutputFile(path string) ConfigOption {
	return func(c *Config) error {
		c.OutputPath = path
		return nil
	}
}

// Final suppresses per-tick output; only the peak summary is emitted when
// the tracked tree has fully exited.
func Final() ConfigOption {
	return func(c *Config) error {
		c.Final = true
		return nil
	}
}

// Backend selects the process information backend.
func Backend(value string) ConfigOption {
	return func(c *Config) error {
		switch value {
		case BackendProcfs, BackendGopsutil:
			c.Backend = value
			return nil
		default:
			return fmt.Errorf("unknown backend %s, must be %s or %s", value, BackendProcfs, BackendGopsutil)
		}
	}
}

// LogFile writes diagnostics to a rotating log file instead of stderr.
func LogFile(path string) ConfigOption {
	return func(c *Config) error {
		c.LogPath = path
		return nil
	}
}

// NatsURL enables publishing each sample to a NATS server.
func NatsURL(url string) ConfigOption {
	return func(c *Config) error {
		c.NatsURL = url
		return nil
	}
}

// NatsSubject overrides the subject samples are published to.
func NatsSubject(subject string) ConfigOption {
	return func(c *Config) error {
		if subject == "" {
			return fmt.Errorf("nats subject must be the non-empty string")
		}
		c.NatsSubject = subject
		return nil
	}
}
