package monitor

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-yaml/yaml"
	"github.com/spf13/pflag"
)

func init() {
	pflag.StringP("config", "c", "", "Use yaml configuration file")
	pflag.String("name", "", "Track every process whose name exactly matches the value.  Mutually exclusive with a pid argument.")
	pflag.Int("hertz", 1, "Sampling rate in ticks per second.  Minimum 1.")
	pflag.String("output-file", "", "File path where output is written.  Stdout if absent.")
	pflag.Bool("final", false, "Suppress per-tick output and print a single line with the peak value at exit.")
	pflag.String("backend", BackendProcfs, "Process information backend: procfs or gopsutil.")
	pflag.String("log-file", "", "Write diagnostics to a rotating log file instead of stderr.")
	pflag.String("nats-url", "", "Publish each sample as JSON to this NATS server.")
	pflag.String("nats-subject", DefaultNatsSubject, "Subject to publish samples to.")
}

type options struct {
	options []ConfigOption
}

// ParseCommandLine parses flags into config options and returns the
// positional root PID argument, if any.
func ParseCommandLine() (string, []ConfigOption) {
	options := options{}
	pflag.ParseAll(parseFlag(&options))
	var rootArg string
	if args := pflag.Args(); len(args) > 0 {
		rootArg = args[0]
	}
	return rootArg, options.options
}

func parseFlag(o *options) func(*pflag.Flag, string) error {
	return func(flag *pflag.Flag, value string) error {
		switch flag.Name {
		case "config":
			opts, err := parseFromFile(value)
			if err != nil {
				return err
			}
			o.options = append(o.options, opts...)
		default:
			option, err := handleOption(flag.Name, value)
			if err != nil {
				return err
			}
			o.options = append(o.options, option)
		}
		return nil
	}
}

func handleOption(name string, value string) (ConfigOption, error) {
	switch name {
	case "name":
		return Name(value), nil
	case "hertz":
		return Hertz(value), nil
	case "output-file":
		return OutputFile(value), nil
	case "final":
		return Final(), nil
	case "backend":
		return Backend(value), nil
	case "log-file":
		return LogFile(value), nil
	case "nats-url":
		return NatsURL(value), nil
	case "nats-subject":
		return NatsSubject(value), nil
	default:
		return nil, fmt.Errorf("unknown option: %s", name)
	}
}

// parseFromFile converts a yaml configuration file into config options.
// Keys match the command-line flag names.
func parseFromFile(fpath string) ([]ConfigOption, error) {
	var options []ConfigOption
	data, err := os.ReadFile(fpath)
	if err != nil {
		return options, err
	}

	cfg := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return options, err
	}
	for k, v := range cfg {
		var value string
		switch v := v.(type) {
		case string:
			value = v
		case int:
			value = strconv.Itoa(v)
		case bool:
			if !v {
				continue
			}
		default:
			return options, fmt.Errorf("could not process config key %s, unknown type", k)
		}
		opt, err := handleOption(k, value)
		if err != nil {
			return options, err
		}
		options = append(options, opt)
	}
	return options, nil
}
