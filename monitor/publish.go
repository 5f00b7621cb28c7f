package monitor

import (
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/nats-io/nats.go"
)

// Sample is the JSON payload published for one tick.
type Sample struct {
	Time      time.Time    `json:"time"`
	Roots     []RootSample `json:"roots"`
	CurrentKB uint64       `json:"current_kb"`
	PeakKB    uint64       `json:"peak_kb"`
}

// RootSample is the per-root detail inside a Sample.
type RootSample struct {
	PID       int    `json:"pid"`
	Name      string `json:"name"`
	CurrentKB uint64 `json:"current_kb"`
	PeakKB    uint64 `json:"peak_kb"`
}

// Publisher pushes samples to a NATS subject.  Publish failures are
// reported to the caller but never abort sampling; the authoritative sink
// stays local.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher connects to the NATS server, retrying the initial connect
// with exponential backoff before giving up.
func NewPublisher(url, subject string) (*Publisher, error) {
	var nc *nats.Conn
	connect := func() error {
		var err error
		nc, err = nats.Connect(url)
		return err
	}
	if err := backoff.Retry(connect, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4)); err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, subject: subject}, nil
}

// Publish sends one sample.
func (p *Publisher) Publish(s Sample) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, payload)
}

// Close flushes pending messages and releases the connection.
func (p *Publisher) Close() {
	_ = p.nc.Drain()
}
