// internal/protocol/poller.go
package protocol

import (
	"fmt"
	"time"

	"psu-service/pkg/driver"
)

// Response timing of the BK Precision 168x
const (
	DefaultPollInterval    = 20 * time.Millisecond
	DefaultResponseTimeout = 1 * time.Second
)

// Poller waits for a reply of a known length
type Poller interface {
	AwaitExact(expected int) ([]byte, error)
}

// BufferedReader is the part of a Transport a Poller needs
type BufferedReader interface {
	Buffered() (int, error)
	ReadBuffered(n int) ([]byte, error)
}

// ExactPoller samples the buffered byte count at a fixed interval and
// returns only when it equals the expected length. A count that overshoots,
// or never lands on the exact value at a sample, ends in a timeout.
type ExactPoller struct {
	reader   BufferedReader
	interval time.Duration
	timeout  time.Duration
	sleep    func(time.Duration)
}

// NewExactPoller creates a poller. Non-positive durations select the defaults.
func NewExactPoller(reader BufferedReader, interval, timeout time.Duration) *ExactPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultResponseTimeout
	}
	return &ExactPoller{
		reader:   reader,
		interval: interval,
		timeout:  timeout,
		sleep:    time.Sleep,
	}
}

// AwaitExact blocks until exactly expected bytes are buffered and consumes them.
// The wait is accounted in poll intervals, so the number of samples is
// timeout/interval regardless of scheduling jitter.
func (p *ExactPoller) AwaitExact(expected int) ([]byte, error) {
	last := 0
	for waited := time.Duration(0); waited < p.timeout; waited += p.interval {
		n, err := p.reader.Buffered()
		if err != nil {
			return nil, fmt.Errorf("failed to sample receive buffer: %w", err)
		}
		if n == expected {
			return p.reader.ReadBuffered(expected)
		}
		last = n
		p.sleep(p.interval)
	}

	return nil, driver.NewError("await response", driver.ErrTimeout,
		fmt.Sprintf("expected %d bytes within %s, last sample had %d", expected, p.timeout, last))
}
