// internal/protocol/protocoltest/fake_transport.go

// Package protocoltest provides a scripted in-memory Transport for tests.
package protocoltest

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by a FakeTransport after Close
var ErrClosed = errors.New("fake transport closed")

type reply struct {
	data    []byte
	samples []int
}

// FakeTransport records written commands and plays back queued replies.
// Each Write makes the next queued reply (or the Respond result) pending.
type FakeTransport struct {
	// Respond builds a reply for a command (without terminator) when no
	// reply is queued. Nil means the device stays silent.
	Respond func(command string) string
	// WriteErr, when set, is returned by Write instead of sending
	WriteErr error

	mu           sync.Mutex
	writes       [][]byte
	queue        []reply
	pending      []byte
	samples      []int
	closes       int
	samplesTaken int
}

// New creates an empty fake transport
func New() *FakeTransport {
	return &FakeTransport{}
}

// QueueReply queues a reply for the next Write. When samples are given,
// Buffered reports them in order (repeating the last one) instead of the
// real pending length.
func (f *FakeTransport) QueueReply(data string, samples ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, reply{data: []byte(data), samples: samples})
}

// Write records data and makes the next reply pending
func (f *FakeTransport) Write(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closes > 0 {
		return ErrClosed
	}
	if f.WriteErr != nil {
		return f.WriteErr
	}

	f.writes = append(f.writes, append([]byte(nil), data...))

	switch {
	case len(f.queue) > 0:
		next := f.queue[0]
		f.queue = f.queue[1:]
		f.pending = append(f.pending, next.data...)
		f.samples = next.samples
	case f.Respond != nil:
		command := string(data)
		if n := len(command); n > 0 && command[n-1] == '\r' {
			command = command[:n-1]
		}
		f.pending = append(f.pending, f.Respond(command)...)
		f.samples = nil
	}
	return nil
}

// Buffered returns the scripted sample or the pending length
func (f *FakeTransport) Buffered() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closes > 0 {
		return 0, ErrClosed
	}

	f.samplesTaken++
	if len(f.samples) > 0 {
		n := f.samples[0]
		if len(f.samples) > 1 {
			f.samples = f.samples[1:]
		}
		return n, nil
	}
	return len(f.pending), nil
}

// ReadBuffered consumes n pending bytes
func (f *FakeTransport) ReadBuffered(n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n > len(f.pending) {
		return nil, fmt.Errorf("requested %d bytes, only %d pending", n, len(f.pending))
	}
	out := append([]byte(nil), f.pending[:n]...)
	f.pending = f.pending[n:]
	f.samples = nil
	return out, nil
}

// Close marks the transport closed
func (f *FakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

// Writes returns every written buffer as a string
func (f *FakeTransport) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.writes))
	for i, w := range f.writes {
		out[i] = string(w)
	}
	return out
}

// LastWrite returns the most recent written buffer, or ""
func (f *FakeTransport) LastWrite() string {
	writes := f.Writes()
	if len(writes) == 0 {
		return ""
	}
	return writes[len(writes)-1]
}

// CloseCount returns how many times Close was called
func (f *FakeTransport) CloseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// SamplesTaken returns how many times Buffered was called
func (f *FakeTransport) SamplesTaken() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.samplesTaken
}
