package protocol

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

type fakePort struct {
	mu       sync.Mutex
	incoming chan []byte
	written  bytes.Buffer
	closed   chan struct{}
	once     sync.Once
	timeout  time.Duration
}

func newFakePort() *fakePort {
	return &fakePort{
		incoming: make(chan []byte, 16),
		closed:   make(chan struct{}),
	}
}

func (p *fakePort) Read(buf []byte) (int, error) {
	select {
	case data := <-p.incoming:
		return copy(buf, data), nil
	case <-p.closed:
		return 0, errors.New("port closed")
	case <-time.After(p.timeout):
		return 0, nil
	}
}

func (p *fakePort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(buf)
}

func (p *fakePort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

func (p *fakePort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

func openFakeConnection(t *testing.T) (*SerialConnection, *fakePort) {
	t.Helper()

	port := newFakePort()
	var gotMode *serial.Mode
	original := openPort
	openPort = func(name string, mode *serial.Mode) (serialPort, error) {
		gotMode = mode
		return port, nil
	}
	t.Cleanup(func() { openPort = original })

	conn, err := NewSerialConnection(DefaultSerialConfig("/dev/ttyUSB0"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSerialConnection failed: %v", err)
	}
	if err := conn.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if gotMode.BaudRate != 9600 || gotMode.DataBits != 8 ||
		gotMode.Parity != serial.NoParity || gotMode.StopBits != serial.OneStopBit {
		t.Fatalf("unexpected serial mode: %+v", gotMode)
	}
	return conn, port
}

func waitBuffered(t *testing.T, conn *SerialConnection, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := conn.Buffered()
		if err != nil {
			t.Fatalf("Buffered failed: %v", err)
		}
		if n == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("buffered count never reached %d", want)
}

func TestSerialConnectionRoundTrip(t *testing.T) {
	conn, port := openFakeConnection(t)
	defer conn.Close()

	if err := conn.Write(context.Background(), []byte("GOVP\r")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := port.Written(); got != "GOVP\r" {
		t.Errorf("expected %q written, got %q", "GOVP\r", got)
	}

	port.incoming <- []byte("1")
	port.incoming <- []byte("200OK\r")
	waitBuffered(t, conn, 7)

	data, err := conn.ReadBuffered(7)
	if err != nil {
		t.Fatalf("ReadBuffered failed: %v", err)
	}
	if string(data) != "1200OK\r" {
		t.Errorf("expected %q, got %q", "1200OK\r", data)
	}

	if n, _ := conn.Buffered(); n != 0 {
		t.Errorf("expected empty buffer after read, got %d", n)
	}

	stats := conn.GetStats()
	if stats.BytesWritten != 5 || stats.BytesRead != 7 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestSerialConnectionReadBufferedTooMany(t *testing.T) {
	conn, port := openFakeConnection(t)
	defer conn.Close()

	port.incoming <- []byte("OK")
	waitBuffered(t, conn, 2)

	if _, err := conn.ReadBuffered(3); err == nil {
		t.Fatal("expected error reading more than buffered")
	}
}

func TestSerialConnectionClose(t *testing.T) {
	conn, _ := openFakeConnection(t)

	if err := conn.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if conn.IsOpen() {
		t.Error("expected connection closed")
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := conn.Buffered(); err == nil {
		t.Error("expected error sampling a closed port")
	}
	if err := conn.Write(context.Background(), []byte("GETD\r")); err == nil {
		t.Error("expected error writing a closed port")
	}
}

func TestSerialConnectionRequiresPort(t *testing.T) {
	if _, err := NewSerialConnection(&SerialConfig{}, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty port")
	}
}

func TestSerialModeRejectsUnsupportedSettings(t *testing.T) {
	cfg := DefaultSerialConfig("/dev/ttyUSB0")
	cfg.Parity = "mark"
	conn, _ := NewSerialConnection(cfg, zap.NewNop())
	if _, err := conn.mode(); err == nil {
		t.Error("expected error for mark parity")
	}

	cfg = DefaultSerialConfig("/dev/ttyUSB0")
	cfg.StopBits = 3
	conn, _ = NewSerialConnection(cfg, zap.NewNop())
	if _, err := conn.mode(); err == nil {
		t.Error("expected error for 3 stop bits")
	}
}
