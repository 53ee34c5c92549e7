// internal/protocol/serial_connection.go
package protocol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// serialPort is the subset of serial.Port used by SerialConnection
type serialPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// openPort opens a real serial port. Replaced in tests.
var openPort = func(name string, mode *serial.Mode) (serialPort, error) {
	return serial.Open(name, mode)
}

// SerialConnection implements Transport over a serial port. A receive pump
// moves incoming bytes into an in-process buffer so the number of waiting
// bytes can be sampled without consuming them.
type SerialConnection struct {
	config *SerialConfig
	port   serialPort
	logger *zap.Logger
	mutex  sync.Mutex
	isOpen bool
	stats  *ProtocolStats

	rx      []byte
	readErr error
	stop    chan struct{}
	done    chan struct{}
}

// NewSerialConnection creates a new serial connection
func NewSerialConnection(config *SerialConfig, logger *zap.Logger) (*SerialConnection, error) {
	if config == nil || config.Port == "" {
		return nil, fmt.Errorf("port is required")
	}

	return &SerialConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "serial"),
			zap.String("port", config.Port),
		),
		stats: &ProtocolStats{},
	}, nil
}

// Open opens the serial port and starts the receive pump
func (sc *SerialConnection) Open(ctx context.Context) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.isOpen {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	mode, err := sc.mode()
	if err != nil {
		return err
	}

	sc.logger.Info("Opening serial port",
		zap.Int("baud_rate", mode.BaudRate),
		zap.Int("data_bits", mode.DataBits),
		zap.String("parity", sc.config.Parity),
	)

	port, err := openPort(sc.config.Port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", sc.config.Port, err)
	}

	readTimeout := sc.config.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}

	sc.port = port
	sc.isOpen = true
	sc.rx = sc.rx[:0]
	sc.readErr = nil
	sc.stop = make(chan struct{})
	sc.done = make(chan struct{})
	sc.stats.IsConnected = true
	sc.stats.LastActivity = time.Now()

	go sc.pump(port, sc.stop, sc.done)

	sc.logger.Info("Serial port opened successfully")
	return nil
}

// Close stops the receive pump and closes the port
func (sc *SerialConnection) Close() error {
	sc.mutex.Lock()
	if !sc.isOpen || sc.port == nil {
		sc.mutex.Unlock()
		return nil
	}

	close(sc.stop)
	err := sc.port.Close()
	done := sc.done
	sc.port = nil
	sc.isOpen = false
	sc.stats.IsConnected = false
	sc.mutex.Unlock()

	<-done

	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	sc.logger.Info("Serial port closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (sc *SerialConnection) IsOpen() bool {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	return sc.isOpen && sc.port != nil
}

// Write writes data to the serial port. A short write is not reported.
func (sc *SerialConnection) Write(ctx context.Context, data []byte) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return fmt.Errorf("serial port not open")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	startTime := time.Now()
	n, err := sc.port.Write(data)
	if err != nil {
		sc.stats.ErrorCount++
		return fmt.Errorf("failed to write to serial port: %w", err)
	}

	sc.stats.BytesWritten += int64(n)
	sc.stats.OperationCount++
	sc.stats.LastActivity = time.Now()
	sc.updateAverageLatency(time.Since(startTime))

	sc.logger.Debug("Serial write completed",
		zap.Int("bytes", n),
		zap.Int("requested", len(data)),
		zap.ByteString("data", data),
	)
	return nil
}

// Buffered returns the number of received bytes not yet consumed
func (sc *SerialConnection) Buffered() (int, error) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen {
		return 0, fmt.Errorf("serial port not open")
	}
	if sc.readErr != nil {
		return 0, fmt.Errorf("serial receive failed: %w", sc.readErr)
	}
	return len(sc.rx), nil
}

// ReadBuffered consumes exactly n buffered bytes
func (sc *SerialConnection) ReadBuffered(n int) ([]byte, error) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if n > len(sc.rx) {
		return nil, fmt.Errorf("requested %d bytes, only %d buffered", n, len(sc.rx))
	}

	out := make([]byte, n)
	copy(out, sc.rx[:n])
	sc.rx = append(sc.rx[:0], sc.rx[n:]...)

	sc.logger.Debug("Serial read completed",
		zap.Int("bytes", n),
		zap.ByteString("data", out),
	)
	return out, nil
}

// GetStats returns a snapshot of the connection statistics
func (sc *SerialConnection) GetStats() ProtocolStats {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	return *sc.stats
}

// pump copies incoming bytes into the receive buffer until stopped
func (sc *SerialConnection) pump(port serialPort, stop, done chan struct{}) {
	defer close(done)

	buf := make([]byte, 128)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := port.Read(buf)
		if n > 0 {
			sc.mutex.Lock()
			sc.rx = append(sc.rx, buf[:n]...)
			sc.stats.BytesRead += int64(n)
			sc.stats.LastActivity = time.Now()
			sc.mutex.Unlock()
		}
		if err != nil {
			select {
			case <-stop:
				return
			default:
			}
			sc.mutex.Lock()
			sc.readErr = err
			sc.stats.ErrorCount++
			sc.mutex.Unlock()
			sc.logger.Error("Serial receive pump stopped", zap.Error(err))
			return
		}
	}
}

// mode builds the serial mode from configuration
func (sc *SerialConnection) mode() (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: sc.config.BaudRate,
		DataBits: sc.config.DataBits,
	}

	switch sc.config.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits: %d", sc.config.StopBits)
	}

	switch sc.config.Parity {
	case "", "none":
		mode.Parity = serial.NoParity
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		return nil, fmt.Errorf("unsupported parity: %s", sc.config.Parity)
	}

	return mode, nil
}

// updateAverageLatency updates the running average latency
func (sc *SerialConnection) updateAverageLatency(newLatency time.Duration) {
	if sc.stats.AverageLatency == 0 {
		sc.stats.AverageLatency = newLatency
	} else {
		sc.stats.AverageLatency = (sc.stats.AverageLatency + newLatency) / 2
	}
}
