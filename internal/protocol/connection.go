// internal/protocol/connection.go
package protocol

import "time"

// Line settings of the BK Precision 168x USB/serial interface
const (
	DefaultBaudRate    = 9600
	DefaultDataBits    = 8
	DefaultStopBits    = 1
	DefaultParity      = "none"
	DefaultReadTimeout = 10 * time.Millisecond
)

// SerialConfig represents serial connection configuration
type SerialConfig struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
	// ReadTimeout bounds each read of the receive pump, not a request
	ReadTimeout time.Duration `json:"read_timeout"`
}

// DefaultSerialConfig returns the fixed 9600 8N1 configuration for port
func DefaultSerialConfig(port string) *SerialConfig {
	return &SerialConfig{
		Port:        port,
		BaudRate:    DefaultBaudRate,
		DataBits:    DefaultDataBits,
		StopBits:    DefaultStopBits,
		Parity:      DefaultParity,
		ReadTimeout: DefaultReadTimeout,
	}
}
