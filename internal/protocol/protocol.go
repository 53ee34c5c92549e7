// internal/protocol/protocol.go
package protocol

import (
	"context"
	"time"
)

// Transport is a byte stream that can report how many received bytes are
// waiting to be consumed.
type Transport interface {
	// Data communication
	Write(ctx context.Context, data []byte) error
	Buffered() (int, error)
	ReadBuffered(n int) ([]byte, error)

	// Connection lifecycle
	Close() error
}

// StatsReporter is implemented by transports that count link traffic
type StatsReporter interface {
	GetStats() ProtocolStats
}

// ProtocolStats provides protocol-level statistics
type ProtocolStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}
