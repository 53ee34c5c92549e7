// internal/model/device.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DeviceStatus represents the link state of the power supply
type DeviceStatus string

const (
	DeviceStatusOnline       DeviceStatus = "ONLINE"
	DeviceStatusUnresponsive DeviceStatus = "UNRESPONSIVE"
	DeviceStatusOffline      DeviceStatus = "OFFLINE"
)

// JSONObject type for PostgreSQL JSONB objects
type JSONObject map[string]interface{}

func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONObject", value)
	}
	return json.Unmarshal(raw, j)
}

func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Device is the state of the connected power supply as seen by the service
type Device struct {
	Manufacturer string       `json:"manufacturer"`
	Model        string       `json:"model"`
	Port         string       `json:"port"`
	Status       DeviceStatus `json:"status"`
	ConnectedAt  time.Time    `json:"connected_at"`
	LastSeen     *time.Time   `json:"last_seen,omitempty"`
	LastError    *ErrorInfo   `json:"last_error,omitempty"`
	Operations   int64        `json:"operations"`
	Failures     int64        `json:"failures"`
	Link         *LinkStats   `json:"link,omitempty"`
}

// LinkStats counts traffic on the serial link
type LinkStats struct {
	BytesWritten     int64      `json:"bytes_written"`
	BytesRead        int64      `json:"bytes_read"`
	Writes           int64      `json:"writes"`
	Errors           int64      `json:"errors"`
	LastActivity     *time.Time `json:"last_activity,omitempty"`
	AverageLatencyMs float64    `json:"average_latency_ms"`
	Connected        bool       `json:"connected"`
}

// IsOnline checks if the last exchange with the supply succeeded
func (d *Device) IsOnline() bool {
	return d.Status == DeviceStatusOnline
}

// ErrorInfo describes the most recent failed exchange
type ErrorInfo struct {
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Operation string    `json:"operation"`
	Time      time.Time `json:"time"`
}
