// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventDisplayStatus      EventType = "DISPLAY_STATUS"
	EventDeviceStatusChange EventType = "DEVICE_STATUS_CHANGE"
	EventOperationCompleted EventType = "OPERATION_COMPLETED"
	EventOperationFailed    EventType = "OPERATION_FAILED"
)

// DeviceEvent represents an event in the system
type DeviceEvent struct {
	ID        uuid.UUID  `json:"id"`
	EventType EventType  `json:"event_type"`
	Data      JSONObject `json:"data"`
	Timestamp time.Time  `json:"timestamp"`
	Source    string     `json:"source"`
	Severity  string     `json:"severity"` // INFO, WARNING, ERROR
}

// NewDeviceEvent creates an event stamped with a new id and the current time
func NewDeviceEvent(eventType EventType, source, severity string, data JSONObject) *DeviceEvent {
	return &DeviceEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Data:      data,
		Timestamp: time.Now(),
		Source:    source,
		Severity:  severity,
	}
}

// OperationEventData represents operation-related events
type OperationEventData struct {
	OperationID   uuid.UUID       `json:"operation_id"`
	OperationType OperationType   `json:"operation_type"`
	Status        OperationStatus `json:"status"`
	Duration      *int            `json:"duration_ms,omitempty"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
}

// StatusChangeEventData represents a change of the link state
type StatusChangeEventData struct {
	PreviousStatus DeviceStatus `json:"previous_status"`
	Status         DeviceStatus `json:"status"`
	Reason         string       `json:"reason,omitempty"`
}
