// internal/model/operation.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// OperationType represents the catalog operation that was run
type OperationType string

const (
	OperationTypeSetVoltage                   OperationType = "SET_VOLTAGE"
	OperationTypeSetCurrent                   OperationType = "SET_CURRENT"
	OperationTypeSetVoltageUpperLimit         OperationType = "SET_VOLTAGE_UPPER_LIMIT"
	OperationTypeSetCurrentUpperLimit         OperationType = "SET_CURRENT_UPPER_LIMIT"
	OperationTypeSetOutputOn                  OperationType = "SET_OUTPUT_ON"
	OperationTypeSetOutputOff                 OperationType = "SET_OUTPUT_OFF"
	OperationTypeSetPresetValues              OperationType = "SET_PRESET_VALUES"
	OperationTypeRecallPresetValues           OperationType = "RECALL_PRESET_VALUES"
	OperationTypeGetDisplayStatus             OperationType = "GET_DISPLAY_STATUS"
	OperationTypeGetVoltage                   OperationType = "GET_VOLTAGE"
	OperationTypeGetCurrent                   OperationType = "GET_CURRENT"
	OperationTypeGetMode                      OperationType = "GET_MODE"
	OperationTypeGetVoltageAndCurrentSettings OperationType = "GET_VOLTAGE_AND_CURRENT_SETTINGS"
	OperationTypeGetVoltageSetting            OperationType = "GET_VOLTAGE_SETTING"
	OperationTypeGetCurrentSetting            OperationType = "GET_CURRENT_SETTING"
	OperationTypeGetVoltageUpperLimitSetting  OperationType = "GET_VOLTAGE_UPPER_LIMIT_SETTING"
	OperationTypeGetCurrentUpperLimitSetting  OperationType = "GET_CURRENT_UPPER_LIMIT_SETTING"
	OperationTypeGetMaxValues                 OperationType = "GET_MAX_VALUES"
	OperationTypeGetPresetValues              OperationType = "GET_PRESET_VALUES"
)

// OperationStatus represents the outcome of an operation
type OperationStatus string

const (
	OperationStatusProcessing OperationStatus = "PROCESSING"
	OperationStatusSuccess    OperationStatus = "SUCCESS"
	OperationStatusRejected   OperationStatus = "REJECTED" // invalid argument, nothing sent
	OperationStatusFailed     OperationStatus = "FAILED"   // no acknowledgement or transport error
	OperationStatusTimeout    OperationStatus = "TIMEOUT"
)

// Operation is one request/response round trip with the supply
type Operation struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	OperationType OperationType   `json:"operation_type" db:"operation_type"`
	Parameters    JSONObject      `json:"parameters,omitempty" db:"parameters"`
	Status        OperationStatus `json:"status" db:"status"`
	StartedAt     time.Time       `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	DurationMs    *int            `json:"duration_ms,omitempty" db:"duration_ms"`
	ErrorKind     *string         `json:"error_kind,omitempty" db:"error_kind"`
	ErrorMessage  *string         `json:"error_message,omitempty" db:"error_message"`
	Result        JSONObject      `json:"result,omitempty" db:"result"`
	RequestID     *string         `json:"request_id,omitempty" db:"request_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// IsCompleted checks if operation has an outcome
func (op *Operation) IsCompleted() bool {
	return op.Status != OperationStatusProcessing
}

// IsWrite reports whether the operation changes device state
func (op *Operation) IsWrite() bool {
	switch op.OperationType {
	case OperationTypeSetVoltage, OperationTypeSetCurrent,
		OperationTypeSetVoltageUpperLimit, OperationTypeSetCurrentUpperLimit,
		OperationTypeSetOutputOn, OperationTypeSetOutputOff,
		OperationTypeSetPresetValues, OperationTypeRecallPresetValues:
		return true
	}
	return false
}
