// internal/service/device_service.go
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"psu-service/internal/events"
	"psu-service/internal/model"
	"psu-service/internal/monitor"
	"psu-service/internal/protocol"
	"psu-service/internal/repository"
	"psu-service/internal/utils"
	"psu-service/pkg/driver"
)

const eventSource = "psu-service"

// linkReporter is implemented by drivers that expose serial link counters
type linkReporter interface {
	LinkStats() (protocol.ProtocolStats, bool)
}

// PowerSupplyService runs catalog operations against the supply. The
// protocol allows a single request in flight, so every exchange holds mu.
// Each operation is recorded, measured, logged and published.
type PowerSupplyService struct {
	driver        driver.PowerSupplyDriver
	operationRepo repository.OperationRepository
	eventBus      *events.EventBus
	metrics       *monitor.Metrics
	logger        *utils.ServiceLogger

	mu sync.Mutex

	stateMu     sync.RWMutex
	state       model.Device
	lastDisplay *driver.DisplayStatus
}

// NewPowerSupplyService creates a service owning drv
func NewPowerSupplyService(
	drv driver.PowerSupplyDriver,
	operationRepo repository.OperationRepository,
	eventBus *events.EventBus,
	metrics *monitor.Metrics,
	logger *zap.Logger,
) *PowerSupplyService {
	info := drv.GetDeviceInfo()

	s := &PowerSupplyService{
		driver:        drv,
		operationRepo: operationRepo,
		eventBus:      eventBus,
		metrics:       metrics,
		logger:        utils.NewServiceLogger(logger, "psu-service"),
		state: model.Device{
			Manufacturer: info.Manufacturer,
			Model:        info.Model,
			Port:         info.Port,
			Status:       model.DeviceStatusOnline,
			ConnectedAt:  time.Now(),
		},
	}
	metrics.SetDeviceUp(true)
	return s
}

// SetVoltage programs the output voltage
func (s *PowerSupplyService) SetVoltage(ctx context.Context, voltage decimal.Decimal) error {
	return s.run(ctx, model.OperationTypeSetVoltage, model.JSONObject{"voltage": voltage.String()},
		func(ctx context.Context) (model.JSONObject, error) {
			return nil, s.driver.SetVoltage(ctx, voltage)
		})
}

// SetCurrent programs the output current
func (s *PowerSupplyService) SetCurrent(ctx context.Context, current decimal.Decimal) error {
	return s.run(ctx, model.OperationTypeSetCurrent, model.JSONObject{"current": current.String()},
		func(ctx context.Context) (model.JSONObject, error) {
			return nil, s.driver.SetCurrent(ctx, current)
		})
}

// SetVoltageUpperLimit programs the over-voltage limit
func (s *PowerSupplyService) SetVoltageUpperLimit(ctx context.Context, voltage decimal.Decimal) error {
	return s.run(ctx, model.OperationTypeSetVoltageUpperLimit, model.JSONObject{"voltage": voltage.String()},
		func(ctx context.Context) (model.JSONObject, error) {
			return nil, s.driver.SetVoltageUpperLimit(ctx, voltage)
		})
}

// SetCurrentUpperLimit programs the over-current limit
func (s *PowerSupplyService) SetCurrentUpperLimit(ctx context.Context, current decimal.Decimal) error {
	return s.run(ctx, model.OperationTypeSetCurrentUpperLimit, model.JSONObject{"current": current.String()},
		func(ctx context.Context) (model.JSONObject, error) {
			return nil, s.driver.SetCurrentUpperLimit(ctx, current)
		})
}

// SetOutput switches the output on or off
func (s *PowerSupplyService) SetOutput(ctx context.Context, enabled bool) error {
	if enabled {
		return s.run(ctx, model.OperationTypeSetOutputOn, nil, func(ctx context.Context) (model.JSONObject, error) {
			return nil, s.driver.SetOutputOn(ctx)
		})
	}
	return s.run(ctx, model.OperationTypeSetOutputOff, nil, func(ctx context.Context) (model.JSONObject, error) {
		return nil, s.driver.SetOutputOff(ctx)
	})
}

// SetPresetValues stores the three preset memories
func (s *PowerSupplyService) SetPresetValues(ctx context.Context, presets [][]decimal.Decimal) error {
	params := make([]interface{}, 0, len(presets))
	for _, preset := range presets {
		values := make([]string, 0, len(preset))
		for _, v := range preset {
			values = append(values, v.String())
		}
		params = append(params, values)
	}

	return s.run(ctx, model.OperationTypeSetPresetValues, model.JSONObject{"presets": params},
		func(ctx context.Context) (model.JSONObject, error) {
			return nil, s.driver.SetPresetValues(ctx, presets)
		})
}

// RecallPresetValues applies a preset memory to the output
func (s *PowerSupplyService) RecallPresetValues(ctx context.Context, index int) error {
	return s.run(ctx, model.OperationTypeRecallPresetValues, model.JSONObject{"index": index},
		func(ctx context.Context) (model.JSONObject, error) {
			return nil, s.driver.RecallPresetValues(ctx, index)
		})
}

// GetPresetValues reads the three preset memories
func (s *PowerSupplyService) GetPresetValues(ctx context.Context) ([]driver.PresetSlot, error) {
	var slots []driver.PresetSlot
	err := s.run(ctx, model.OperationTypeGetPresetValues, nil, func(ctx context.Context) (model.JSONObject, error) {
		var err error
		slots, err = s.driver.GetPresetValues(ctx)
		if err != nil {
			return nil, err
		}
		result := make([]interface{}, 0, len(slots))
		for _, slot := range slots {
			result = append(result, map[string]interface{}{
				"index":   slot.Index,
				"voltage": slot.Voltage.StringFixed(1),
				"current": slot.Current.StringFixed(1),
			})
		}
		return model.JSONObject{"presets": result}, nil
	})
	return slots, err
}

// GetDisplayStatus reads the live front panel values
func (s *PowerSupplyService) GetDisplayStatus(ctx context.Context) (*driver.DisplayStatus, error) {
	var status *driver.DisplayStatus
	err := s.run(ctx, model.OperationTypeGetDisplayStatus, nil, func(ctx context.Context) (model.JSONObject, error) {
		var err error
		status, err = s.driver.GetDisplayStatus(ctx)
		if err != nil {
			return nil, err
		}
		return displayData(status), nil
	})
	if err == nil {
		s.observeDisplay(status)
	}
	return status, err
}

// GetVoltage reads the live output voltage
func (s *PowerSupplyService) GetVoltage(ctx context.Context) (decimal.Decimal, error) {
	return s.runValue(ctx, model.OperationTypeGetVoltage, "voltage", 2, s.driver.GetVoltage)
}

// GetCurrent reads the live output current
func (s *PowerSupplyService) GetCurrent(ctx context.Context) (decimal.Decimal, error) {
	return s.runValue(ctx, model.OperationTypeGetCurrent, "current", 2, s.driver.GetCurrent)
}

// GetMode reads the regulation mode
func (s *PowerSupplyService) GetMode(ctx context.Context) (driver.Mode, error) {
	var mode driver.Mode
	err := s.run(ctx, model.OperationTypeGetMode, nil, func(ctx context.Context) (model.JSONObject, error) {
		var err error
		mode, err = s.driver.GetMode(ctx)
		if err != nil {
			return nil, err
		}
		return model.JSONObject{"mode": string(mode)}, nil
	})
	return mode, err
}

// GetVoltageAndCurrentSettings reads the programmed setpoints
func (s *PowerSupplyService) GetVoltageAndCurrentSettings(ctx context.Context) (*driver.Setpoint, error) {
	return s.runSetpoint(ctx, model.OperationTypeGetVoltageAndCurrentSettings, s.driver.GetVoltageAndCurrentSettings)
}

// GetVoltageSetting reads the programmed voltage
func (s *PowerSupplyService) GetVoltageSetting(ctx context.Context) (decimal.Decimal, error) {
	return s.runValue(ctx, model.OperationTypeGetVoltageSetting, "voltage", 1, s.driver.GetVoltageSetting)
}

// GetCurrentSetting reads the programmed current
func (s *PowerSupplyService) GetCurrentSetting(ctx context.Context) (decimal.Decimal, error) {
	return s.runValue(ctx, model.OperationTypeGetCurrentSetting, "current", 1, s.driver.GetCurrentSetting)
}

// GetVoltageUpperLimitSetting reads the over-voltage limit
func (s *PowerSupplyService) GetVoltageUpperLimitSetting(ctx context.Context) (decimal.Decimal, error) {
	return s.runValue(ctx, model.OperationTypeGetVoltageUpperLimitSetting, "voltage", 1, s.driver.GetVoltageUpperLimitSetting)
}

// GetCurrentUpperLimitSetting reads the over-current limit
func (s *PowerSupplyService) GetCurrentUpperLimitSetting(ctx context.Context) (decimal.Decimal, error) {
	return s.runValue(ctx, model.OperationTypeGetCurrentUpperLimitSetting, "current", 1, s.driver.GetCurrentUpperLimitSetting)
}

// GetMaxValues reads the rated maximum voltage and current
func (s *PowerSupplyService) GetMaxValues(ctx context.Context) (*driver.Setpoint, error) {
	return s.runSetpoint(ctx, model.OperationTypeGetMaxValues, s.driver.GetMaxValues)
}

// PollDisplayStatus reads the display for the status monitor. Polls are
// measured and published but not recorded as operations.
func (s *PowerSupplyService) PollDisplayStatus(ctx context.Context) (*driver.DisplayStatus, error) {
	s.mu.Lock()
	status, err := s.driver.GetDisplayStatus(ctx)
	s.mu.Unlock()

	s.recordOutcome(string(model.OperationTypeGetDisplayStatus), err)
	if err != nil {
		s.metrics.ObserveStatusPollFailure()
		return nil, err
	}

	s.observeDisplay(status)
	return status, nil
}

// GetDevice returns the current view of the supply
func (s *PowerSupplyService) GetDevice() *model.Device {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	device := s.state
	if s.state.LastError != nil {
		lastError := *s.state.LastError
		device.LastError = &lastError
	}
	device.Link = s.linkStats()
	return &device
}

func (s *PowerSupplyService) linkStats() *model.LinkStats {
	reporter, ok := s.driver.(linkReporter)
	if !ok {
		return nil
	}
	stats, ok := reporter.LinkStats()
	if !ok {
		return nil
	}

	link := &model.LinkStats{
		BytesWritten:     stats.BytesWritten,
		BytesRead:        stats.BytesRead,
		Writes:           stats.OperationCount,
		Errors:           stats.ErrorCount,
		AverageLatencyMs: float64(stats.AverageLatency) / float64(time.Millisecond),
		Connected:        stats.IsConnected,
	}
	if !stats.LastActivity.IsZero() {
		lastActivity := stats.LastActivity
		link.LastActivity = &lastActivity
	}
	return link
}

// LastDisplayStatus returns the most recent display reading, or nil
func (s *PowerSupplyService) LastDisplayStatus() *driver.DisplayStatus {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	if s.lastDisplay == nil {
		return nil
	}
	status := *s.lastDisplay
	return &status
}

// Close waits for the exchange in flight and releases the driver
func (s *PowerSupplyService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.driver.Close()

	s.stateMu.Lock()
	previous := s.state.Status
	s.state.Status = model.DeviceStatusOffline
	s.stateMu.Unlock()

	s.metrics.SetDeviceUp(false)
	s.publishStatusChange(previous, model.DeviceStatusOffline, "driver closed")
	return err
}

func (s *PowerSupplyService) runValue(ctx context.Context, opType model.OperationType, key string, places int32,
	read func(context.Context) (decimal.Decimal, error)) (decimal.Decimal, error) {
	var value decimal.Decimal
	err := s.run(ctx, opType, nil, func(ctx context.Context) (model.JSONObject, error) {
		var err error
		value, err = read(ctx)
		if err != nil {
			return nil, err
		}
		return model.JSONObject{key: value.StringFixed(places)}, nil
	})
	return value, err
}

func (s *PowerSupplyService) runSetpoint(ctx context.Context, opType model.OperationType,
	read func(context.Context) (*driver.Setpoint, error)) (*driver.Setpoint, error) {
	var setpoint *driver.Setpoint
	err := s.run(ctx, opType, nil, func(ctx context.Context) (model.JSONObject, error) {
		var err error
		setpoint, err = read(ctx)
		if err != nil {
			return nil, err
		}
		return model.JSONObject{
			"voltage": setpoint.Voltage.StringFixed(1),
			"current": setpoint.Current.StringFixed(1),
		}, nil
	})
	return setpoint, err
}

// run executes fn as one recorded operation
func (s *PowerSupplyService) run(ctx context.Context, opType model.OperationType, params model.JSONObject,
	fn func(context.Context) (model.JSONObject, error)) error {
	now := time.Now()
	operation := &model.Operation{
		ID:            uuid.New(),
		OperationType: opType,
		Parameters:    params,
		Status:        model.OperationStatusProcessing,
		StartedAt:     now,
		RequestID:     requestIDFrom(ctx),
		CreatedAt:     now,
	}

	// the operation log must not hold up the device
	storeCtx := context.WithoutCancel(ctx)
	if err := s.operationRepo.Create(storeCtx, operation); err != nil {
		s.logger.Error("Failed to record operation", zap.Error(err))
	}

	baseLogger := s.logger.Logger
	if operation.RequestID != nil {
		baseLogger = utils.LoggerWithRequestID(baseLogger, *operation.RequestID)
	}
	opLogger := utils.NewOperationLogger(baseLogger, string(opType), operation.ID.String())
	opLogger.Start(zap.Any("parameters", params))

	s.mu.Lock()
	result, err := fn(ctx)
	s.mu.Unlock()

	completedAt := time.Now()
	duration := completedAt.Sub(operation.StartedAt)
	durationMs := int(duration.Milliseconds())

	operation.Status = operationStatus(err)
	operation.CompletedAt = &completedAt
	operation.DurationMs = &durationMs
	operation.Result = result
	if err != nil {
		kind := driver.KindName(err)
		message := err.Error()
		operation.ErrorKind = &kind
		operation.ErrorMessage = &message
	}

	if uerr := s.operationRepo.Update(storeCtx, operation); uerr != nil {
		s.logger.Error("Failed to update operation", zap.Error(uerr))
	}

	s.metrics.ObserveOperation(string(opType), string(operation.Status), duration)
	s.recordOutcome(string(opType), err)

	if err != nil {
		opLogger.Error(err, zap.String("status", string(operation.Status)))
	} else {
		opLogger.Success(zap.Any("result", result))
	}

	s.publishOperation(operation)
	return err
}

// operationStatus maps an error to the stored outcome
func operationStatus(err error) model.OperationStatus {
	switch {
	case err == nil:
		return model.OperationStatusSuccess
	case errors.Is(err, driver.ErrInvalidArgument):
		return model.OperationStatusRejected
	case errors.Is(err, driver.ErrTimeout):
		return model.OperationStatusTimeout
	default:
		return model.OperationStatusFailed
	}
}

// recordOutcome updates the link state after an exchange. Rejected input
// and cancellations never reached the wire and leave the state alone.
func (s *PowerSupplyService) recordOutcome(operation string, err error) {
	if errors.Is(err, driver.ErrInvalidArgument) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}

	now := time.Now()
	next := model.DeviceStatusOnline
	if err != nil && !errors.Is(err, driver.ErrNoAck) {
		// no acknowledgement still means the supply answered
		next = model.DeviceStatusUnresponsive
	}

	s.stateMu.Lock()
	previous := s.state.Status
	s.state.Status = next
	s.state.Operations++
	if next == model.DeviceStatusOnline {
		s.state.LastSeen = &now
	}
	if err != nil {
		s.state.Failures++
		s.state.LastError = &model.ErrorInfo{
			Kind:      driver.KindName(err),
			Message:   err.Error(),
			Operation: operation,
			Time:      now,
		}
	}
	s.stateMu.Unlock()

	if previous != next {
		s.metrics.SetDeviceUp(next == model.DeviceStatusOnline)
		reason := "exchange succeeded"
		if err != nil {
			reason = err.Error()
		}
		s.logger.Warn("Power supply status changed",
			zap.String("previous_status", string(previous)),
			zap.String("status", string(next)),
			zap.String("reason", reason),
		)
		s.publishStatusChange(previous, next, reason)
	}
}

func (s *PowerSupplyService) observeDisplay(status *driver.DisplayStatus) {
	s.stateMu.Lock()
	copied := *status
	s.lastDisplay = &copied
	s.stateMu.Unlock()

	s.metrics.ObserveDisplay(status)
	s.eventBus.Publish(model.NewDeviceEvent(model.EventDisplayStatus, eventSource, "INFO", displayData(status)))
}

func (s *PowerSupplyService) publishOperation(operation *model.Operation) {
	eventType := model.EventOperationCompleted
	severity := "INFO"
	if operation.Status != model.OperationStatusSuccess {
		eventType = model.EventOperationFailed
		severity = "WARNING"
	}

	data := model.JSONObject{
		"operation_id":   operation.ID.String(),
		"operation_type": string(operation.OperationType),
		"status":         string(operation.Status),
	}
	if operation.DurationMs != nil {
		data["duration_ms"] = *operation.DurationMs
	}
	if operation.ErrorMessage != nil {
		data["error_message"] = *operation.ErrorMessage
	}
	if operation.Result != nil {
		data["result"] = map[string]interface{}(operation.Result)
	}

	s.eventBus.Publish(model.NewDeviceEvent(eventType, eventSource, severity, data))
}

func (s *PowerSupplyService) publishStatusChange(previous, next model.DeviceStatus, reason string) {
	severity := "INFO"
	if next != model.DeviceStatusOnline {
		severity = "ERROR"
	}
	s.eventBus.Publish(model.NewDeviceEvent(model.EventDeviceStatusChange, eventSource, severity, model.JSONObject{
		"previous_status": string(previous),
		"status":          string(next),
		"reason":          reason,
	}))
}

func displayData(status *driver.DisplayStatus) model.JSONObject {
	return model.JSONObject{
		"voltage": status.Voltage.StringFixed(2),
		"current": status.Current.StringFixed(2),
		"mode":    string(status.Mode),
	}
}
