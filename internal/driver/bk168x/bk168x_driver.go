// internal/driver/bk168x/bk168x_driver.go
package bk168x

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"psu-service/internal/discovery"
	"psu-service/internal/protocol"
	"psu-service/internal/utils"
	"psu-service/pkg/driver"
)

// Manufacturer reported in DeviceInfo
const Manufacturer = "BK Precision"

// Driver implements driver.PowerSupplyDriver for the BK Precision 168x series.
// It holds no lock; at most one request may be in flight.
type Driver struct {
	transport protocol.Transport
	framer    *protocol.Framer
	info      *driver.DeviceInfo
	log       *utils.DeviceLogger
	closeOnce sync.Once
	closeErr  error
}

// Config selects the port and response timing of a driver
type Config struct {
	Model           string                `json:"model"`
	Serial          protocol.SerialConfig `json:"serial"`
	PollInterval    time.Duration         `json:"poll_interval"`
	ResponseTimeout time.Duration         `json:"response_timeout"`
}

// Option configures a Driver
type Option func(*options)

type options struct {
	interval time.Duration
	timeout  time.Duration
	poller   protocol.Poller
	info     driver.DeviceInfo
	logger   *zap.Logger
}

// WithTiming overrides the poll interval and response timeout
func WithTiming(interval, timeout time.Duration) Option {
	return func(o *options) {
		o.interval = interval
		o.timeout = timeout
	}
}

// WithPoller replaces the exact-length poller
func WithPoller(p protocol.Poller) Option {
	return func(o *options) {
		o.poller = p
	}
}

// WithLogger logs link and command activity to logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDeviceInfo sets the model and port reported by GetDeviceInfo
func WithDeviceInfo(model, port string) Option {
	return func(o *options) {
		o.info.Model = model
		o.info.Port = port
	}
}

// New creates a driver over an already open transport. The driver owns the
// transport from here on.
func New(transport protocol.Transport, opts ...Option) *Driver {
	o := &options{
		interval: protocol.DefaultPollInterval,
		timeout:  protocol.DefaultResponseTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	poller := o.poller
	if poller == nil {
		poller = protocol.NewExactPoller(transport, o.interval, o.timeout)
	}

	info := o.info
	info.Manufacturer = Manufacturer

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Driver{
		transport: transport,
		framer:    protocol.NewFramer(transport, poller),
		info:      &info,
		log:       utils.NewDeviceLogger(logger, info.Port, info.Model),
	}
}

// openTransport opens the serial link. Replaced in tests.
var openTransport = func(ctx context.Context, cfg *protocol.SerialConfig, logger *zap.Logger) (protocol.Transport, error) {
	conn, err := protocol.NewSerialConnection(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := conn.Open(ctx); err != nil {
		return nil, err
	}
	return conn, nil
}

// Open resolves the port when none is configured, opens the serial link and
// returns a ready driver. The port is closed again if anything fails after it
// was opened.
func Open(ctx context.Context, cfg Config, resolver discovery.PathResolver, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	serialCfg := cfg.Serial
	if serialCfg.Port == "" {
		if resolver == nil {
			return nil, driver.NewError("open", driver.ErrNoDevice, "no port configured and no resolver given")
		}
		port, err := resolver.ResolvePath(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve device path: %w", err)
		}
		serialCfg.Port = port
	}

	deviceLogger := utils.NewDeviceLogger(logger, serialCfg.Port, cfg.Model)

	conn, err := openTransport(ctx, &serialCfg, logger)
	deviceLogger.LogConnection("open", err)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Join(err, conn.Close())
	}

	return New(conn,
		WithTiming(cfg.PollInterval, cfg.ResponseTimeout),
		WithDeviceInfo(cfg.Model, serialCfg.Port),
		WithLogger(logger),
	), nil
}

// WithDriver opens a driver, runs fn and closes the driver on every path
func WithDriver(ctx context.Context, cfg Config, resolver discovery.PathResolver, logger *zap.Logger, fn func(*Driver) error) error {
	d, err := Open(ctx, cfg, resolver, logger)
	if err != nil {
		return err
	}
	return errors.Join(fn(d), d.Close())
}

// SetVoltage programs the output voltage setpoint
func (d *Driver) SetVoltage(ctx context.Context, voltage decimal.Decimal) error {
	field, err := encodeSetpoint("set voltage", voltage)
	if err != nil {
		return err
	}
	return d.set(ctx, PSU_COMMANDS.SET_VOLTAGE, field)
}

// SetCurrent programs the output current setpoint
func (d *Driver) SetCurrent(ctx context.Context, current decimal.Decimal) error {
	field, err := encodeSetpoint("set current", current)
	if err != nil {
		return err
	}
	return d.set(ctx, PSU_COMMANDS.SET_CURRENT, field)
}

// SetVoltageUpperLimit programs the over-voltage protection limit
func (d *Driver) SetVoltageUpperLimit(ctx context.Context, voltage decimal.Decimal) error {
	field, err := encodeSetpoint("set voltage upper limit", voltage)
	if err != nil {
		return err
	}
	return d.set(ctx, PSU_COMMANDS.SET_VOLTAGE_LIMIT, field)
}

// SetCurrentUpperLimit programs the over-current protection limit
func (d *Driver) SetCurrentUpperLimit(ctx context.Context, current decimal.Decimal) error {
	field, err := encodeSetpoint("set current upper limit", current)
	if err != nil {
		return err
	}
	return d.set(ctx, PSU_COMMANDS.SET_CURRENT_LIMIT, field)
}

func (d *Driver) SetOutputOn(ctx context.Context) error {
	return d.set(ctx, PSU_COMMANDS.SET_OUTPUT, outputOn)
}

func (d *Driver) SetOutputOff(ctx context.Context) error {
	return d.set(ctx, PSU_COMMANDS.SET_OUTPUT, outputOff)
}

// SetPresetValues stores three (voltage, current) pairs in the preset
// memories. Nothing is sent unless presets has exactly three pairs.
func (d *Driver) SetPresetValues(ctx context.Context, presets [][]decimal.Decimal) error {
	if len(presets) != driver.PresetSlotCount {
		return driver.NewError("set preset values", driver.ErrInvalidArgument,
			fmt.Sprintf("expected %d presets, got %d", driver.PresetSlotCount, len(presets)))
	}

	fields := make([]string, 0, PSU_COMMANDS.SET_PRESETS.Fields)
	for i, preset := range presets {
		if len(preset) != 2 {
			return driver.NewError("set preset values", driver.ErrInvalidArgument,
				fmt.Sprintf("preset %d must hold voltage and current, got %d values", i, len(preset)))
		}
		for _, value := range preset {
			field, err := encodeSetpoint("set preset values", value)
			if err != nil {
				return err
			}
			fields = append(fields, field)
		}
	}

	return d.set(ctx, PSU_COMMANDS.SET_PRESETS, fields...)
}

// RecallPresetValues applies preset memory index (0, 1 or 2) to the output
func (d *Driver) RecallPresetValues(ctx context.Context, index int) error {
	if index < 0 || index >= driver.PresetSlotCount {
		return driver.NewError("recall preset values", driver.ErrInvalidArgument,
			fmt.Sprintf("preset index %d out of range 0..%d", index, driver.PresetSlotCount-1))
	}
	return d.set(ctx, PSU_COMMANDS.RECALL_PRESET, strconv.Itoa(index))
}

// GetPresetValues reads all three preset memories
func (d *Driver) GetPresetValues(ctx context.Context) ([]driver.PresetSlot, error) {
	payload, err := d.query(ctx, PSU_COMMANDS.GET_PRESETS)
	if err != nil {
		return nil, err
	}

	slots := make([]driver.PresetSlot, 0, driver.PresetSlotCount)
	for i := 0; i < driver.PresetSlotCount; i++ {
		offset := i * 2 * setpointWidth
		pair, err := decodePair(payload[offset : offset+2*setpointWidth])
		if err != nil {
			return nil, fmt.Errorf("preset %d: %w", i, err)
		}
		slots = append(slots, driver.PresetSlot{
			Index:   i,
			Voltage: pair.Voltage,
			Current: pair.Current,
		})
	}
	return slots, nil
}

// GetDisplayStatus reads the live voltage, current and regulation mode
func (d *Driver) GetDisplayStatus(ctx context.Context) (*driver.DisplayStatus, error) {
	payload, err := d.query(ctx, PSU_COMMANDS.GET_DISPLAY)
	if err != nil {
		return nil, err
	}

	voltage, err := Decode4(string(payload[0:displayWidth]))
	if err != nil {
		return nil, err
	}
	current, err := Decode4(string(payload[displayWidth : 2*displayWidth]))
	if err != nil {
		return nil, err
	}
	mode, err := decodeMode(payload[2*displayWidth])
	if err != nil {
		return nil, err
	}

	return &driver.DisplayStatus{
		Voltage: voltage,
		Current: current,
		Mode:    mode,
	}, nil
}

func (d *Driver) GetVoltage(ctx context.Context) (decimal.Decimal, error) {
	status, err := d.GetDisplayStatus(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return status.Voltage, nil
}

func (d *Driver) GetCurrent(ctx context.Context) (decimal.Decimal, error) {
	status, err := d.GetDisplayStatus(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return status.Current, nil
}

func (d *Driver) GetMode(ctx context.Context) (driver.Mode, error) {
	status, err := d.GetDisplayStatus(ctx)
	if err != nil {
		return "", err
	}
	return status.Mode, nil
}

// GetVoltageAndCurrentSettings reads the programmed setpoints
func (d *Driver) GetVoltageAndCurrentSettings(ctx context.Context) (*driver.Setpoint, error) {
	payload, err := d.query(ctx, PSU_COMMANDS.GET_SETTINGS)
	if err != nil {
		return nil, err
	}
	return decodePair(payload[:2*setpointWidth])
}

func (d *Driver) GetVoltageSetting(ctx context.Context) (decimal.Decimal, error) {
	settings, err := d.GetVoltageAndCurrentSettings(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return settings.Voltage, nil
}

func (d *Driver) GetCurrentSetting(ctx context.Context) (decimal.Decimal, error) {
	settings, err := d.GetVoltageAndCurrentSettings(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return settings.Current, nil
}

// GetVoltageUpperLimitSetting reads the over-voltage protection limit
func (d *Driver) GetVoltageUpperLimitSetting(ctx context.Context) (decimal.Decimal, error) {
	return d.queryValue(ctx, PSU_COMMANDS.GET_VOLTAGE_LIMIT)
}

// GetCurrentUpperLimitSetting reads the over-current protection limit
func (d *Driver) GetCurrentUpperLimitSetting(ctx context.Context) (decimal.Decimal, error) {
	return d.queryValue(ctx, PSU_COMMANDS.GET_CURRENT_LIMIT)
}

// GetMaxValues reads the rated maximum voltage and current
func (d *Driver) GetMaxValues(ctx context.Context) (*driver.Setpoint, error) {
	payload, err := d.query(ctx, PSU_COMMANDS.GET_MAX_VALUES)
	if err != nil {
		return nil, err
	}
	return decodePair(payload[:2*setpointWidth])
}

// GetDeviceInfo returns a copy of the device information
func (d *Driver) GetDeviceInfo() *driver.DeviceInfo {
	info := *d.info
	return &info
}

// Close releases the transport. Later calls return the first result.
func (d *Driver) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.transport.Close()
		d.log.LogConnection("close", d.closeErr)
	})
	return d.closeErr
}

// encodeSetpoint renders a non-negative setpoint field
func encodeSetpoint(op string, value decimal.Decimal) (string, error) {
	if value.IsNegative() {
		return "", driver.NewError(op, driver.ErrInvalidArgument,
			fmt.Sprintf("value %s must not be negative", value))
	}
	return Encode3(value), nil
}

// LinkStats returns the traffic counters of the serial link. ok is false when
// the transport keeps none.
func (d *Driver) LinkStats() (stats protocol.ProtocolStats, ok bool) {
	reporter, ok := d.transport.(protocol.StatsReporter)
	if !ok {
		return protocol.ProtocolStats{}, false
	}
	return reporter.GetStats(), true
}

func (d *Driver) set(ctx context.Context, spec commandSpec, fields ...string) error {
	_, err := d.execute(ctx, spec, fields...)
	return err
}

func (d *Driver) query(ctx context.Context, spec commandSpec) ([]byte, error) {
	return d.execute(ctx, spec)
}

func (d *Driver) queryValue(ctx context.Context, spec commandSpec) (decimal.Decimal, error) {
	payload, err := d.query(ctx, spec)
	if err != nil {
		return decimal.Zero, err
	}
	return Decode3(string(payload[:setpointWidth]))
}

func (d *Driver) execute(ctx context.Context, spec commandSpec, fields ...string) ([]byte, error) {
	cmd, err := protocol.NewCommand(spec.Mnemonic, fields...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	payload, err := d.framer.Execute(ctx, cmd, spec.ResponseLength)
	d.log.LogCommand(spec.Mnemonic, spec.ResponseLength, time.Since(start), err)
	return payload, err
}

func decodePair(field []byte) (*driver.Setpoint, error) {
	voltage, err := Decode3(string(field[:setpointWidth]))
	if err != nil {
		return nil, err
	}
	current, err := Decode3(string(field[setpointWidth : 2*setpointWidth]))
	if err != nil {
		return nil, err
	}
	return &driver.Setpoint{Voltage: voltage, Current: current}, nil
}

var _ driver.PowerSupplyDriver = (*Driver)(nil)
