// pkg/driver/interfaces.go
package driver

import (
	"context"

	"github.com/shopspring/decimal"
)

// PowerSupplyDriver is the interface implemented by bench supply drivers.
// Implementations are not safe for concurrent use; callers serialize.
type PowerSupplyDriver interface {
	// Setpoints and limits
	SetVoltage(ctx context.Context, voltage decimal.Decimal) error
	SetCurrent(ctx context.Context, current decimal.Decimal) error
	SetVoltageUpperLimit(ctx context.Context, voltage decimal.Decimal) error
	SetCurrentUpperLimit(ctx context.Context, current decimal.Decimal) error

	// Output
	SetOutputOn(ctx context.Context) error
	SetOutputOff(ctx context.Context) error

	// Presets
	SetPresetValues(ctx context.Context, presets [][]decimal.Decimal) error
	RecallPresetValues(ctx context.Context, index int) error
	GetPresetValues(ctx context.Context) ([]PresetSlot, error)

	// Live readings
	GetDisplayStatus(ctx context.Context) (*DisplayStatus, error)
	GetVoltage(ctx context.Context) (decimal.Decimal, error)
	GetCurrent(ctx context.Context) (decimal.Decimal, error)
	GetMode(ctx context.Context) (Mode, error)

	// Stored settings
	GetVoltageAndCurrentSettings(ctx context.Context) (*Setpoint, error)
	GetVoltageSetting(ctx context.Context) (decimal.Decimal, error)
	GetCurrentSetting(ctx context.Context) (decimal.Decimal, error)
	GetVoltageUpperLimitSetting(ctx context.Context) (decimal.Decimal, error)
	GetCurrentUpperLimitSetting(ctx context.Context) (decimal.Decimal, error)
	GetMaxValues(ctx context.Context) (*Setpoint, error)

	// Device information
	GetDeviceInfo() *DeviceInfo

	// Cleanup
	Close() error
}
