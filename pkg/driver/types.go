// pkg/driver/types.go
package driver

import (
	"github.com/shopspring/decimal"
)

// PresetSlotCount is the number of preset memories on the supply
const PresetSlotCount = 3

// Mode is the regulation regime reported by the front panel
type Mode string

const (
	ModeConstantVoltage Mode = "CV"
	ModeConstantCurrent Mode = "CC"
)

// DisplayStatus holds the live values shown on the front panel
type DisplayStatus struct {
	Voltage decimal.Decimal `json:"voltage"`
	Current decimal.Decimal `json:"current"`
	Mode    Mode            `json:"mode"`
}

// Setpoint is a voltage/current pair as stored by the supply
type Setpoint struct {
	Voltage decimal.Decimal `json:"voltage"`
	Current decimal.Decimal `json:"current"`
}

// PresetSlot is one of the preset memories
type PresetSlot struct {
	Index   int             `json:"index"`
	Voltage decimal.Decimal `json:"voltage"`
	Current decimal.Decimal `json:"current"`
}

// DeviceInfo contains basic device information
type DeviceInfo struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Port         string `json:"port"`
}
