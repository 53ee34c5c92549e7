// internal/driver/bk168x/command.go
package bk168x

// commandSpec describes one catalog entry
type commandSpec struct {
	Mnemonic       string
	Fields         int // payload fields sent after the mnemonic
	ResponseLength int // reply payload bytes before the "OK" marker
}

// PSU_COMMANDS contains all command definitions for the 168x series
var PSU_COMMANDS = struct {
	// Setpoints
	SET_VOLTAGE commandSpec
	SET_CURRENT commandSpec

	// Protection limits
	SET_VOLTAGE_LIMIT commandSpec
	SET_CURRENT_LIMIT commandSpec

	// Output, followed by one digit: 0 = on, 1 = off
	SET_OUTPUT commandSpec

	// Presets
	SET_PRESETS   commandSpec
	RECALL_PRESET commandSpec // + slot digit

	// Queries
	GET_DISPLAY       commandSpec
	GET_SETTINGS      commandSpec
	GET_VOLTAGE_LIMIT commandSpec
	GET_CURRENT_LIMIT commandSpec
	GET_MAX_VALUES    commandSpec
	GET_PRESETS       commandSpec
}{
	// Setpoints
	SET_VOLTAGE: commandSpec{"VOLT", 1, 0}, // VOLT vvv
	SET_CURRENT: commandSpec{"CURR", 1, 0}, // CURR aaa

	// Protection limits
	SET_VOLTAGE_LIMIT: commandSpec{"SOVP", 1, 0}, // SOVP vvv
	SET_CURRENT_LIMIT: commandSpec{"SOCP", 1, 0}, // SOCP aaa

	// Output
	SET_OUTPUT: commandSpec{"SOUT", 1, 0}, // SOUT n

	// Presets
	SET_PRESETS:   commandSpec{"PROM", 6, 0}, // PROM vvvaaa vvvaaa vvvaaa
	RECALL_PRESET: commandSpec{"RUNM", 1, 0}, // RUNM n

	// Queries
	GET_DISPLAY:       commandSpec{"GETD", 0, 10}, // vvvv aaaa m + spare
	GET_SETTINGS:      commandSpec{"GETS", 0, 7},  // vvv aaa + spare
	GET_VOLTAGE_LIMIT: commandSpec{"GOVP", 0, 4},  // vvv + spare
	GET_CURRENT_LIMIT: commandSpec{"GOCP", 0, 4},  // aaa + spare
	GET_MAX_VALUES:    commandSpec{"GMAX", 0, 7},  // vvv aaa + spare
	GET_PRESETS:       commandSpec{"GETM", 0, 19}, // 3 x vvvaaa + spare
}

// Output digits of SOUT. The supply uses 0 for on.
const (
	outputOn  = "0"
	outputOff = "1"
)
