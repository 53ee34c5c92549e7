// internal/driver/bk168x/codec.go
package bk168x

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"psu-service/pkg/driver"
)

// Setpoint fields carry tenths in three digits and wrap at 200 (20.0).
// Display fields carry hundredths in four digits.
const (
	setpointWidth = 3
	displayWidth  = 4
	setpointWrap  = 200
)

var wrapModulus = decimal.NewFromInt(setpointWrap)

// Encode3 renders value as a three digit setpoint field.
// Values of 20.0 and above alias modulo 20.0.
func Encode3(value decimal.Decimal) string {
	tenths := value.Shift(1).Round(0).Mod(wrapModulus)
	if tenths.IsNegative() {
		tenths = tenths.Add(wrapModulus)
	}
	return fmt.Sprintf("%0*d", setpointWidth, tenths.IntPart())
}

// EncodeFloat3 is Encode3 for a float input
func EncodeFloat3(f float64) (string, error) {
	value, err := ValueFromFloat(f)
	if err != nil {
		return "", err
	}
	return Encode3(value), nil
}

// Decode3 parses a three digit setpoint field into a value with 0.1 resolution
func Decode3(field string) (decimal.Decimal, error) {
	n, err := parseDigits(field, setpointWidth)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(n, -1), nil
}

// Decode4 parses a four digit display field into a value with 0.01 resolution
func Decode4(field string) (decimal.Decimal, error) {
	n, err := parseDigits(field, displayWidth)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(n, -2), nil
}

// ParseValue parses a decimal number from text
func ParseValue(s string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, driver.WrapError("parse value", driver.ErrInvalidArgument, err)
	}
	return value, nil
}

// ValueFromFloat converts a float, rejecting NaN and infinities
func ValueFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, driver.NewError("parse value", driver.ErrInvalidArgument,
			fmt.Sprintf("%v is not a decimal number", f))
	}
	return decimal.NewFromFloat(f), nil
}

// decodeMode maps the display mode digit: 0 is constant voltage
func decodeMode(digit byte) (driver.Mode, error) {
	if digit < '0' || digit > '9' {
		return "", driver.NewError("decode mode", driver.ErrInvalidArgument,
			fmt.Sprintf("mode %q is not a digit", digit))
	}
	if digit == '0' {
		return driver.ModeConstantVoltage, nil
	}
	return driver.ModeConstantCurrent, nil
}

func parseDigits(field string, width int) (int64, error) {
	if len(field) != width {
		return 0, driver.NewError("decode field", driver.ErrInvalidArgument,
			fmt.Sprintf("field %q must be %d digits", field, width))
	}

	var n int64
	for i := 0; i < len(field); i++ {
		c := field[i]
		if c < '0' || c > '9' {
			return 0, driver.NewError("decode field", driver.ErrInvalidArgument,
				fmt.Sprintf("field %q is not numeric", field))
		}
		n = n*10 + int64(c-'0')
	}
	return n, nil
}
