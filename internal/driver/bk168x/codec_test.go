package bk168x

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"psu-service/pkg/driver"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	step := decimal.New(1, -1)
	limit := decimal.NewFromInt(20)

	for v := decimal.Zero; v.LessThan(limit); v = v.Add(step) {
		field := Encode3(v)
		if len(field) != 3 {
			t.Fatalf("Encode3(%s) = %q, want 3 characters", v, field)
		}
		got, err := Decode3(field)
		if err != nil {
			t.Fatalf("Decode3(%q) failed: %v", field, err)
		}
		if !got.Equal(v) {
			t.Errorf("round trip of %s gave %s", v, got)
		}
	}
}

func TestEncode3(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"0", "000"},
		{"5", "050"},
		{"5.0", "050"},
		{"12.3", "123"},
		{"19.9", "199"},
		{"0.04", "000"},
		{"0.05", "001"},
		{"1.25", "013"},
		{"20.0", "000"},
		{"25.5", "055"},
	}

	for _, tt := range tests {
		if got := Encode3(decimal.RequireFromString(tt.value)); got != tt.want {
			t.Errorf("Encode3(%s) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestEncode3WrapsAtTwenty(t *testing.T) {
	twenty := decimal.NewFromInt(20)
	for _, s := range []string{"20", "20.1", "31.7", "39.9", "45"} {
		v := decimal.RequireFromString(s)
		if Encode3(v) != Encode3(v.Sub(twenty)) {
			t.Errorf("Encode3(%s) = %q, Encode3(%s) = %q", v, Encode3(v), v.Sub(twenty), Encode3(v.Sub(twenty)))
		}
	}
}

func TestEncodeFloat3(t *testing.T) {
	got, err := EncodeFloat3(5.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "050" {
		t.Errorf("expected %q, got %q", "050", got)
	}

	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := EncodeFloat3(f); !errors.Is(err, driver.ErrInvalidArgument) {
			t.Errorf("EncodeFloat3(%v): expected invalid argument, got %v", f, err)
		}
	}
}

func TestDecode4(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"0000", "0"},
		{"1234", "12.34"},
		{"9999", "99.99"},
		{"0500", "5"},
	}

	for _, tt := range tests {
		got, err := Decode4(tt.field)
		if err != nil {
			t.Fatalf("Decode4(%q) failed: %v", tt.field, err)
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("Decode4(%q) = %s, want %s", tt.field, got, tt.want)
		}
	}
}

func TestDecodeRejectsMalformedFields(t *testing.T) {
	for _, field := range []string{"", "12", "1234", "1a3", " 12", "-12"} {
		if _, err := Decode3(field); !errors.Is(err, driver.ErrInvalidArgument) {
			t.Errorf("Decode3(%q): expected invalid argument, got %v", field, err)
		}
	}
	for _, field := range []string{"", "123", "12345", "12.3", "abcd"} {
		if _, err := Decode4(field); !errors.Is(err, driver.ErrInvalidArgument) {
			t.Errorf("Decode4(%q): expected invalid argument, got %v", field, err)
		}
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("12.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("expected 12.5, got %s", v)
	}

	for _, s := range []string{"", "abc", "1.2.3"} {
		if _, err := ParseValue(s); !errors.Is(err, driver.ErrInvalidArgument) {
			t.Errorf("ParseValue(%q): expected invalid argument, got %v", s, err)
		}
	}
}

func TestDecodeMode(t *testing.T) {
	tests := []struct {
		digit byte
		want  driver.Mode
	}{
		{'0', driver.ModeConstantVoltage},
		{'1', driver.ModeConstantCurrent},
		{'7', driver.ModeConstantCurrent},
	}
	for _, tt := range tests {
		got, err := decodeMode(tt.digit)
		if err != nil {
			t.Fatalf("decodeMode(%q) failed: %v", tt.digit, err)
		}
		if got != tt.want {
			t.Errorf("decodeMode(%q) = %s, want %s", tt.digit, got, tt.want)
		}
	}

	if _, err := decodeMode('x'); !errors.Is(err, driver.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for non-digit mode, got %v", err)
	}
}
