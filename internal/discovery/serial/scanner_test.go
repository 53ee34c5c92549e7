package serial

import (
	"context"
	"errors"
	"testing"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"
)

func withPorts(t *testing.T, ports []*enumerator.PortDetails, err error) {
	t.Helper()
	orig := listPorts
	listPorts = func() ([]*enumerator.PortDetails, error) { return ports, err }
	t.Cleanup(func() { listPorts = orig })
}

func TestScanMatchesBridge(t *testing.T) {
	withPorts(t, []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "10c4", PID: "ea60", SerialNumber: "0001"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "0403", PID: "6001", Product: "FT232R"},
		{Name: "/dev/ttyUSB2", IsUSB: true, Product: "CP2102 USB to UART Bridge Controller"},
	}, nil)

	devices, err := NewScanner(zap.NewNop(), nil).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2: %v", len(devices), devices)
	}

	if devices[0].Port != "/dev/ttyUSB0" || devices[0].VendorID != "10C4" || devices[0].ProductID != "EA60" {
		t.Errorf("first device = %+v", devices[0])
	}
	if devices[0].Confidence != 0.9 {
		t.Errorf("VID/PID match confidence = %v", devices[0].Confidence)
	}
	if devices[1].Port != "/dev/ttyUSB2" || devices[1].Confidence != 0.6 {
		t.Errorf("product name match = %+v", devices[1])
	}
}

func TestScanCustomIDs(t *testing.T) {
	withPorts(t, []*enumerator.PortDetails{
		{Name: "COM4", IsUSB: true, VID: "0403", PID: "6001"},
	}, nil)

	scanner := NewScanner(zap.NewNop(), &Config{VendorID: "0403", ProductID: "6001", ProductName: "none"})
	devices, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(devices) != 1 || devices[0].Port != "COM4" {
		t.Fatalf("got %v", devices)
	}
}

func TestScanErrors(t *testing.T) {
	enumErr := errors.New("no sysfs")
	withPorts(t, nil, enumErr)

	scanner := NewScanner(zap.NewNop(), nil)
	if _, err := scanner.Scan(context.Background()); !errors.Is(err, enumErr) {
		t.Errorf("got %v, want wrapped enumeration error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := scanner.Scan(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
