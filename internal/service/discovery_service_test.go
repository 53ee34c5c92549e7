package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"psu-service/internal/discovery"
)

type stubScanner struct {
	scannerType string
	devices     []*discovery.DiscoveredDevice
	err         error
}

func (s *stubScanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	return s.devices, s.err
}

func (s *stubScanner) GetScannerType() string { return s.scannerType }

func (s *stubScanner) IsAvailable() bool { return true }

func TestDiscoveryScan(t *testing.T) {
	serialScanner := &stubScanner{
		scannerType: "serial",
		devices: []*discovery.DiscoveredDevice{
			{ScannerType: "serial", Port: "/dev/ttyUSB0", VendorID: "10C4", ProductID: "EA60", Confidence: 1},
		},
	}
	usbScanner := &stubScanner{
		scannerType: "usb",
		devices: []*discovery.DiscoveredDevice{
			{ScannerType: "usb", VendorID: "10C4", ProductID: "EA60", Confidence: 0.9},
		},
	}

	svc := NewDiscoveryService(zap.NewNop(), serialScanner, usbScanner)

	result, err := svc.Scan(context.Background(), "")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Devices) != 2 {
		t.Errorf("devices = %d, want 2", len(result.Devices))
	}
	if result.Candidate == nil || result.Candidate.Port != "/dev/ttyUSB0" {
		t.Errorf("candidate = %+v", result.Candidate)
	}
	if len(result.Scanners) != 2 {
		t.Errorf("scanners = %v", result.Scanners)
	}

	result, err = svc.Scan(context.Background(), "usb")
	if err != nil {
		t.Fatalf("Scan usb: %v", err)
	}
	if result.Candidate != nil {
		t.Errorf("usb devices have no port, candidate = %+v", result.Candidate)
	}
}

func TestDiscoveryScanErrors(t *testing.T) {
	failing := &stubScanner{scannerType: "serial", err: errors.New("permission denied")}
	svc := NewDiscoveryService(zap.NewNop(), failing)

	if _, err := svc.Scan(context.Background(), "serial"); err == nil {
		t.Error("expected error from failing scanner")
	}
	if _, err := svc.Scan(context.Background(), "bluetooth"); err == nil {
		t.Error("expected error for unknown scanner type")
	}

	// ScanAll skips failing scanners
	result, err := svc.Scan(context.Background(), "")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Devices) != 0 {
		t.Errorf("devices = %v", result.Devices)
	}
}
