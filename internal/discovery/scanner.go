// internal/discovery/scanner.go
package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"psu-service/pkg/driver"
)

// DeviceScanner interface - Strategy Pattern
type DeviceScanner interface {
	Scan(ctx context.Context) ([]*DiscoveredDevice, error)
	GetScannerType() string
	IsAvailable() bool
}

// DiscoveredDevice represents a discovered device
type DiscoveredDevice struct {
	ScannerType  string  `json:"scanner_type"`
	Port         string  `json:"port,omitempty"` // empty when the device has no tty node
	VendorID     string  `json:"vendor_id,omitempty"`
	ProductID    string  `json:"product_id,omitempty"`
	Manufacturer string  `json:"manufacturer,omitempty"`
	Product      string  `json:"product,omitempty"`
	SerialNumber string  `json:"serial_number,omitempty"`
	Location     string  `json:"location,omitempty"`
	Confidence   float64 `json:"confidence"` // 0.0-1.0
}

// PathResolver finds the serial device path of the supply
type PathResolver interface {
	ResolvePath(ctx context.Context) (string, error)
}

// StaticPath resolves to a fixed path
type StaticPath string

// ResolvePath returns the path itself
func (p StaticPath) ResolvePath(ctx context.Context) (string, error) {
	if p == "" {
		return "", driver.NewError("resolve path", driver.ErrNoDevice, "empty device path")
	}
	return string(p), nil
}

// SingleDeviceResolver resolves the one device reported by a scanner
type SingleDeviceResolver struct {
	scanner DeviceScanner
}

// NewSingleDeviceResolver creates a resolver over scanner
func NewSingleDeviceResolver(scanner DeviceScanner) *SingleDeviceResolver {
	return &SingleDeviceResolver{scanner: scanner}
}

// ResolvePath scans once and requires exactly one candidate with a path
func (r *SingleDeviceResolver) ResolvePath(ctx context.Context) (string, error) {
	devices, err := r.scanner.Scan(ctx)
	if err != nil {
		return "", fmt.Errorf("%s scan failed: %w", r.scanner.GetScannerType(), err)
	}

	device, err := SelectSingle(devices)
	if err != nil {
		return "", err
	}
	return device.Port, nil
}

// SelectSingle returns the only device that has a port
func SelectSingle(devices []*DiscoveredDevice) (*DiscoveredDevice, error) {
	var candidates []*DiscoveredDevice
	for _, d := range devices {
		if d != nil && d.Port != "" {
			candidates = append(candidates, d)
		}
	}

	switch len(candidates) {
	case 0:
		return nil, driver.NewError("resolve path", driver.ErrNoDevice,
			"power supply not connected")
	case 1:
		return candidates[0], nil
	default:
		ports := make([]string, 0, len(candidates))
		for _, c := range candidates {
			ports = append(ports, c.Port)
		}
		return nil, driver.NewError("resolve path", driver.ErrMultipleDevices,
			fmt.Sprintf("%d candidates (%s), disconnect one or configure the port", len(candidates), strings.Join(ports, ", ")))
	}
}

// ScannerManager manages all device scanners - Facade Pattern
type ScannerManager struct {
	scanners map[string]DeviceScanner
	logger   *zap.Logger
}

// NewScannerManager creates a new scanner manager
func NewScannerManager(logger *zap.Logger) *ScannerManager {
	return &ScannerManager{
		scanners: make(map[string]DeviceScanner),
		logger:   logger,
	}
}

// RegisterScanner registers a device scanner
func (sm *ScannerManager) RegisterScanner(scanner DeviceScanner) {
	scannerType := scanner.GetScannerType()
	sm.scanners[scannerType] = scanner
	sm.logger.Info("Scanner registered", zap.String("type", scannerType))
}

// ScanAll runs every available scanner. A failing scanner is logged and skipped.
func (sm *ScannerManager) ScanAll(ctx context.Context) ([]*DiscoveredDevice, error) {
	var allDevices []*DiscoveredDevice

	for _, scannerType := range sm.scannerTypes() {
		scanner := sm.scanners[scannerType]
		if !scanner.IsAvailable() {
			sm.logger.Debug("Scanner not available, skipping", zap.String("type", scannerType))
			continue
		}

		devices, err := scanner.Scan(ctx)
		if err != nil {
			sm.logger.Error("Scanner failed", zap.String("type", scannerType), zap.Error(err))
			continue
		}

		allDevices = append(allDevices, devices...)
		sm.logger.Info("Scanner completed",
			zap.String("type", scannerType),
			zap.Int("devices_found", len(devices)),
		)
	}

	return allDevices, nil
}

// ScanByType scans specific scanner type
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType string) ([]*DiscoveredDevice, error) {
	scanner, exists := sm.scanners[scannerType]
	if !exists {
		return nil, fmt.Errorf("scanner type not found: %s", scannerType)
	}

	if !scanner.IsAvailable() {
		return nil, fmt.Errorf("scanner not available: %s", scannerType)
	}

	return scanner.Scan(ctx)
}

// GetAvailableScanners returns list of available scanner types
func (sm *ScannerManager) GetAvailableScanners() []string {
	var available []string
	for _, scannerType := range sm.scannerTypes() {
		if sm.scanners[scannerType].IsAvailable() {
			available = append(available, scannerType)
		}
	}
	return available
}

func (sm *ScannerManager) scannerTypes() []string {
	types := make([]string, 0, len(sm.scanners))
	for scannerType := range sm.scanners {
		types = append(types, scannerType)
	}
	sort.Strings(types)
	return types
}
