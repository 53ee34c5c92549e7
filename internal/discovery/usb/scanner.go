// internal/discovery/usb/scanner.go
package usb

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"psu-service/internal/discovery"
)

// Scanner reports attached USB/UART bridges known to drive a 168x.
// Devices are identified from their descriptors only and never opened, so a
// supply already in use by the driver is left alone.
type Scanner struct {
	logger       *zap.Logger
	knownDevices *DeviceDatabase
	timeout      time.Duration
	config       *Config
	enumerate    func() ([]*gousb.DeviceDesc, error)
}

// Config for USB scanner
type Config struct {
	ScanTimeout time.Duration `json:"scan_timeout"`
	EnableDebug bool          `json:"enable_debug"`
}

// NewScanner creates a new USB scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{
			ScanTimeout: 10 * time.Second,
		}
	}
	if config.ScanTimeout <= 0 {
		config.ScanTimeout = 10 * time.Second
	}

	s := &Scanner{
		logger:       logger.With(zap.String("scanner", "usb")),
		knownDevices: NewDeviceDatabase(),
		timeout:      config.ScanTimeout,
		config:       config,
	}
	s.enumerate = s.enumerateDescriptors
	return s
}

// GetScannerType returns scanner type identifier
func (s *Scanner) GetScannerType() string {
	return "usb"
}

// IsAvailable checks if USB scanning is available on this system
func (s *Scanner) IsAvailable() bool {
	switch runtime.GOOS {
	case "windows", "linux", "darwin":
		return true
	default:
		s.logger.Warn("USB scanning support unknown for OS", zap.String("os", runtime.GOOS))
		return false
	}
}

// Scan performs USB bridge discovery
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	startTime := time.Now()

	scanCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		descs []*gousb.DeviceDesc
		err   error
	}
	done := make(chan result, 1)
	go func() {
		descs, err := s.enumerate()
		done <- result{descs, err}
	}()

	var descs []*gousb.DeviceDesc
	select {
	case <-scanCtx.Done():
		return nil, fmt.Errorf("usb scan aborted: %w", scanCtx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("device enumeration failed: %w", r.err)
		}
		descs = r.descs
	}

	devices := s.postProcessDevices(s.identify(descs))

	s.logger.Info("USB scan completed",
		zap.Int("devices_found", len(devices)),
		zap.Duration("scan_duration", time.Since(startTime)),
	)
	return devices, nil
}

// enumerateDescriptors walks the bus. The filter records every descriptor
// and declines to open it.
func (s *Scanner) enumerateDescriptors() ([]*gousb.DeviceDesc, error) {
	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil {
			s.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()

	if s.config.EnableDebug {
		usbCtx.Debug(3)
	}

	var descs []*gousb.DeviceDesc
	_, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		descs = append(descs, desc)
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("USB subsystem not accessible: %w", err)
	}
	return descs, nil
}

// identify keeps descriptors of known bridges
func (s *Scanner) identify(descs []*gousb.DeviceDesc) []*discovery.DiscoveredDevice {
	var devices []*discovery.DiscoveredDevice
	for _, desc := range descs {
		if desc == nil {
			continue
		}
		vendor, product, ok := s.knownDevices.Lookup(desc.Vendor, desc.Product)
		if !ok {
			continue
		}

		s.logger.Debug("Found known bridge",
			zap.String("vendor_id", fmt.Sprintf("0x%04X", uint16(desc.Vendor))),
			zap.String("product_id", fmt.Sprintf("0x%04X", uint16(desc.Product))),
		)

		devices = append(devices, &discovery.DiscoveredDevice{
			ScannerType:  s.GetScannerType(),
			VendorID:     fmt.Sprintf("%04X", uint16(desc.Vendor)),
			ProductID:    fmt.Sprintf("%04X", uint16(desc.Product)),
			Manufacturer: vendor.Name,
			Product:      product.Name,
			Location:     createLocationString(desc),
			Confidence:   product.Confidence,
		})
	}
	return devices
}

// postProcessDevices removes duplicates and sorts by confidence
func (s *Scanner) postProcessDevices(devices []*discovery.DiscoveredDevice) []*discovery.DiscoveredDevice {
	seen := make(map[string]bool)
	var unique []*discovery.DiscoveredDevice

	for _, device := range devices {
		key := device.VendorID + ":" + device.ProductID + ":" + device.Location
		if seen[key] {
			s.logger.Debug("Removing duplicate device", zap.String("key", key))
			continue
		}
		seen[key] = true
		unique = append(unique, device)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Confidence > unique[j].Confidence
	})
	return unique
}

// createLocationString creates a location identifier for the device
func createLocationString(desc *gousb.DeviceDesc) string {
	return fmt.Sprintf("USB-Bus%d-Addr%d", desc.Bus, desc.Address)
}
