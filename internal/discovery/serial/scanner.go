// internal/discovery/serial/scanner.go
package serial

import (
	"context"
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"psu-service/internal/discovery"
)

// USB/UART bridge of the 168x front panel
const (
	DefaultVendorID    = "10C4"
	DefaultProductID   = "EA60"
	DefaultProductName = "CP2102"
)

// listPorts enumerates serial ports. Replaced in tests.
var listPorts = enumerator.GetDetailedPortsList

// Scanner finds serial ports backed by the supply's USB bridge
type Scanner struct {
	logger *zap.Logger
	config *Config
}

// Config for serial scanner
type Config struct {
	VendorID  string `json:"vendor_id"`
	ProductID string `json:"product_id"`
	// ProductName matches ports whose USB product string contains it when
	// the VID/PID is not reported
	ProductName string `json:"product_name"`
}

// NewScanner creates a new serial scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{}
	}
	if config.VendorID == "" {
		config.VendorID = DefaultVendorID
	}
	if config.ProductID == "" {
		config.ProductID = DefaultProductID
	}
	if config.ProductName == "" {
		config.ProductName = DefaultProductName
	}

	return &Scanner{
		logger: logger.With(zap.String("scanner", "serial")),
		config: config,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "serial"
}

// IsAvailable checks if serial scanning is available
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan lists USB serial ports matching the configured bridge
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	var devices []*discovery.DiscoveredDevice
	for _, port := range ports {
		confidence, ok := s.match(port)
		if !ok {
			continue
		}
		devices = append(devices, &discovery.DiscoveredDevice{
			ScannerType:  s.GetScannerType(),
			Port:         port.Name,
			VendorID:     strings.ToUpper(port.VID),
			ProductID:    strings.ToUpper(port.PID),
			Product:      port.Product,
			SerialNumber: port.SerialNumber,
			Confidence:   confidence,
		})
	}

	s.logger.Info("Serial port scan completed",
		zap.Int("ports", len(ports)),
		zap.Int("matches", len(devices)),
	)
	return devices, nil
}

func (s *Scanner) match(port *enumerator.PortDetails) (float64, bool) {
	if port == nil || !port.IsUSB {
		return 0, false
	}
	if strings.EqualFold(port.VID, s.config.VendorID) && strings.EqualFold(port.PID, s.config.ProductID) {
		return 0.9, true
	}
	if s.config.ProductName != "" &&
		strings.Contains(strings.ToUpper(port.Product), strings.ToUpper(s.config.ProductName)) {
		return 0.6, true
	}
	return 0, false
}
