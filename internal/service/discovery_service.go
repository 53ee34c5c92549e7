// internal/service/discovery_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"psu-service/internal/discovery"
)

// DiscoveryService reports attached supplies and their bridges
type DiscoveryService struct {
	scannerManager *discovery.ScannerManager
	logger         *zap.Logger
}

// ScanResult is the outcome of one discovery run
type ScanResult struct {
	Devices    []*discovery.DiscoveredDevice `json:"devices"`
	Candidate  *discovery.DiscoveredDevice   `json:"candidate,omitempty"`
	Scanners   []string                      `json:"scanners"`
	ScanTimeMs int64                         `json:"scan_time_ms"`
}

// NewDiscoveryService creates a discovery service over the given scanners
func NewDiscoveryService(logger *zap.Logger, scanners ...discovery.DeviceScanner) *DiscoveryService {
	manager := discovery.NewScannerManager(logger)
	for _, scanner := range scanners {
		manager.RegisterScanner(scanner)
	}
	return &DiscoveryService{
		scannerManager: manager,
		logger:         logger,
	}
}

// Scan runs one scanner type, or all of them when scannerType is empty.
// Candidate is set when exactly one serial port qualifies.
func (s *DiscoveryService) Scan(ctx context.Context, scannerType string) (*ScanResult, error) {
	start := time.Now()

	var (
		devices []*discovery.DiscoveredDevice
		err     error
	)
	if scannerType == "" {
		devices, err = s.scannerManager.ScanAll(ctx)
	} else {
		devices, err = s.scannerManager.ScanByType(ctx, scannerType)
	}
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	if devices == nil {
		devices = []*discovery.DiscoveredDevice{}
	}

	result := &ScanResult{
		Devices:    devices,
		Scanners:   s.scannerManager.GetAvailableScanners(),
		ScanTimeMs: time.Since(start).Milliseconds(),
	}
	if candidate, err := discovery.SelectSingle(devices); err == nil {
		result.Candidate = candidate
	}

	s.logger.Info("Discovery completed",
		zap.String("scanner_type", scannerType),
		zap.Int("devices_found", len(devices)),
		zap.Int64("scan_time_ms", result.ScanTimeMs),
	)
	return result, nil
}

// AvailableScanners lists the usable scanner types
func (s *DiscoveryService) AvailableScanners() []string {
	return s.scannerManager.GetAvailableScanners()
}
