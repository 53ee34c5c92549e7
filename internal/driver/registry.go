// internal/driver/registry.go
package driver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"psu-service/internal/discovery"
	"psu-service/internal/driver/bk168x"
	"psu-service/pkg/driver"
)

// DriverFactory opens a driver for one supply model
type DriverFactory func(ctx context.Context, cfg bk168x.Config, resolver discovery.PathResolver, logger *zap.Logger) (driver.PowerSupplyDriver, error)

// ModelInfo describes the rated output of a supported model
type ModelInfo struct {
	Manufacturer string          `json:"manufacturer"`
	Model        string          `json:"model"`
	MaxVoltage   decimal.Decimal `json:"max_voltage"`
	MaxCurrent   decimal.Decimal `json:"max_current"`
}

type registration struct {
	info    ModelInfo
	factory DriverFactory
}

// Registry maps model names to driver factories
type Registry struct {
	drivers map[string]registration
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewRegistry creates a new driver registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		drivers: make(map[string]registration),
		logger:  logger,
	}
}

// Register registers a driver factory for info.Model
func (r *Registry) Register(info ModelInfo, factory DriverFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.drivers[normalizeModel(info.Model)] = registration{info: info, factory: factory}
	r.logger.Info("Driver registered",
		zap.String("manufacturer", info.Manufacturer),
		zap.String("model", info.Model),
		zap.String("max_voltage", info.MaxVoltage.String()),
		zap.String("max_current", info.MaxCurrent.String()),
	)
}

// Open creates a driver for the model named in cfg
func (r *Registry) Open(ctx context.Context, cfg bk168x.Config, resolver discovery.PathResolver) (driver.PowerSupplyDriver, error) {
	r.mu.RLock()
	reg, ok := r.drivers[normalizeModel(cfg.Model)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no driver found for model %q (supported: %s)",
			cfg.Model, strings.Join(r.modelNames(), ", "))
	}

	cfg.Model = reg.info.Model
	return reg.factory(ctx, cfg, resolver, r.logger)
}

// Lookup returns the rated output of a model
func (r *Registry) Lookup(model string) (ModelInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.drivers[normalizeModel(model)]
	return reg.info, ok
}

// IsSupported checks if a model is registered
func (r *Registry) IsSupported(model string) bool {
	_, ok := r.Lookup(model)
	return ok
}

// ListModels returns all registered models ordered by name
func (r *Registry) ListModels() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]ModelInfo, 0, len(r.drivers))
	for _, reg := range r.drivers {
		models = append(models, reg.info)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Model < models[j].Model })
	return models
}

func (r *Registry) modelNames() []string {
	models := r.ListModels()
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Model
	}
	return names
}

func normalizeModel(model string) string {
	return strings.ToUpper(strings.TrimSpace(model))
}
