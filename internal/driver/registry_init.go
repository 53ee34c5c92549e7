// internal/driver/registry_init.go
package driver

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"psu-service/internal/discovery"
	"psu-service/internal/driver/bk168x"
	"psu-service/pkg/driver"
)

// RegisterDefaultDrivers registers all default supply drivers
func RegisterDefaultDrivers(registry *Registry, logger *zap.Logger) {
	registerBK168xDrivers(registry, logger)
}

// registerBK168xDrivers registers the 168x family. All three share one wire
// protocol and differ only in rated output.
func registerBK168xDrivers(registry *Registry, logger *zap.Logger) {
	models := []struct {
		name    string
		voltage int64
		current int64
	}{
		{"1685B", 60, 5},
		{"1687B", 36, 10},
		{"1688B", 18, 20},
	}

	for _, m := range models {
		registry.Register(ModelInfo{
			Manufacturer: bk168x.Manufacturer,
			Model:        m.name,
			MaxVoltage:   decimal.NewFromInt(m.voltage),
			MaxCurrent:   decimal.NewFromInt(m.current),
		}, openBK168x)
	}

	logger.Info("BK Precision 168x drivers registered",
		zap.Int("models", len(models)),
	)
}

func openBK168x(ctx context.Context, cfg bk168x.Config, resolver discovery.PathResolver, logger *zap.Logger) (driver.PowerSupplyDriver, error) {
	d, err := bk168x.Open(ctx, cfg, resolver, logger)
	if err != nil {
		return nil, err
	}
	return d, nil
}
