// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "psu-service/docs"
	"psu-service/internal/config"
	"psu-service/internal/database"
	"psu-service/internal/discovery"
	"psu-service/internal/discovery/serial"
	"psu-service/internal/discovery/usb"
	drivers "psu-service/internal/driver"
	"psu-service/internal/driver/bk168x"
	"psu-service/internal/events"
	"psu-service/internal/handler"
	"psu-service/internal/monitor"
	"psu-service/internal/protocol"
	"psu-service/internal/repository"
	"psu-service/internal/routes"
	"psu-service/internal/service"
	"psu-service/internal/telemetry"
	"psu-service/internal/utils"
	"psu-service/pkg/driver"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	metrics   *monitor.Metrics
	eventBus  *events.EventBus
	publisher *telemetry.Publisher
	router    *routes.Router

	// Services
	psuService       *service.PowerSupplyService
	operationService *service.OperationService
	discoveryService *service.DiscoveryService

	operationRepo repository.OperationRepository

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// @title BK Precision Power Supply Service API
// @version 1.0.0
// @description Remote control of a BK Precision 1685B/1687B/1688B bench power supply over its USB serial link

// @contact.name PSU Service Maintainers

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8084
// @BasePath /api/v1
func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	app, err := NewApplication(*configPath)
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		// the logger is closed by the time Start returns
		fmt.Printf("Application stopped: %v\n", err)
		os.Exit(1)
	}
}

// NewApplication creates a new application instance
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "psu-service")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config:   cfg,
		logger:   logger,
		metrics:  monitor.NewMetrics(),
		eventBus: events.NewEventBus(logger),
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initializeRepositories()

	if err := app.initializeServices(); err != nil {
		app.closeDatabase()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initializeTelemetry()
	app.initializeServer()

	return app, nil
}

// initializeDatabase opens the operation log database and migrates it
func (app *Application) initializeDatabase() error {
	if !app.config.Database.Enabled {
		app.logger.Info("Database disabled, operations are kept in memory",
			zap.Int("limit", app.config.Database.MemoryLimit),
		)
		return nil
	}

	db, err := database.NewConnection(app.config, app.logger)
	if err != nil {
		return err
	}

	migrator := database.NewMigrator(db, app.logger, &app.config.Database)
	if err := migrator.Up(); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app.database = db
	return nil
}

// initializeRepositories creates the operation store
func (app *Application) initializeRepositories() {
	if app.database != nil {
		app.operationRepo = repository.NewOperationRepository(app.database, app.logger)
	} else {
		app.operationRepo = repository.NewMemoryOperationRepository(app.config.Database.MemoryLimit, app.logger)
	}
	app.logger.Info("Repositories initialized")
}

// initializeServices opens the supply and builds the services around it
func (app *Application) initializeServices() error {
	deviceCfg := app.config.Device

	serialScanner := serial.NewScanner(app.logger, &serial.Config{
		VendorID:    deviceCfg.Discovery.VendorID,
		ProductID:   deviceCfg.Discovery.ProductID,
		ProductName: deviceCfg.Discovery.ProductName,
	})
	usbScanner := usb.NewScanner(app.logger, &usb.Config{
		ScanTimeout: deviceCfg.Discovery.ScanTimeout,
		EnableDebug: app.config.App.Debug,
	})
	app.discoveryService = service.NewDiscoveryService(app.logger, serialScanner, usbScanner)

	var resolver discovery.PathResolver = discovery.NewSingleDeviceResolver(serialScanner)
	if deviceCfg.Port != "" {
		resolver = discovery.StaticPath(deviceCfg.Port)
	}

	ctx, cancel := context.WithTimeout(context.Background(), deviceCfg.Discovery.ScanTimeout+5*time.Second)
	defer cancel()

	registry := drivers.NewRegistry(app.logger)
	drivers.RegisterDefaultDrivers(registry, app.logger)

	drv, err := registry.Open(ctx, bk168x.Config{
		Model: deviceCfg.Model,
		Serial: protocol.SerialConfig{
			BaudRate:    deviceCfg.Serial.BaudRate,
			DataBits:    deviceCfg.Serial.DataBits,
			StopBits:    deviceCfg.Serial.StopBits,
			Parity:      deviceCfg.Serial.Parity,
			ReadTimeout: deviceCfg.Serial.ReadTimeout,
		},
		PollInterval:    deviceCfg.PollInterval,
		ResponseTimeout: deviceCfg.ResponseTimeout,
	}, resolver)
	if err != nil {
		switch {
		case errors.Is(err, driver.ErrNoDevice):
			app.logger.Error("No power supply found", zap.Error(err))
		case errors.Is(err, driver.ErrMultipleDevices):
			app.logger.Error("More than one power supply found, set device.port", zap.Error(err))
		}
		return fmt.Errorf("failed to open power supply: %w", err)
	}

	app.psuService = service.NewPowerSupplyService(drv, app.operationRepo, app.eventBus, app.metrics, app.logger)
	app.operationService = service.NewOperationService(app.operationRepo, app.logger)

	info := drv.GetDeviceInfo()
	rated, _ := registry.Lookup(info.Model)
	app.logger.Info("Services initialized",
		zap.String("model", info.Model),
		zap.String("port", info.Port),
		zap.String("rated_voltage", rated.MaxVoltage.String()),
		zap.String("rated_current", rated.MaxCurrent.String()),
	)
	return nil
}

// initializeTelemetry creates the MQTT publisher when enabled
func (app *Application) initializeTelemetry() {
	if !app.config.MQTT.Enabled {
		return
	}
	app.publisher = telemetry.NewPublisher(app.config.MQTT, app.eventBus, app.logger)
}

// initializeServer sets up the HTTP server
func (app *Application) initializeServer() {
	// a typed nil *database.DB would pass the nil check in the health handler
	var dbChecker handler.HealthChecker
	if app.database != nil {
		dbChecker = app.database
	}

	app.router = routes.NewRouter(
		app.config,
		app.logger,
		dbChecker,
		app.metrics,
		app.eventBus,
		app.psuService,
		app.operationService,
		app.discoveryService,
	)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      app.router.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized", zap.String("address", app.server.Addr))
}

// startBackgroundServices starts background goroutines
func (app *Application) startBackgroundServices() {
	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel

	app.goBackground(func() { app.eventBus.Start(ctx) })
	app.goBackground(func() { app.router.WebSocketHandler().Start(ctx) })

	if app.config.Device.StatusMonitorEnabled {
		statusMonitor := service.NewStatusMonitor(app.psuService, app.config.Device.StatusInterval, app.logger)
		app.goBackground(func() { statusMonitor.Run(ctx) })
	}

	if days := app.config.Database.RetentionDays; days > 0 {
		retention := time.Duration(days) * 24 * time.Hour
		app.goBackground(func() { app.operationService.RunRetention(ctx, retention, time.Hour) })
	}

	if app.publisher != nil {
		app.goBackground(func() {
			if err := app.publisher.Connect(ctx); err != nil {
				app.logger.Error("MQTT telemetry disabled", zap.Error(err))
				return
			}
			app.publisher.Run(ctx)
		})
	}

	app.logger.Info("Background services started")
}

func (app *Application) goBackground(fn func()) {
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		fn()
	}()
}

// waitForShutdown blocks until a shutdown signal arrives or the HTTP server
// fails, then shuts down gracefully
func (app *Application) waitForShutdown(serverErr <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var err error
	select {
	case sig := <-quit:
		app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err = <-serverErr:
		app.logger.Error("HTTP server failed", zap.Error(err))
	}

	app.shutdown()
	return err
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "psu-service")
	serviceLogger.LogServiceStop("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	if app.cancel != nil {
		app.cancel()
	}
	app.wg.Wait()

	if app.publisher != nil {
		app.publisher.Disconnect()
	}

	if err := app.psuService.Close(); err != nil {
		app.logger.Error("Power supply close error", zap.Error(err))
	} else {
		app.logger.Info("Power supply link closed")
	}

	app.closeDatabase()

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

func (app *Application) closeDatabase() {
	if app.database == nil {
		return
	}
	if err := app.database.Close(); err != nil {
		app.logger.Error("Database close error", zap.Error(err))
	} else {
		app.logger.Info("Database connection closed")
	}
}

// Start serves HTTP and blocks until a shutdown signal arrives or the server
// fails. The supply is closed on both paths.
func (app *Application) Start() error {
	serverErr := make(chan error, 1)

	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(
				app.config.Server.TLS.CertFile,
				app.config.Server.TLS.KeyFile,
			)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	app.startBackgroundServices()

	return app.waitForShutdown(serverErr)
}
