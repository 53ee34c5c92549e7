package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: psu-service\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Device.Serial.BaudRate != 9600 || cfg.Device.Serial.DataBits != 8 ||
		cfg.Device.Serial.StopBits != 1 || cfg.Device.Serial.Parity != "none" {
		t.Errorf("serial defaults = %+v, want 9600 8N1", cfg.Device.Serial)
	}
	if cfg.Device.PollInterval != 20*time.Millisecond || cfg.Device.ResponseTimeout != time.Second {
		t.Errorf("timing = %v / %v", cfg.Device.PollInterval, cfg.Device.ResponseTimeout)
	}
	if cfg.Device.Model != "1687B" || cfg.Device.Port != "" {
		t.Errorf("device = %q on %q", cfg.Device.Model, cfg.Device.Port)
	}
	if cfg.Database.Enabled || cfg.Database.MemoryLimit != 1000 {
		t.Errorf("database defaults = %+v", cfg.Database)
	}
	if cfg.MQTT.Enabled || cfg.MQTT.TopicPrefix != "psu" {
		t.Errorf("mqtt defaults = %+v", cfg.MQTT)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("metrics defaults = %+v", cfg.Metrics)
	}
	if got := cfg.GetServerAddr(); got != "0.0.0.0:8084" {
		t.Errorf("server addr = %q", got)
	}
	if cfg.IsProduction() || !cfg.IsDevelopment() {
		t.Error("default environment should be development")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
device:
  port: /dev/ttyUSB3
  model: 1688B
  poll_interval: 50ms
  response_timeout: 2s
mqtt:
  enabled: true
  broker: tcp://localhost:1883
  qos: 1
`)
	t.Setenv("PSU_SERVICE_DEVICE_PORT", "/dev/ttyACM0")
	t.Setenv("PSU_SERVICE_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Device.Port != "/dev/ttyACM0" {
		t.Errorf("env should override file, port = %q", cfg.Device.Port)
	}
	if cfg.Device.Model != "1688B" || cfg.Device.PollInterval != 50*time.Millisecond ||
		cfg.Device.ResponseTimeout != 2*time.Second {
		t.Errorf("device = %+v", cfg.Device)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.QoS != 1 || cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("mqtt = %+v", cfg.MQTT)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"environment", "app:\n  environment: qa\n", "app.environment"},
		{"log level", "logging:\n  level: verbose\n", "logging.level"},
		{"parity", "device:\n  serial:\n    parity: mark\n", "device.serial.parity"},
		{"stop bits", "device:\n  serial:\n    stop_bits: 3\n", "device.serial.stop_bits"},
		{"timeout shorter than poll", "device:\n  poll_interval: 100ms\n  response_timeout: 50ms\n", "device.response_timeout"},
		{"mqtt broker", "mqtt:\n  enabled: true\n", "mqtt.broker"},
		{"mqtt qos", "mqtt:\n  qos: 3\n", "mqtt.qos"},
		{"database name", "database:\n  enabled: true\n  dbname: \"\"\n", "database.dbname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %s", err, tt.want)
			}
		})
	}
}

func TestLoadBadFile(t *testing.T) {
	if _, err := Load(writeConfig(t, "device: [unterminated\n")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: 5432, User: "psu", Password: "secret", DBName: "ops", SSLMode: "disable",
	}}

	if got, want := cfg.GetDatabaseDSN(), "host=db port=5432 user=psu password=secret dbname=ops sslmode=disable"; got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
	if got, want := cfg.GetDatabaseURL(), "postgres://psu:secret@db:5432/ops?sslmode=disable"; got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
}
