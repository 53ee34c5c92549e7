// internal/monitor/metrics.go
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"psu-service/pkg/driver"
)

// Metrics holds the Prometheus collectors of the service
type Metrics struct {
	registry *prometheus.Registry

	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	DisplayVoltage    prometheus.Gauge
	DisplayCurrent    prometheus.Gauge
	ConstantCurrent   prometheus.Gauge
	DeviceUp          prometheus.Gauge
	StatusPolls       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "psu_operations_total",
				Help: "Power supply operations by type and outcome",
			},
			[]string{"operation", "status"},
		),

		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "psu_operation_duration_seconds",
				Help: "Round trip time of power supply operations",
				// a round trip is bounded by the one second response timeout
				Buckets: []float64{0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2},
			},
			[]string{"operation"},
		),

		DisplayVoltage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "psu_display_voltage_volts",
			Help: "Output voltage shown on the front panel",
		}),

		DisplayCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "psu_display_current_amperes",
			Help: "Output current shown on the front panel",
		}),

		ConstantCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "psu_constant_current_mode",
			Help: "1 when the supply regulates current, 0 for constant voltage",
		}),

		DeviceUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "psu_device_up",
			Help: "1 when the last exchange with the supply succeeded",
		}),

		StatusPolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "psu_status_polls_total",
				Help: "Display status polls by outcome",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.OperationsTotal,
		m.OperationDuration,
		m.DisplayVoltage,
		m.DisplayCurrent,
		m.ConstantCurrent,
		m.DeviceUp,
		m.StatusPolls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOperation records one finished operation
func (m *Metrics) ObserveOperation(operation, status string, duration time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveDisplay records the latest front panel reading
func (m *Metrics) ObserveDisplay(status *driver.DisplayStatus) {
	m.DisplayVoltage.Set(toFloat(status.Voltage))
	m.DisplayCurrent.Set(toFloat(status.Current))
	if status.Mode == driver.ModeConstantCurrent {
		m.ConstantCurrent.Set(1)
	} else {
		m.ConstantCurrent.Set(0)
	}
	m.StatusPolls.WithLabelValues("success").Inc()
}

// ObserveStatusPollFailure records a failed display poll
func (m *Metrics) ObserveStatusPollFailure() {
	m.StatusPolls.WithLabelValues("failure").Inc()
}

// SetDeviceUp records the link state
func (m *Metrics) SetDeviceUp(up bool) {
	if up {
		m.DeviceUp.Set(1)
	} else {
		m.DeviceUp.Set(0)
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
