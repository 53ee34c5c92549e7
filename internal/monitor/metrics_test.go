package monitor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"psu-service/pkg/driver"
)

func TestObserveOperation(t *testing.T) {
	m := NewMetrics()

	m.ObserveOperation("SET_VOLTAGE", "SUCCESS", 30*time.Millisecond)
	m.ObserveOperation("SET_VOLTAGE", "SUCCESS", 25*time.Millisecond)
	m.ObserveOperation("SET_VOLTAGE", "TIMEOUT", time.Second)

	if got := testutil.ToFloat64(m.OperationsTotal.WithLabelValues("SET_VOLTAGE", "SUCCESS")); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.OperationsTotal.WithLabelValues("SET_VOLTAGE", "TIMEOUT")); got != 1 {
		t.Errorf("timeout count = %v, want 1", got)
	}
}

func TestObserveDisplay(t *testing.T) {
	m := NewMetrics()

	m.ObserveDisplay(&driver.DisplayStatus{
		Voltage: decimal.RequireFromString("5.00"),
		Current: decimal.RequireFromString("1.25"),
		Mode:    driver.ModeConstantCurrent,
	})

	if got := testutil.ToFloat64(m.DisplayVoltage); got != 5.0 {
		t.Errorf("voltage = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.DisplayCurrent); got != 1.25 {
		t.Errorf("current = %v, want 1.25", got)
	}
	if got := testutil.ToFloat64(m.ConstantCurrent); got != 1 {
		t.Errorf("cc mode = %v, want 1", got)
	}

	m.ObserveDisplay(&driver.DisplayStatus{Mode: driver.ModeConstantVoltage})
	if got := testutil.ToFloat64(m.ConstantCurrent); got != 0 {
		t.Errorf("cc mode = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.StatusPolls.WithLabelValues("success")); got != 2 {
		t.Errorf("successful polls = %v, want 2", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.SetDeviceUp(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "psu_device_up 1") {
		t.Errorf("psu_device_up missing from output")
	}
}
