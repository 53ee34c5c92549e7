package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"psu-service/internal/driver/bk168x"
	"psu-service/internal/events"
	"psu-service/internal/model"
	"psu-service/internal/monitor"
	"psu-service/internal/protocol"
	"psu-service/internal/protocol/protocoltest"
	"psu-service/internal/repository"
	"psu-service/pkg/driver"
)

// supplyReplies answers every catalog command like an idle 1687B
func supplyReplies(command string) string {
	switch {
	case command == "GETD":
		return "0500010000OK\r"
	case command == "GETS":
		return "0500100OK\r"
	case command == "GOVP", command == "GOCP":
		return "1800OK\r"
	case command == "GMAX":
		return "1800500OK\r"
	case command == "GETM":
		return "0500101200201500300OK\r"
	default:
		return "OK\r"
	}
}

type testEnv struct {
	psu     *PowerSupplyService
	fake    *protocoltest.FakeTransport
	repo    repository.OperationRepository
	bus     *events.EventBus
	metrics *monitor.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fake := protocoltest.New()
	fake.Respond = supplyReplies

	drv := bk168x.New(fake,
		bk168x.WithTiming(time.Millisecond, 5*time.Millisecond),
		bk168x.WithDeviceInfo("1687B", "/dev/ttyUSB0"),
	)

	env := &testEnv{
		fake:    fake,
		repo:    repository.NewMemoryOperationRepository(100, zap.NewNop()),
		bus:     events.NewEventBus(zap.NewNop()),
		metrics: monitor.NewMetrics(),
	}
	env.psu = NewPowerSupplyService(drv, env.repo, env.bus, env.metrics, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go env.bus.Start(ctx)

	return env
}

func (e *testEnv) operations(t *testing.T) []*model.Operation {
	t.Helper()
	ops, _, err := e.repo.List(context.Background(), &repository.OperationFilter{PerPage: 100})
	if err != nil {
		t.Fatalf("list operations: %v", err)
	}
	return ops
}

func receive(t *testing.T, ch <-chan *model.DeviceEvent) *model.DeviceEvent {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func TestSetVoltageRecordsOperation(t *testing.T) {
	env := newTestEnv(t)
	completed, unsubscribe := env.bus.Subscribe(model.EventOperationCompleted)
	defer unsubscribe()

	ctx := WithRequestID(context.Background(), "req-1")
	if err := env.psu.SetVoltage(ctx, decimal.RequireFromString("5.0")); err != nil {
		t.Fatalf("SetVoltage: %v", err)
	}

	if got := env.fake.LastWrite(); got != "VOLT050\r" {
		t.Errorf("wire = %q, want VOLT050\\r", got)
	}

	ops := env.operations(t)
	if len(ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(ops))
	}
	op := ops[0]
	if op.OperationType != model.OperationTypeSetVoltage || op.Status != model.OperationStatusSuccess {
		t.Errorf("operation = %s/%s", op.OperationType, op.Status)
	}
	if op.RequestID == nil || *op.RequestID != "req-1" {
		t.Errorf("request id = %v", op.RequestID)
	}
	if op.Parameters["voltage"] != "5" {
		t.Errorf("parameters = %v", op.Parameters)
	}
	if op.CompletedAt == nil || op.DurationMs == nil {
		t.Error("completion not recorded")
	}

	event := receive(t, completed)
	if event.Data["operation_type"] != string(model.OperationTypeSetVoltage) {
		t.Errorf("event data = %v", event.Data)
	}

	if got := testutil.ToFloat64(env.metrics.OperationsTotal.WithLabelValues("SET_VOLTAGE", "SUCCESS")); got != 1 {
		t.Errorf("success metric = %v", got)
	}
}

func TestOperationOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*protocoltest.FakeTransport)
		call       func(*PowerSupplyService) error
		wantKind   error
		wantStatus model.OperationStatus
		wantDevice model.DeviceStatus
		wantWrites int
	}{
		{
			name:       "rejected preset count",
			call:       func(p *PowerSupplyService) error { return p.SetPresetValues(context.Background(), [][]decimal.Decimal{{decimal.NewFromInt(1), decimal.NewFromInt(1)}}) },
			wantKind:   driver.ErrInvalidArgument,
			wantStatus: model.OperationStatusRejected,
			wantDevice: model.DeviceStatusOnline,
			wantWrites: 0,
		},
		{
			name:       "negative setpoint",
			call:       func(p *PowerSupplyService) error { return p.SetCurrent(context.Background(), decimal.RequireFromString("-0.5")) },
			wantKind:   driver.ErrInvalidArgument,
			wantStatus: model.OperationStatusRejected,
			wantDevice: model.DeviceStatusOnline,
			wantWrites: 0,
		},
		{
			name:       "missing acknowledgement",
			setup:      func(f *protocoltest.FakeTransport) { f.QueueReply("XX\r") },
			call:       func(p *PowerSupplyService) error { return p.SetOutput(context.Background(), true) },
			wantKind:   driver.ErrNoAck,
			wantStatus: model.OperationStatusFailed,
			wantDevice: model.DeviceStatusOnline,
			wantWrites: 1,
		},
		{
			name:       "silent supply",
			setup:      func(f *protocoltest.FakeTransport) { f.Respond = nil },
			call:       func(p *PowerSupplyService) error { return p.RecallPresetValues(context.Background(), 1) },
			wantKind:   driver.ErrTimeout,
			wantStatus: model.OperationStatusTimeout,
			wantDevice: model.DeviceStatusUnresponsive,
			wantWrites: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.setup != nil {
				tt.setup(env.fake)
			}

			err := tt.call(env.psu)
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("expected %v, got %v", tt.wantKind, err)
			}

			if got := len(env.fake.Writes()); got != tt.wantWrites {
				t.Errorf("writes = %d, want %d", got, tt.wantWrites)
			}

			ops := env.operations(t)
			if len(ops) != 1 {
				t.Fatalf("expected 1 operation, got %d", len(ops))
			}
			if ops[0].Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", ops[0].Status, tt.wantStatus)
			}
			if ops[0].ErrorKind == nil || *ops[0].ErrorKind != driver.KindName(tt.wantKind) {
				t.Errorf("error kind = %v", ops[0].ErrorKind)
			}

			if got := env.psu.GetDevice().Status; got != tt.wantDevice {
				t.Errorf("device status = %s, want %s", got, tt.wantDevice)
			}
		})
	}
}

func TestDeviceRecoversAfterTimeout(t *testing.T) {
	env := newTestEnv(t)
	changes, unsubscribe := env.bus.Subscribe(model.EventDeviceStatusChange)
	defer unsubscribe()

	env.fake.Respond = nil
	if _, err := env.psu.GetMode(context.Background()); !errors.Is(err, driver.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if got := testutil.ToFloat64(env.metrics.DeviceUp); got != 0 {
		t.Errorf("device up = %v after timeout", got)
	}
	if event := receive(t, changes); event.Data["status"] != string(model.DeviceStatusUnresponsive) {
		t.Errorf("status change = %v", event.Data)
	}

	env.fake.Respond = supplyReplies
	mode, err := env.psu.GetMode(context.Background())
	if err != nil {
		t.Fatalf("GetMode: %v", err)
	}
	if mode != driver.ModeConstantVoltage {
		t.Errorf("mode = %s", mode)
	}

	device := env.psu.GetDevice()
	if device.Status != model.DeviceStatusOnline {
		t.Errorf("device status = %s", device.Status)
	}
	if device.LastError == nil || device.LastError.Kind != "TIMEOUT" {
		t.Errorf("last error = %+v", device.LastError)
	}
	if device.Operations != 2 || device.Failures != 1 {
		t.Errorf("counters = %d/%d", device.Operations, device.Failures)
	}
	if event := receive(t, changes); event.Data["status"] != string(model.DeviceStatusOnline) {
		t.Errorf("status change = %v", event.Data)
	}
}

func TestReads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	status, err := env.psu.GetDisplayStatus(ctx)
	if err != nil {
		t.Fatalf("GetDisplayStatus: %v", err)
	}
	if !status.Voltage.Equal(decimal.RequireFromString("5.00")) || !status.Current.Equal(decimal.RequireFromString("1.00")) {
		t.Errorf("display = %+v", status)
	}
	if last := env.psu.LastDisplayStatus(); last == nil || !last.Voltage.Equal(status.Voltage) {
		t.Errorf("last display = %+v", last)
	}

	settings, err := env.psu.GetVoltageAndCurrentSettings(ctx)
	if err != nil {
		t.Fatalf("GetVoltageAndCurrentSettings: %v", err)
	}
	if settings.Voltage.String() != "5" || settings.Current.String() != "1" {
		t.Errorf("settings = %s/%s", settings.Voltage, settings.Current)
	}

	limit, err := env.psu.GetVoltageUpperLimitSetting(ctx)
	if err != nil || limit.String() != "18" {
		t.Errorf("voltage limit = %s, %v", limit, err)
	}

	maxValues, err := env.psu.GetMaxValues(ctx)
	if err != nil || maxValues.Voltage.String() != "18" || maxValues.Current.String() != "5" {
		t.Errorf("max = %+v, %v", maxValues, err)
	}

	presets, err := env.psu.GetPresetValues(ctx)
	if err != nil {
		t.Fatalf("GetPresetValues: %v", err)
	}
	if len(presets) != driver.PresetSlotCount || presets[2].Voltage.String() != "15" {
		t.Errorf("presets = %+v", presets)
	}

	ops := env.operations(t)
	if len(ops) != 5 {
		t.Fatalf("expected 5 operations, got %d", len(ops))
	}
	// newest first
	if ops[0].OperationType != model.OperationTypeGetPresetValues {
		t.Errorf("newest operation = %s", ops[0].OperationType)
	}
	if ops[len(ops)-1].Result["mode"] != "CV" {
		t.Errorf("display result = %v", ops[len(ops)-1].Result)
	}
}

func TestConcurrentCallersAreSerialized(t *testing.T) {
	env := newTestEnv(t)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := env.psu.GetDisplayStatus(context.Background())
			errs <- err
		}()
		go func() {
			defer wg.Done()
			errs <- env.psu.SetCurrent(context.Background(), decimal.RequireFromString("1.5"))
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent call failed: %v", err)
		}
	}

	writes := env.fake.Writes()
	if len(writes) != 20 {
		t.Fatalf("writes = %d, want 20", len(writes))
	}
	for _, w := range writes {
		if w != "GETD\r" && w != "CURR015\r" {
			t.Errorf("unexpected write %q", w)
		}
	}
}

func TestPollDisplayStatusSkipsOperationLog(t *testing.T) {
	env := newTestEnv(t)
	display, unsubscribe := env.bus.Subscribe(model.EventDisplayStatus)
	defer unsubscribe()

	if _, err := env.psu.PollDisplayStatus(context.Background()); err != nil {
		t.Fatalf("PollDisplayStatus: %v", err)
	}

	if ops := env.operations(t); len(ops) != 0 {
		t.Errorf("poll recorded %d operations", len(ops))
	}
	if got := testutil.ToFloat64(env.metrics.DisplayVoltage); got != 5 {
		t.Errorf("voltage gauge = %v", got)
	}
	if event := receive(t, display); event.Data["voltage"] != "5.00" {
		t.Errorf("display event = %v", event.Data)
	}
}

func TestCloseMarksDeviceOffline(t *testing.T) {
	env := newTestEnv(t)

	if err := env.psu.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if env.fake.CloseCount() != 1 {
		t.Errorf("transport closed %d times", env.fake.CloseCount())
	}
	if got := env.psu.GetDevice().Status; got != model.DeviceStatusOffline {
		t.Errorf("device status = %s", got)
	}

	err := env.psu.SetVoltage(context.Background(), decimal.NewFromInt(1))
	if err == nil || !strings.Contains(err.Error(), "closed") {
		t.Errorf("expected closed transport error, got %v", err)
	}
}

type countingTransport struct {
	*protocoltest.FakeTransport
	stats protocol.ProtocolStats
}

func (c countingTransport) GetStats() protocol.ProtocolStats {
	return c.stats
}

func TestGetDeviceReportsLinkStats(t *testing.T) {
	env := newTestEnv(t)
	if link := env.psu.GetDevice().Link; link != nil {
		t.Errorf("expected no link stats from a bare transport, got %+v", link)
	}

	lastActivity := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	transport := countingTransport{
		FakeTransport: protocoltest.New(),
		stats: protocol.ProtocolStats{
			BytesWritten:   15,
			BytesRead:      26,
			OperationCount: 3,
			ErrorCount:     1,
			LastActivity:   lastActivity,
			AverageLatency: 2 * time.Millisecond,
			IsConnected:    true,
		},
	}
	drv := bk168x.New(transport, bk168x.WithDeviceInfo("1687B", "/dev/ttyUSB0"))
	psu := NewPowerSupplyService(drv, env.repo, env.bus, monitor.NewMetrics(), zap.NewNop())

	link := psu.GetDevice().Link
	if link == nil {
		t.Fatal("expected link stats")
	}
	if link.BytesWritten != 15 || link.BytesRead != 26 || link.Writes != 3 || link.Errors != 1 {
		t.Errorf("unexpected counters: %+v", link)
	}
	if link.AverageLatencyMs != 2 || !link.Connected {
		t.Errorf("unexpected latency or state: %+v", link)
	}
	if link.LastActivity == nil || !link.LastActivity.Equal(lastActivity) {
		t.Errorf("last activity = %v", link.LastActivity)
	}
}
