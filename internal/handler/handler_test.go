package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"psu-service/internal/config"
	"psu-service/internal/discovery"
	"psu-service/internal/driver/bk168x"
	"psu-service/internal/events"
	"psu-service/internal/middleware"
	"psu-service/internal/monitor"
	"psu-service/internal/protocol/protocoltest"
	"psu-service/internal/repository"
	"psu-service/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// idleSupply answers like a 1687B at 5 V / 1 A in CV
func idleSupply(command string) string {
	switch command {
	case "GETD":
		return "0500010000OK\r"
	case "GETS":
		return "0500100OK\r"
	case "GOVP", "GOCP":
		return "1800OK\r"
	case "GMAX":
		return "1800500OK\r"
	case "GETM":
		return "0500101200201500300OK\r"
	default:
		return "OK\r"
	}
}

type stubScanner struct {
	kind    string
	devices []*discovery.DiscoveredDevice
}

func (s *stubScanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	return s.devices, nil
}
func (s *stubScanner) GetScannerType() string { return s.kind }
func (s *stubScanner) IsAvailable() bool      { return true }

type testServer struct {
	engine *gin.Engine
	fake   *protocoltest.FakeTransport
	psu    *service.PowerSupplyService
	repo   repository.OperationRepository
}

func newTestServer(t *testing.T, db HealthChecker) *testServer {
	t.Helper()

	fake := protocoltest.New()
	fake.Respond = idleSupply
	drv := bk168x.New(fake,
		bk168x.WithTiming(time.Millisecond, 5*time.Millisecond),
		bk168x.WithDeviceInfo("1687B", "/dev/ttyUSB0"),
	)

	logger := zap.NewNop()
	repo := repository.NewMemoryOperationRepository(100, logger)
	bus := events.NewEventBus(logger)
	psu := service.NewPowerSupplyService(drv, repo, bus, monitor.NewMetrics(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go bus.Start(ctx)

	cfg := &config.Config{App: config.AppConfig{Name: "psu-service", Version: "test"}}

	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware())
	NewHealthHandler(psu, db, cfg, logger).RegisterRoutes(&engine.RouterGroup)

	api := engine.Group("/api/v1")
	NewPSUHandler(psu, logger).RegisterRoutes(api)
	NewOperationHandler(service.NewOperationService(repo, logger), logger).RegisterRoutes(api)
	NewDiscoveryHandler(service.NewDiscoveryService(logger,
		&stubScanner{kind: "serial", devices: []*discovery.DiscoveredDevice{{ScannerType: "serial", Port: "/dev/ttyUSB0"}}},
		&stubScanner{kind: "usb", devices: []*discovery.DiscoveredDevice{{ScannerType: "usb", VendorID: "10C4"}}},
	), logger).RegisterRoutes(api)

	return &testServer{engine: engine, fake: fake, psu: psu, repo: repo}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, resp
}

func decodeData(t *testing.T, resp apiResponse, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(resp.Data, out); err != nil {
		t.Fatalf("decode data %s: %v", resp.Data, err)
	}
}

func rawJSON(s string) json.RawMessage {
	return json.RawMessage(s)
}

func getJSON(t *testing.T, engine http.Handler, path string, out interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("GET %s: decode %q: %v", path, rec.Body.String(), err)
	}
	return rec.Code
}
