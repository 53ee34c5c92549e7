package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"psu-service/internal/driver/bk168x"
	"psu-service/internal/events"
	"psu-service/internal/monitor"
	"psu-service/internal/protocol/protocoltest"
	"psu-service/internal/repository"
	"psu-service/internal/service"
)

func TestConnectionManager(t *testing.T) {
	cm := NewConnectionManager()
	status := &Client{ID: "a", Type: clientTypeStatus, Send: make(chan []byte, 1)}
	eventsClient := &Client{ID: "b", Type: clientTypeEvents, Send: make(chan []byte, 1)}
	cm.Register(status)
	cm.Register(eventsClient)

	stats := cm.GetStats()
	if stats.TotalConnections != 2 || stats.ByType[clientTypeStatus] != 1 {
		t.Errorf("stats = %+v", stats)
	}

	dropped := cm.Broadcast([]byte("x"), func(c *Client) bool { return c.Type == clientTypeEvents })
	if dropped != 0 || len(eventsClient.Send) != 1 || len(status.Send) != 0 {
		t.Errorf("broadcast should reach only the events client")
	}

	// the buffer of one is full now
	if dropped := cm.Broadcast([]byte("y"), func(*Client) bool { return true }); dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}

	cm.Unregister(status)
	cm.Unregister(status)
	if msg := <-status.Send; string(msg) != "y" {
		t.Errorf("queued message = %q", msg)
	}
	if _, open := <-status.Send; open {
		t.Error("send channel should be closed after Unregister")
	}
	if cm.Send(status, []byte("z")) {
		t.Error("Send to an unregistered client should fail")
	}
}

func TestClientSubscriptions(t *testing.T) {
	c := &Client{}
	if !c.Wants("OPERATION_COMPLETED") {
		t.Error("a client without subscriptions wants everything")
	}

	c.Subscribe("DISPLAY_STATUS")
	if c.Wants("OPERATION_COMPLETED") || !c.Wants("DISPLAY_STATUS") {
		t.Error("subscription should filter topics")
	}

	c.Unsubscribe("DISPLAY_STATUS")
	if !c.Wants("OPERATION_COMPLETED") {
		t.Error("dropping the last subscription restores everything")
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://panel.local"})

	req := httptest.NewRequest(http.MethodGet, "/ws/status", nil)
	if !check(req) {
		t.Error("requests without an origin are allowed")
	}
	req.Header.Set("Origin", "http://panel.local")
	if !check(req) {
		t.Error("listed origin should be allowed")
	}
	req.Header.Set("Origin", "http://evil.example")
	if check(req) {
		t.Error("unlisted origin should be refused")
	}

	req.Header.Set("Origin", "http://anything")
	if !originChecker([]string{"*"})(req) {
		t.Error("wildcard should allow any origin")
	}
}

func newWebSocketServer(t *testing.T) (*httptest.Server, *service.PowerSupplyService) {
	t.Helper()

	fake := protocoltest.New()
	fake.Respond = idleSupply
	drv := bk168x.New(fake, bk168x.WithTiming(time.Millisecond, 5*time.Millisecond))

	logger := zap.NewNop()
	bus := events.NewEventBus(logger)
	psu := service.NewPowerSupplyService(drv, repository.NewMemoryOperationRepository(10, logger), bus, monitor.NewMetrics(), logger)

	ws := NewWebSocketHandler(psu, bus, []string{"*"}, logger)
	engine := gin.New()
	ws.RegisterRoutes(engine.Group("/ws"))

	ctx, cancel := context.WithCancel(context.Background())
	go bus.Start(ctx)
	go ws.Start(ctx)

	server := httptest.NewServer(engine)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return server, psu
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) (*WebSocketMessage, error) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(timeout))
	var msg WebSocketMessage
	err := conn.ReadJSON(&msg)
	return &msg, err
}

func TestStatusStream(t *testing.T) {
	server, psu := newWebSocketServer(t)
	conn := dial(t, server, "/ws/status")

	msg, err := readMessage(t, conn, time.Second)
	if err != nil || msg.Type != "initial_status" {
		t.Fatalf("first message = %+v, %v", msg, err)
	}

	received := make(chan *WebSocketMessage, 1)
	go func() {
		msg, err := readMessage(t, conn, 3*time.Second)
		if err == nil {
			received <- msg
		}
		close(received)
	}()

	// the forwarder subscribes asynchronously, so keep reading until one arrives
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-received:
			if !ok {
				t.Fatal("no display_status message received")
			}
			if msg.Type != "display_status" {
				t.Fatalf("status clients only get readings, got %s", msg.Type)
			}
			data, _ := msg.Data.(map[string]interface{})
			if data["voltage"] != "5.00" || data["mode"] != "CV" {
				t.Errorf("reading = %v", msg.Data)
			}
			return
		case <-ticker.C:
			if _, err := psu.GetDisplayStatus(context.Background()); err != nil {
				t.Errorf("GetDisplayStatus: %v", err)
				return
			}
		}
	}
}

func TestEventStreamCommands(t *testing.T) {
	server, _ := newWebSocketServer(t)
	conn := dial(t, server, "/ws/events")

	if err := conn.WriteJSON(WebSocketMessage{Type: "ping", RequestID: "r1"}); err != nil {
		t.Fatal(err)
	}
	msg, err := readMessage(t, conn, time.Second)
	if err != nil || msg.Type != "pong" || msg.RequestID != "r1" {
		t.Fatalf("ping reply = %+v, %v", msg, err)
	}

	conn.WriteJSON(WebSocketMessage{Type: "subscribe", Data: map[string]interface{}{"topic": "OPERATION_FAILED"}})
	msg, err = readMessage(t, conn, time.Second)
	if err != nil || msg.Type != "subscribed" {
		t.Fatalf("subscribe reply = %+v, %v", msg, err)
	}

	conn.WriteJSON(WebSocketMessage{Type: "subscribe"})
	msg, _ = readMessage(t, conn, time.Second)
	if msg.Type != "error" {
		t.Errorf("subscribe without topic = %+v", msg)
	}

	conn.WriteJSON(WebSocketMessage{Type: "refresh", RequestID: "r2"})
	for i := 0; i < 5; i++ {
		msg, err = readMessage(t, conn, time.Second)
		if err != nil {
			t.Fatalf("refresh reply: %v", err)
		}
		// only the direct reply matters; bus events may be filtered out
		if msg.RequestID == "r2" {
			break
		}
	}
	if msg.Type != "display_status" || msg.RequestID != "r2" {
		t.Errorf("refresh reply = %+v", msg)
	}

	conn.WriteJSON(WebSocketMessage{Type: "reboot"})
	msg, _ = readMessage(t, conn, time.Second)
	if msg.Type != "error" {
		t.Errorf("unknown command reply = %+v", msg)
	}
}
