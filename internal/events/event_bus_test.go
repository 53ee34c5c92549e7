package events

import (
	"context"
	"testing"
	"time"

	"psu-service/internal/model"
)

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

func TestEventBusDeliversByType(t *testing.T) {
	bus := NewEventBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Start(ctx)

	display, unsubDisplay := bus.Subscribe(model.EventDisplayStatus)
	defer unsubDisplay()
	all, unsubAll := bus.Subscribe(AllEvents)
	defer unsubAll()

	bus.Publish(model.NewDeviceEvent(model.EventOperationCompleted, "test", "INFO", nil))
	bus.Publish(model.NewDeviceEvent(model.EventDisplayStatus, "test", "INFO", model.JSONObject{"voltage": "5.00"}))

	if got := receive(t, all).EventType; got != model.EventOperationCompleted {
		t.Errorf("first event on AllEvents = %s", got)
	}
	if got := receive(t, all).EventType; got != model.EventDisplayStatus {
		t.Errorf("second event on AllEvents = %s", got)
	}

	event := receive(t, display)
	if event.EventType != model.EventDisplayStatus {
		t.Fatalf("display subscriber got %s", event.EventType)
	}
	if event.Data["voltage"] != "5.00" {
		t.Errorf("voltage = %v", event.Data["voltage"])
	}

	select {
	case extra := <-display:
		t.Errorf("display subscriber got unexpected %s", extra.EventType)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus(nil)

	ch, unsubscribe := bus.Subscribe(model.EventDisplayStatus)
	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("channel still open after unsubscribe")
	}

	// distributing after unsubscribe must not panic on the closed channel
	bus.distributeEvent(model.NewDeviceEvent(model.EventDisplayStatus, "test", "INFO", nil))
}
