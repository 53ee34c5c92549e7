package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"psu-service/internal/model"
)

func TestStatusMonitorPublishesDisplay(t *testing.T) {
	env := newTestEnv(t)
	display, unsubscribe := env.bus.Subscribe(model.EventDisplayStatus)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewStatusMonitor(env.psu, 10*time.Millisecond, zap.NewNop()).Run(ctx)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		event := receive(t, display)
		if event.Data["mode"] != "CV" {
			t.Errorf("display event = %v", event.Data)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}

	if got := testutil.ToFloat64(env.metrics.StatusPolls.WithLabelValues("success")); got < 2 {
		t.Errorf("successful polls = %v", got)
	}
}

func TestStatusMonitorCountsFailures(t *testing.T) {
	env := newTestEnv(t)
	env.fake.Respond = nil

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	monitor := NewStatusMonitor(env.psu, time.Hour, zap.NewNop())
	monitor.poll(ctx)

	if got := testutil.ToFloat64(env.metrics.StatusPolls.WithLabelValues("failure")); got != 1 {
		t.Errorf("failed polls = %v", got)
	}
	if got := env.psu.GetDevice().Status; got != model.DeviceStatusUnresponsive {
		t.Errorf("device status = %s", got)
	}
}
