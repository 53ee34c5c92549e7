// internal/events/event_bus.go
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"psu-service/internal/model"
)

// AllEvents subscribes to every event type
const AllEvents model.EventType = "*"

// EventBus manages event distribution
type EventBus struct {
	subscribers map[model.EventType][]chan *model.DeviceEvent
	events      chan *model.DeviceEvent
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		subscribers: make(map[model.EventType][]chan *model.DeviceEvent),
		events:      make(chan *model.DeviceEvent, 1000),
		logger:      logger,
	}
}

// Start distributes events until ctx is done
func (eb *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eb.events:
			eb.distributeEvent(event)
		}
	}
}

// Publish queues an event. Events are dropped when the bus is full.
func (eb *EventBus) Publish(event *model.DeviceEvent) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.EventType)),
		)
	}
}

// Subscribe subscribes to events of a specific type, or AllEvents.
// The returned function removes the subscription.
func (eb *EventBus) Subscribe(eventType model.EventType) (<-chan *model.DeviceEvent, func()) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan *model.DeviceEvent, 100)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			eb.mutex.Lock()
			defer eb.mutex.Unlock()

			subs := eb.subscribers[eventType]
			for i, s := range subs {
				if s == subscriber {
					eb.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			close(subscriber)
		})
	}

	return subscriber, unsubscribe
}

// distributeEvent distributes an event to subscribers. Slow subscribers
// miss events rather than block the bus.
func (eb *EventBus) distributeEvent(event *model.DeviceEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for _, key := range []model.EventType{event.EventType, AllEvents} {
		for _, subscriber := range eb.subscribers[key] {
			select {
			case subscriber <- event:
			default:
				eb.logger.Debug("Subscriber is slow, skipping event",
					zap.String("event_type", string(event.EventType)),
				)
			}
		}
	}
}
