// internal/telemetry/mqtt_publisher.go
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"psu-service/internal/config"
	"psu-service/internal/events"
	"psu-service/internal/model"
)

const (
	availabilityOnline  = "online"
	availabilityOffline = "offline"
)

// Publisher mirrors display readings and link state to an MQTT broker.
// Readings are retained so late subscribers see the last value at once.
type Publisher struct {
	client  paho.Client
	bus     *events.EventBus
	cfg     config.MQTTConfig
	timeout time.Duration
	logger  *zap.Logger
}

// DisplayMessage is the payload of the display topic
type DisplayMessage struct {
	Voltage   string    `json:"voltage"`
	Current   string    `json:"current"`
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPublisher creates a publisher with a broker connection that marks the
// service offline through its last will.
func NewPublisher(cfg config.MQTTConfig, bus *events.EventBus, logger *zap.Logger) *Publisher {
	p := newPublisher(nil, cfg, bus, logger)

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetWill(p.AvailabilityTopic(), availabilityOffline, cfg.QoS, true)

	opts.SetOnConnectHandler(func(client paho.Client) {
		p.logger.Info("Connected to MQTT broker", zap.String("broker", cfg.Broker))
		if err := p.publish(client, p.AvailabilityTopic(), availabilityOnline); err != nil {
			p.logger.Warn("Failed to publish availability", zap.Error(err))
		}
	})
	opts.SetConnectionLostHandler(func(client paho.Client, err error) {
		p.logger.Error("MQTT connection lost", zap.Error(err))
	})

	p.client = paho.NewClient(opts)
	return p
}

func newPublisher(client paho.Client, cfg config.MQTTConfig, bus *events.EventBus, logger *zap.Logger) *Publisher {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Publisher{
		client:  client,
		bus:     bus,
		cfg:     cfg,
		timeout: timeout,
		logger:  logger.With(zap.String("component", "mqtt_publisher")),
	}
}

// AvailabilityTopic carries "online" or "offline"
func (p *Publisher) AvailabilityTopic() string {
	return p.cfg.TopicPrefix + "/availability"
}

// DisplayTopic carries the latest display reading
func (p *Publisher) DisplayTopic() string {
	return p.cfg.TopicPrefix + "/display"
}

// StatusTopic carries the link state of the supply
func (p *Publisher) StatusTopic() string {
	return p.cfg.TopicPrefix + "/status"
}

// Connect connects to the broker. Reconnects are handled by the client.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("mqtt connect cancelled: %w", ctx.Err())
	case <-time.After(p.timeout):
		return fmt.Errorf("mqtt connect to %s timed out after %s", p.cfg.Broker, p.timeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s failed: %w", p.cfg.Broker, err)
	}
	return nil
}

// Run forwards display and status events until ctx is done
func (p *Publisher) Run(ctx context.Context) {
	display, unsubscribeDisplay := p.bus.Subscribe(model.EventDisplayStatus)
	defer unsubscribeDisplay()
	status, unsubscribeStatus := p.bus.Subscribe(model.EventDeviceStatusChange)
	defer unsubscribeStatus()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-display:
			if !ok {
				return
			}
			p.handleDisplay(event)
		case event, ok := <-status:
			if !ok {
				return
			}
			p.handleStatus(event)
		}
	}
}

// Disconnect announces the service offline and closes the connection
func (p *Publisher) Disconnect() {
	if !p.client.IsConnected() {
		return
	}
	if err := p.publish(p.client, p.AvailabilityTopic(), availabilityOffline); err != nil {
		p.logger.Warn("Failed to publish availability", zap.Error(err))
	}
	p.client.Disconnect(250)
}

func (p *Publisher) handleDisplay(event *model.DeviceEvent) {
	message := DisplayMessage{
		Voltage:   stringField(event.Data, "voltage"),
		Current:   stringField(event.Data, "current"),
		Mode:      stringField(event.Data, "mode"),
		Timestamp: event.Timestamp,
	}

	payload, err := json.Marshal(message)
	if err != nil {
		p.logger.Error("Failed to encode display reading", zap.Error(err))
		return
	}
	if err := p.publish(p.client, p.DisplayTopic(), payload); err != nil {
		p.logger.Warn("Failed to publish display reading", zap.Error(err))
	}
}

func (p *Publisher) handleStatus(event *model.DeviceEvent) {
	status := stringField(event.Data, "status")
	if status == "" {
		return
	}
	if err := p.publish(p.client, p.StatusTopic(), status); err != nil {
		p.logger.Warn("Failed to publish device status", zap.Error(err))
	}
}

func (p *Publisher) publish(client paho.Client, topic string, payload interface{}) error {
	token := client.Publish(topic, p.cfg.QoS, true, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

func stringField(data model.JSONObject, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
