package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aquawatch/aquawatch/internal/logging"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	// initialBackoff / maxBackoff bound the reconnect delay so an
	// unreachable broker is retried without hot-looping.
	initialBackoff = 1 * time.Second
	maxBackoff     = 60 * time.Second

	disconnectQuiesceMs = 250
)

// Ingester owns the background MQTT subscription. It is explicitly
// started and stopped by the composition root, never as a side effect of
// first use.
type Ingester struct {
	brokerURL string
	topic     string
	buffer    *Buffer
	logger    logging.Logger

	// newClient is a seam for tests; defaults to mqtt.NewClient.
	newClient func(*mqtt.ClientOptions) mqtt.Client

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewIngester(brokerURL, topic string, buffer *Buffer, logger logging.Logger) *Ingester {
	return &Ingester{
		brokerURL: brokerURL,
		topic:     topic,
		buffer:    buffer,
		logger:    logger.With("module", "telemetry_ingester"),
		newClient: mqtt.NewClient,
	}
}

// Start launches the subscription loop. It runs until the context is
// cancelled or Stop is called.
func (i *Ingester) Start(ctx context.Context) error {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return fmt.Errorf("telemetry: ingester is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	i.cancel = cancel
	i.running = true
	i.done = make(chan struct{})
	i.mu.Unlock()

	go i.run(ctx)
	return nil
}

// Stop shuts the subscription down and waits for the loop to exit.
func (i *Ingester) Stop() {
	i.mu.Lock()
	if !i.running {
		i.mu.Unlock()
		return
	}
	i.running = false
	cancel, done := i.cancel, i.done
	i.mu.Unlock()

	cancel()
	<-done
}

func (i *Ingester) run(ctx context.Context) {
	defer close(i.done)

	opts := mqtt.NewClientOptions().
		AddBroker(i.brokerURL).
		SetClientID("aquawatch-" + uuid.NewString()).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(maxBackoff).
		SetResumeSubs(true).
		SetOnConnectHandler(func(c mqtt.Client) {
			i.logger.Info(ctx, "connected to broker", "broker", i.brokerURL)
			if token := c.Subscribe(i.topic, 0, i.handleMessage); token.Wait() && token.Error() != nil {
				i.logger.Error(ctx, "subscribe failed", "topic", i.topic, "error", token.Error())
			} else {
				i.logger.Info(ctx, "subscribed", "topic", i.topic)
			}
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			i.logger.Warn(ctx, "broker connection lost, reconnecting", "error", err)
		})

	client := i.newClient(opts)

	// Initial connect with capped exponential backoff. Once connected,
	// the client's auto-reconnect takes over for later disconnects.
	backoff := initialBackoff
	for {
		token := client.Connect()
		token.Wait()
		if token.Error() == nil {
			break
		}

		i.logger.Warn(ctx, "broker connect failed, retrying",
			"broker", i.brokerURL, "backoff", backoff.String(), "error", token.Error())

		select {
		case <-ctx.Done():
			i.logger.Info(ctx, "ingester stopped before broker became reachable")
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	<-ctx.Done()
	client.Disconnect(disconnectQuiesceMs)
	i.logger.Info(ctx, "ingester stopped")
}

// handleMessage decodes one sensor payload. A malformed message is logged
// and dropped; it must never terminate the subscription.
func (i *Ingester) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	ctx := context.Background()

	var payload map[string]any
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		i.logger.Warn(ctx, "discarding malformed telemetry message",
			"topic", msg.Topic(), "size", len(msg.Payload()), "error", err)
		return
	}

	obs := Observation{ReceivedAt: time.Now(), Payload: payload}
	i.buffer.Append(obs)

	i.logger.Debug(ctx, "telemetry received", "topic", msg.Topic(), "fields", len(payload))
}
