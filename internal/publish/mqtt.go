// Package publish mirrors the supervisor state onto an MQTT topic.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"traffic_supervisor/internal/logger"
	"traffic_supervisor/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	publishQoS      = 1
	publishTimeout  = 5 * time.Second
	disconnectQuiet = 250 // ms
)

var errPublishTimeout = errors.New("mqtt publish timed out")

// Broker delivers one retained message.
type Broker interface {
	Publish(topic string, payload []byte) error
	Close()
}

// Options configure the paho connection.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

type pahoBroker struct {
	client mqtt.Client
}

// Dial connects to the broker. An empty client id gets a random one so
// several supervisors can share a broker.
func Dial(opts Options, log *logger.Logger) (Broker, error) {
	log = logger.OrNop(log)

	clientID := strings.TrimSpace(opts.ClientID)
	if clientID == "" {
		clientID = "traffic-supervisor-" + uuid.NewString()
	}

	o := mqtt.NewClientOptions()
	o.AddBroker(opts.Broker)
	o.SetClientID(clientID)
	o.SetUsername(opts.Username)
	o.SetPassword(opts.Password)
	o.SetAutoReconnect(true)
	o.SetConnectRetry(true)
	o.SetOnConnectHandler(func(mqtt.Client) {
		log.Infow("mqtt_connected", "broker", opts.Broker, "client_id", clientID)
	})
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "err", err)
	})

	client := mqtt.NewClient(o)
	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		// ConnectRetry keeps trying in the background.
		log.Warnw("mqtt_connect_pending", "broker", opts.Broker)
		return &pahoBroker{client: client}, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect mqtt %s: %w", opts.Broker, err)
	}
	return &pahoBroker{client: client}, nil
}

func (b *pahoBroker) Publish(topic string, payload []byte) error {
	token := b.client.Publish(topic, publishQoS, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errPublishTimeout
	}
	return token.Error()
}

func (b *pahoBroker) Close() {
	b.client.Disconnect(disconnectQuiet)
}

// changeKey is the part of the state whose movement triggers a publish.
type changeKey struct {
	phase        models.Phase
	connectivity models.Connectivity
	running      bool
}

func keyOf(st models.SupervisorState) changeKey {
	return changeKey{phase: st.Phase, connectivity: st.Connectivity, running: st.Device.Running}
}

// StatePublisher forwards supervisor states to the broker when the phase,
// connectivity or running flag moves. Observe never blocks; only the latest
// pending state is kept.
type StatePublisher struct {
	broker Broker
	topic  string
	log    *logger.Logger

	mu      sync.Mutex
	last    *changeKey
	version uint64
	pending chan models.SupervisorState
}

func NewStatePublisher(broker Broker, topic string, log *logger.Logger) *StatePublisher {
	return &StatePublisher{
		broker:  broker,
		topic:   topic,
		log:     logger.OrNop(log),
		pending: make(chan models.SupervisorState, 1),
	}
}

// Observe is a state listener. It is called synchronously by the tracker.
func (p *StatePublisher) Observe(st models.SupervisorState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if st.Version != 0 && st.Version <= p.version {
		return
	}
	if st.Version != 0 {
		p.version = st.Version
	}

	k := keyOf(st)
	if p.last != nil && *p.last == k {
		return
	}
	p.last = &k

	// Replace whatever is still queued with the newer state.
	select {
	case <-p.pending:
	default:
	}
	p.pending <- st
}

// Run publishes queued states until ctx is done, then closes the broker.
func (p *StatePublisher) Run(ctx context.Context) {
	defer p.broker.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-p.pending:
			p.publish(st)
		}
	}
}

func (p *StatePublisher) publish(st models.SupervisorState) {
	payload, err := json.Marshal(st)
	if err != nil {
		p.log.Errorw("mqtt_marshal_failed", "err", err)
		return
	}
	if err := p.broker.Publish(p.topic, payload); err != nil {
		p.log.Warnw("mqtt_publish_failed", "topic", p.topic, "err", err)
		return
	}
	p.log.Debugw("mqtt_published", "topic", p.topic, "phase", st.Phase, "connectivity", st.Connectivity)
}
