package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

const (
	qos    = 1
	retain = false

	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
	maxBackoff     = 10 * time.Second

	DefaultRetries     = 10
	DefaultBackoffBase = 1.5
)

// Config describes the broker session. Username/Password authenticate
// directly; when PrivateKeyPath is set a signed JWT is used as the password
// instead (IoT-core style brokers).
type Config struct {
	BrokerURL string
	DeviceID  string

	Username string
	Password string

	TLSEnabled bool
	CACertPath string

	PrivateKeyPath string
	Algorithm      string
	TokenAudience  string

	Retries     int
	BackoffBase float64

	// Verbose enables the paho client's internal debug logging.
	Verbose bool
}

// Topics holds the per-device topic strings.
type Topics struct {
	Command   string
	Obstacles string
	Status    string
	Telemetry string
	Servo     string
}

func TopicsFor(deviceID string) Topics {
	return Topics{
		Command:   fmt.Sprintf("drone/%s/mission/command", deviceID),
		Obstacles: fmt.Sprintf("drone/%s/obstacles", deviceID),
		Status:    fmt.Sprintf("drone/%s/mission/status", deviceID),
		Telemetry: fmt.Sprintf("drone/%s/telemetry", deviceID),
		Servo:     fmt.Sprintf("drone/%s/servo/command", deviceID),
	}
}

// MessageHandler receives raw inbound payloads on the paho network
// goroutine. Handlers must not block; they enqueue for the tick loop.
type MessageHandler func(payload []byte)

// Connection is an established broker session.
type Connection struct {
	client mqtt.Client
	topics Topics
}

// Connect dials the broker with exponential backoff and wires the command
// and obstacle subscriptions. Subscriptions are installed from the connect
// handler so they are re-established on every reconnect.
func Connect(ctx context.Context, cfg Config, onCommand, onObstacle MessageHandler) (*Connection, error) {
	if cfg.Verbose {
		mqtt.DEBUG = log.New(os.Stdout, "[mqtt] ", log.LstdFlags)
	}

	topics := TopicsFor(cfg.DeviceID)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(fmt.Sprintf("mission-runner-%s", cfg.DeviceID)).
		SetKeepAlive(30 * time.Second).
		SetAutoReconnect(true).
		SetProtocolVersion(4) // MQTT 3.1.1

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.PrivateKeyPath != "" {
		pass, err := tokenPassword(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "token auth")
		}
		opts.SetUsername("unused")
		opts.SetPassword(pass)
	}
	if cfg.TLSEnabled {
		tlsConfig, err := newTLSConfig(cfg.CACertPath)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsConfig)
	}

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Printf("Connected to MQTT broker %s", cfg.BrokerURL)
		subscribe(client, topics.Command, onCommand)
		subscribe(client, topics.Obstacles, onObstacle)
		log.Printf("Subscribed to topics: %s, %s", topics.Command, topics.Obstacles)
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("Connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if err := connectWithRetry(ctx, client, cfg); err != nil {
		return nil, err
	}

	return &Connection{client: client, topics: topics}, nil
}

func connectWithRetry(ctx context.Context, client mqtt.Client, cfg Config) error {
	retries := cfg.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}
	base := cfg.BackoffBase
	if base <= 0 {
		base = DefaultBackoffBase
	}

	attempt := 0
	for {
		log.Printf("Connecting MQTT...")
		err := waitToken(client.Connect(), connectTimeout)
		if err == nil {
			return nil
		}

		attempt++
		if attempt > retries {
			return errors.Wrapf(err, "could not connect to MQTT after %d attempts", retries)
		}
		delay := backoffDelay(base, attempt)
		log.Printf("MQTT connect failed (%v). Retry %d/%d in %.1fs", err, attempt, retries, delay.Seconds())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// backoffDelay is base^attempt seconds, capped at 10s. The cap is applied
// in float seconds: large attempts overflow time.Duration to a negative
// value if converted first.
func backoffDelay(base float64, attempt int) time.Duration {
	secs := math.Pow(base, float64(attempt))
	if secs > maxBackoff.Seconds() {
		return maxBackoff
	}
	return time.Duration(secs * float64(time.Second))
}

func subscribe(client mqtt.Client, topic string, handler MessageHandler) {
	token := client.Subscribe(topic, qos, func(client mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	if err := waitToken(token, connectTimeout); err != nil {
		log.Printf("Failed to subscribe %s: %v", topic, err)
	}
}

func waitToken(token mqtt.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return errors.New("timeout")
	}
	return token.Error()
}

// Publish sends a payload at QoS 1 with a bounded wait. Failures are
// reported to the caller, which logs and carries on.
func (c *Connection) Publish(topic string, payload []byte) error {
	return waitToken(c.client.Publish(topic, qos, retain, payload), publishTimeout)
}

// Topics returns the per-device topic strings of this session.
func (c *Connection) Topics() Topics { return c.topics }

// Close disconnects, allowing in-flight messages a short grace period.
func (c *Connection) Close() {
	c.client.Disconnect(1000)
}

func newTLSConfig(caCertPath string) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if caCertPath != "" {
		pem, err := os.ReadFile(caCertPath)
		if err != nil {
			return nil, errors.Wrap(err, "read CA cert")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.Errorf("no certificates found in %s", caCertPath)
		}
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}
