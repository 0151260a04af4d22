package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremon "github.com/MelomanCat/getaround-project/core/monitoring"
	coremqtt "github.com/MelomanCat/getaround-project/core/mqtt"
	"github.com/MelomanCat/getaround-project/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client. An
// empty Broker disables notifications.
type Config struct {
	Broker     string      `json:"broker"`
	ClientID   string      `json:"client_id"`
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	Topic      string      `json:"topic"`
	QoS        byte        `json:"qos"`
	UseTLS     bool        `json:"use_tls"`
	ClientCert string      `json:"client_cert"`
	ClientKey  string      `json:"client_key"`
	CABundle   string      `json:"ca_bundle"`
	AuthMethod string      `json:"auth_method"`
	LWTTopic   string      `json:"lwt_topic"`
	LWTPayload string      `json:"lwt_payload"`
	LWTQoS     byte        `json:"lwt_qos"`
	LWTRetain  bool        `json:"lwt_retain"`
	MaxRetries int         `json:"max_retries"`
	BackoffMS  int         `json:"backoff_ms"`
	TLSConfig  *tls.Config `json:"-"`
}

// SetDefaults fills the topic, client id and retry policy.
func (c *Config) SetDefaults() {
	if c.Topic == "" {
		c.Topic = coremqtt.DefaultModelTopic
	}
	if c.ClientID == "" {
		c.ClientID = "getaround-" + uuid.NewString()[:8]
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the QoS levels.
func (c Config) Validate() error {
	if c.QoS > 2 || c.LWTQoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	return nil
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient publishes and receives model registrations over MQTT.
type PahoClient struct {
	cli     pahoClient
	topic   string
	qos     byte
	retries int
	backoff time.Duration
	logger  logger.Logger

	mu       sync.Mutex
	handlers []coremqtt.Handler
}

var (
	_ coremqtt.Notifier   = (*PahoClient)(nil)
	_ coremqtt.Subscriber = (*PahoClient)(nil)
)

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker. Subscriptions are renewed on
// every reconnect.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		retries: cfg.MaxRetries,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:  log,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		pc.mu.Lock()
		subscribed := len(pc.handlers) > 0
		pc.mu.Unlock()
		if subscribed {
			pc.subscribe(c)
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	pc.cli = c
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

func (p *PahoClient) subscribe(c pahoClient) {
	if token := c.Subscribe(p.topic, p.qos, p.onMessage); token.Wait() && token.Error() != nil {
		p.logger.Errorf("subscribe error: %v", token.Error())
	}
}

func (p *PahoClient) onMessage(_ paho.Client, msg paho.Message) {
	var ev coremqtt.ModelRegistered
	if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
		p.logger.Errorf("failed to decode notification: %v", err)
		return
	}
	p.logger.Infof("model %s version %d registered", ev.Name, ev.Version)
	p.mu.Lock()
	handlers := append([]coremqtt.Handler(nil), p.handlers...)
	p.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

// SubscribeModelRegistered registers h for incoming notifications.
func (p *PahoClient) SubscribeModelRegistered(h coremqtt.Handler) error {
	p.mu.Lock()
	first := len(p.handlers) == 0
	p.handlers = append(p.handlers, h)
	p.mu.Unlock()
	if !first {
		return nil
	}
	if !p.cli.IsConnected() {
		return nil
	}
	token := p.cli.Subscribe(p.topic, p.qos, p.onMessage)
	token.Wait()
	return token.Error()
}

// PublishModelRegistered sends ev, retrying with exponential backoff.
func (p *PahoClient) PublishModelRegistered(ctx context.Context, ev coremqtt.ModelRegistered) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	var publishErr error
retry:
	for attempt := 0; attempt <= p.retries; attempt++ {
		if p.cli.IsConnected() {
			token := p.cli.Publish(p.topic, p.qos, false, payload)
			token.Wait()
			publishErr = token.Error()
		} else {
			publishErr = coremqtt.ErrNotConnected
		}
		if publishErr == nil {
			p.logger.Infof("announced %s version %d on %s", ev.Name, ev.Version, p.topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == p.retries {
			break
		}
		select {
		case <-ctx.Done():
			publishErr = ctx.Err()
			break retry
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	coremon.CaptureException(publishErr, map[string]string{
		"module":  "mqtt",
		"model":   ev.Name,
		"version": fmt.Sprint(ev.Version),
	})
	return fmt.Errorf("publish model registration: %w", publishErr)
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
