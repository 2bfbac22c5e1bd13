// Package broker owns the MQTT connection shared by the remote command
// source and the telemetry sink.
package broker

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"vermicompost_monitor/internal/logger"
)

type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// RetryInterval spaces connect attempts while the broker is unreachable.
	RetryInterval time.Duration
	// ConnectWait bounds how long NewClient blocks on the first attempt.
	ConnectWait time.Duration
}

const (
	defaultRetryInterval = 10 * time.Second
	defaultConnectWait   = 3 * time.Second
)

// Client wraps a paho client and fans connection events out to the
// components that need them.
type Client struct {
	mqtt.Client
	log *logger.Logger

	mu     sync.Mutex
	onLost []func(error)
	onUp   []func()
}

// NewClient starts connecting to the broker and returns without waiting for
// it to be reachable: paho keeps retrying the first connect and later
// reconnects. Subscriptions are restored by their owners. An error is
// returned only when the first attempt fails for good within ConnectWait.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	c := &Client{log: logger.OrNop(log)}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	if cfg.ConnectWait <= 0 {
		cfg.ConnectWait = defaultConnectWait
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(cfg.RetryInterval)
	opts.SetCleanSession(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) { c.connected() })
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) { c.lost(err) })

	c.Client = mqtt.NewClient(opts)
	tok := c.Client.Connect()
	if !tok.WaitTimeout(cfg.ConnectWait) {
		c.log.Warnw("mqtt_connect_pending", "broker", cfg.Broker, "retry_every", cfg.RetryInterval)
		return c, nil
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, err)
	}
	c.log.Infow("mqtt_connected", "broker", cfg.Broker, "client_id", cfg.ClientID)
	return c, nil
}

// OnConnectionLost registers fn to run when the connection drops.
func (c *Client) OnConnectionLost(fn func(error)) {
	c.mu.Lock()
	c.onLost = append(c.onLost, fn)
	c.mu.Unlock()
}

// OnConnect registers fn to run after every (re)connect.
func (c *Client) OnConnect(fn func()) {
	c.mu.Lock()
	c.onUp = append(c.onUp, fn)
	c.mu.Unlock()
}

func (c *Client) connected() {
	c.log.Debugw("mqtt_connection_up")
	c.mu.Lock()
	fns := append([]func(){}, c.onUp...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *Client) lost(err error) {
	c.log.Warnw("mqtt_connection_lost", "err", err)
	c.mu.Lock()
	fns := append([]func(error){}, c.onLost...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}

// Close disconnects, allowing 250ms for in-flight work.
func (c *Client) Close() {
	c.Client.Disconnect(250)
	c.log.Infow("mqtt_disconnected")
}
