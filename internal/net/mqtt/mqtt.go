// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mqtt implements the MQTT connectivity supervisor (spec §4.10):
// client lifecycle with TLS policy, retry/restart on start failure,
// subscription management, dim-on-disconnect/restore-on-connect, and a
// small publish-ack fence used by OTA success.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/evm100/ultranode/internal/motion"
	"github.com/evm100/ultranode/internal/ota"
)

const (
	retryDelay           = 5 * time.Second
	consecutiveFailLimit = 3
	ackFenceTimeout      = 2 * time.Second
)

// Config is the broker connection parameters (spec §4.10 step 4).
type Config struct {
	BrokerURI      string
	Username       string
	Password       string
	DialHost       string
	DialPort       int
	CACertFile     string
	SkipCNVerify   bool
	ExpectedCN     string
	ClientCertFile string
	ClientKeyFile  string
}

// HealthNotifier receives MQTT readiness transitions for the health
// monitor (spec §4.10's "notify health(...)").
type HealthNotifier interface {
	SetMQTTReady(bool)
}

// MessageHandler is the command dispatcher's entry point.
type MessageHandler interface {
	Handle(topic string, payload []byte) error
}

// Client is the process-wide MQTT singleton.
type Client struct {
	NodeID string
	Cfg    Config
	Health HealthNotifier
	Router MessageHandler
	Log    *zap.SugaredLogger

	// Dimmed lists every brightness-bearing slot, indexed consistently
	// with savedBrightness, used to dim-on-disconnect and restore-on-
	// connect (spec §4.10).
	Dimmed []motion.Dimmable

	mu               sync.Mutex
	client           paho.Client
	ready            bool
	consecutiveFails int
	retryTimer       *time.Timer
	savedBrightness  []uint8
	saved            bool
}

func (c *Client) Name() string { return "net.mqtt" }

func (c *Client) Start(_ context.Context) error {
	c.attemptStart()
	return nil
}

// Restart tears the client down and schedules a fresh connect attempt,
// used by the health monitor's MQTT recovery escalation (spec §4.11).
func (c *Client) Restart() {
	_ = c.Stop()
	c.mu.Lock()
	c.client = nil
	c.consecutiveFails = 0
	c.mu.Unlock()
	c.attemptStart()
}

func (c *Client) Stop() error {
	c.mu.Lock()
	if c.retryTimer != nil {
		c.retryTimer.Stop()
	}
	cl := c.client
	c.mu.Unlock()
	if cl != nil {
		cl.Disconnect(250)
	}
	return nil
}

// attemptStart implements spec §4.10 steps 1-7. Connection is asynchronous
// in paho; failures surface through onConnectionLost/the connect token and
// are retried via single-shot timers rather than blocking Start.
func (c *Client) attemptStart() {
	c.mu.Lock()
	if c.client != nil {
		c.mu.Unlock()
		if c.Log != nil {
			c.Log.Warnw("mqtt already running")
		}
		return
	}
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	c.mu.Unlock()

	opts, err := c.buildOpts()
	if err != nil {
		if c.Log != nil {
			c.Log.Warnw("mqtt build opts failed", "err", err)
		}
		c.scheduleRetry()
		return
	}

	cl := paho.NewClient(opts)
	token := cl.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		if c.Log != nil {
			c.Log.Warnw("mqtt connect failed", "err", token.Error())
		}
		if c.Health != nil {
			c.Health.SetMQTTReady(false)
		}
		c.scheduleRetry()
		return
	}

	c.mu.Lock()
	c.client = cl
	c.mu.Unlock()
}

func (c *Client) buildOpts() (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(c.Cfg.BrokerURI)
	opts.SetClientID(c.NodeID)
	if c.Cfg.Username != "" {
		opts.SetUsername(c.Cfg.Username)
		opts.SetPassword(c.Cfg.Password)
	}
	if tlsCfg, err := c.tlsConfig(); err != nil {
		return nil, err
	} else if tlsCfg != nil {
		opts.SetTLSConfig(tlsCfg)
	}
	opts.SetAutoReconnect(false) // this package owns the retry/restart policy
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetDefaultPublishHandler(c.onUnroutedMessage)
	return opts, nil
}

func (c *Client) tlsConfig() (*tls.Config, error) {
	if c.Cfg.CACertFile == "" && c.Cfg.ClientCertFile == "" {
		return nil, nil
	}
	cfg := &tls.Config{InsecureSkipVerify: c.Cfg.SkipCNVerify}
	if c.Cfg.CACertFile != "" {
		pem, err := os.ReadFile(c.Cfg.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("net/mqtt: read CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		pool.AppendCertsFromPEM(pem)
		cfg.RootCAs = pool
	}
	if c.Cfg.ClientCertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.Cfg.ClientCertFile, c.Cfg.ClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("net/mqtt: load client cert: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	if c.Cfg.ExpectedCN != "" {
		expected := c.Cfg.ExpectedCN
		cfg.VerifyPeerCertificate = func(raw [][]byte, _ [][]*x509.Certificate) error {
			for _, der := range raw {
				leaf, err := x509.ParseCertificate(der)
				if err == nil && leaf.Subject.CommonName == expected {
					return nil
				}
			}
			return fmt.Errorf("net/mqtt: peer CN did not match %q", expected)
		}
	}
	return cfg, nil
}

func (c *Client) scheduleRetry() {
	c.mu.Lock()
	c.consecutiveFails++
	fails := c.consecutiveFails
	c.mu.Unlock()

	if fails >= consecutiveFailLimit {
		// "schedule a full client restart on the next retry tick rather
		// than a reinitialization" (spec §4.10).
		c.mu.Lock()
		c.retryTimer = time.AfterFunc(retryDelay, func() {
			c.mu.Lock()
			c.client = nil
			c.consecutiveFails = 0
			c.mu.Unlock()
			c.attemptStart()
		})
		c.mu.Unlock()
		return
	}
	c.mu.Lock()
	c.retryTimer = time.AfterFunc(retryDelay, c.attemptStart)
	c.mu.Unlock()
}

func (c *Client) onConnect(cl paho.Client) {
	c.mu.Lock()
	c.ready = true
	c.consecutiveFails = 0
	c.mu.Unlock()

	if c.Health != nil {
		c.Health.SetMQTTReady(true)
	}
	c.restoreDimmed()
	c.subscribe(cl)
}

func (c *Client) onConnectionLost(_ paho.Client, err error) {
	c.mu.Lock()
	c.ready = false
	c.mu.Unlock()

	if c.Health != nil {
		c.Health.SetMQTTReady(false)
	}
	if c.Log != nil {
		c.Log.Warnw("mqtt connection lost", "err", err)
	}
	c.dimAll()
}

func (c *Client) subscribe(cl paho.Client) {
	selfTopic := "ul/" + c.NodeID + "/cmd/#"
	wildTopic := "ul/+/cmd/#"
	cl.Subscribe(selfTopic, 1, c.onMessage)
	cl.Subscribe(wildTopic, 0, c.onMessage)
}

func (c *Client) onMessage(_ paho.Client, msg paho.Message) {
	if c.Router == nil {
		return
	}
	if err := c.Router.Handle(msg.Topic(), msg.Payload()); err != nil && c.Log != nil {
		c.Log.Warnw("command dispatch failed", "topic", msg.Topic(), "err", err)
	}
}

func (c *Client) onUnroutedMessage(cl paho.Client, msg paho.Message) { c.onMessage(cl, msg) }

// dimAll remembers every dimmable slot's current brightness and sets it
// to zero, per spec §4.10's "dim all lights to zero while remembering
// their brightness so reconnect can restore them."
func (c *Client) dimAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saved {
		return
	}
	c.savedBrightness = make([]uint8, len(c.Dimmed))
	for i, d := range c.Dimmed {
		c.savedBrightness[i] = d.Brightness()
		d.SetBrightness(0)
	}
	c.saved = true
}

func (c *Client) restoreDimmed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.saved {
		return
	}
	for i, d := range c.Dimmed {
		if i < len(c.savedBrightness) {
			d.SetBrightness(c.savedBrightness[i])
		}
	}
	c.saved = false
	c.savedBrightness = nil
}

// Ready reports whether the client currently holds a live connection.
func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Publish implements command.Publisher.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	c.mu.Lock()
	cl := c.client
	ready := c.ready
	c.mu.Unlock()
	if cl == nil || !ready {
		return fmt.Errorf("net/mqtt: not connected")
	}
	token := cl.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

// PublishOTAEvent implements ota.Publisher.
func (c *Client) PublishOTAEvent(ev ota.Event) error {
	body := fmt.Sprintf(`{"status":%q,"detail":%q}`, ev.Status, ev.Detail)
	return c.Publish("ul/"+c.NodeID+"/evt/ota", 1, false, []byte(body))
}

// WaitPublishAck fences on a publish's broker ack, used by OTA success
// before rebooting (spec §4.10's 2 s publish-ack fence).
func (c *Client) WaitPublishAck(topic string, payload []byte) bool {
	c.mu.Lock()
	cl := c.client
	c.mu.Unlock()
	if cl == nil {
		return false
	}
	token := cl.Publish(topic, 1, false, payload)
	return token.WaitTimeout(ackFenceTimeout)
}
