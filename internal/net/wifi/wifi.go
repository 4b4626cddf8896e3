// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package wifi implements the Wi-Fi station connectivity supervisor (spec
// §4.8): a small state machine reacting to START/DISCONNECTED/GOT_IP
// events with exponential backoff reconnection, a wait-for-ip primitive,
// and a serialized restart().
package wifi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Driver is the station-mode collaborator. A real backend asynchronously
// calls back into the Supervisor's OnGotIP/OnDisconnected as the
// underlying radio's event loop reports them; Connect/Disconnect merely
// kick off or tear down the association attempt (spec §1 puts Wi-Fi
// driver particulars out of scope — only this interface is specified).
type Driver interface {
	Connect(ctx context.Context, ssid, psk string) error
	Disconnect() error
}

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
	restartTimeout = 10 * time.Second
)

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialBackoff
	b.MaxInterval = maxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0 // never give up (spec: reconnect forever, capped backoff)
	b.Reset()
	return b
}

// CredentialSource supplies the provisioned SSID/PSK; missing SSID blocks
// startup (spec §6).
type CredentialSource interface {
	SSID() (ssid, psk string, ok bool)
}

// Supervisor is the process-wide Wi-Fi singleton (spec §3).
type Supervisor struct {
	Driver Driver
	Creds  CredentialSource
	Log    *zap.SugaredLogger
	// Notify is called with the new connected bit on every transition.
	// Single subscriber, per spec §9's "keep registration single-shot per
	// event type" design note.
	Notify func(connected bool)

	mu             sync.Mutex
	connected      bool
	failed         bool
	backoff        *backoff.ExponentialBackOff
	reconnectTimer *time.Timer
	changed        chan struct{} // capacity 1, signaled on any transition

	restartSem chan struct{} // capacity 1, holds one token when unlocked
}

func (s *Supervisor) Name() string { return "net.wifi" }

func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.changed == nil {
		s.changed = make(chan struct{}, 1)
	}
	if s.restartSem == nil {
		s.restartSem = make(chan struct{}, 1)
		s.restartSem <- struct{}{}
	}
	s.backoff = newBackoff()
	s.mu.Unlock()

	ssid, psk, ok := s.Creds.SSID()
	if !ok {
		return fmt.Errorf("net/wifi: no SSID provisioned")
	}
	s.connect(ctx, ssid, psk)
	return nil
}

func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
	s.connected = false
	s.mu.Unlock()
	return s.Driver.Disconnect()
}

func (s *Supervisor) connect(ctx context.Context, ssid, psk string) {
	if err := s.Driver.Connect(ctx, ssid, psk); err != nil {
		if s.Log != nil {
			s.Log.Warnw("wifi connect failed", "err", err)
		}
		s.OnDisconnected()
	}
}

// OnGotIP is called by the driver when the station acquires an address
// (spec §4.8 GOT_IP: "log, reset backoff, set connected bit, notify
// subscribers(true)").
func (s *Supervisor) OnGotIP() {
	s.mu.Lock()
	s.backoff.Reset()
	s.connected = true
	s.failed = false
	s.mu.Unlock()
	if s.Log != nil {
		s.Log.Infow("wifi connected")
	}
	s.fireNotify(true)
	s.signal()
}

// OnDisconnected is called by the driver on association loss (spec §4.8
// DISCONNECTED: "clear connected bit, notify subscribers(false), set fail
// bit, stop reconnect timer, arm one-shot reconnect for backoff_ms, then
// double backoff with cap 30 s").
func (s *Supervisor) OnDisconnected() {
	s.mu.Lock()
	s.connected = false
	s.failed = true
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
	}
	delay := s.backoff.NextBackOff()
	s.reconnectTimer = time.AfterFunc(delay, s.onReconnectTimer)
	s.mu.Unlock()

	s.fireNotify(false)
	s.signal()
}

func (s *Supervisor) onReconnectTimer() {
	s.mu.Lock()
	s.failed = false
	s.mu.Unlock()

	ssid, psk, ok := s.Creds.SSID()
	if !ok {
		return
	}
	s.connect(context.Background(), ssid, psk)
}

func (s *Supervisor) fireNotify(connected bool) {
	if s.Notify != nil {
		s.Notify(connected)
	}
}

func (s *Supervisor) signal() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Connected reports the current connected bit.
func (s *Supervisor) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// WaitForIP blocks until either the connected bit is set (returns true) or
// timeout elapses (returns false); a fail-bit observation resets the fail
// bit and keeps waiting (spec §4.8).
func (s *Supervisor) WaitForIP(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		if s.connected {
			s.mu.Unlock()
			return true
		}
		if s.failed {
			s.failed = false
		}
		s.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		select {
		case <-s.changed:
		case <-time.After(remaining):
			return false
		}
	}
}

// Restart serializes start/stop via a 10 s acquisition timeout (spec §5:
// "Wi-Fi restart: mutex, 10 s acquisition timeout"). Callers observe
// connected=false during the gap.
func (s *Supervisor) Restart(ctx context.Context) error {
	select {
	case <-s.restartSem:
	case <-time.After(restartTimeout):
		return fmt.Errorf("net/wifi: restart: timed out acquiring restart lock")
	}
	defer func() { s.restartSem <- struct{}{} }()

	if err := s.Stop(); err != nil && s.Log != nil {
		s.Log.Warnw("wifi stop during restart failed", "err", err)
	}
	time.Sleep(50 * time.Millisecond)
	return s.Start(ctx)
}
