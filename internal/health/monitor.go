// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package health implements the periodic watchdog (spec §4.11): low-rate
// metrics logging, heap-pressure reboot, and offline-duration escalation
// to Wi-Fi/MQTT recovery or reboot.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	tickInterval = 60 * time.Second
	logInterval  = 15 * time.Minute

	lowHeapThreshold     = 20 * 1024
	lowHeapConsecutive   = 5
	wifiOfflineThreshold = 15 * time.Minute
	wifiRecoveryCooldown = 10 * time.Minute
	wifiRecoveryLimit    = 4
	wifiRebootOffline    = 6 * time.Hour

	mqttOfflineThreshold = 5 * time.Minute
	mqttRecoveryCooldown = 5 * time.Minute
	mqttRecoveryLimit    = 6
	mqttEscalateOffline  = 2 * time.Hour

	timeSyncReboot   = 7 * 24 * time.Hour
	timeSyncEscalate = 24 * time.Hour
)

// HeapStats is the subset of runtime memory stats the monitor samples.
// Real firmware reads this from its allocator; here it's a pluggable
// collaborator so tests can inject pressure scenarios.
type HeapStats interface {
	FreeHeap() uint64
	MinFreeHeap() uint64
}

// Recoverer issues the opaque recovery/reboot actions the monitor
// requests; the embedder wires these to the Wi-Fi/MQTT supervisors'
// Restart and to a process reboot (spec §4.11: "Recovery callbacks are
// opaque to the monitor").
type Recoverer interface {
	RecoverWifi()
	RecoverMQTT()
	Reboot(reason string)
}

// Monitor is the process-wide health singleton.
type Monitor struct {
	Heap      HeapStats
	Recover   Recoverer
	Log       *zap.SugaredLogger
	Clock     func() time.Time // overridable for tests; defaults to time.Now

	WifiConnected func() bool
	MQTTReady     func() bool
	EverSynced    func() bool
	LastSync      func() time.Time

	mu sync.Mutex

	lowHeapStreak int
	lastLogAt     time.Time

	wifiOfflineSince time.Time
	wifiRecoveries   int
	lastWifiRecovery time.Time
	mqttOfflineSince time.Time
	mqttRecoveries   int
	lastMQTTRecovery time.Time
	startedAt        time.Time

	stop chan struct{}
	done chan struct{}
}

func (m *Monitor) Name() string { return "health.monitor" }

func (m *Monitor) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

func (m *Monitor) Start(_ context.Context) error {
	m.startedAt = m.now()
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		m.loop()
	}()
	return nil
}

func (m *Monitor) Stop() error {
	close(m.stop)
	<-m.done
	return nil
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Monitor) tick() {
	now := m.now()
	m.trackConnectivity(now)
	m.maybeLog(now)

	if m.checkLowHeap() {
		m.Recover.Reboot("minimum-ever heap below threshold for 5 consecutive checks")
		return
	}
	if m.checkWifiEscalation(now) {
		return
	}
	if m.checkMQTTEscalation(now) {
		return
	}
	m.checkTimeSync(now)
}

func (m *Monitor) trackConnectivity(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WifiConnected != nil && !m.WifiConnected() {
		if m.wifiOfflineSince.IsZero() {
			m.wifiOfflineSince = now
		}
	} else {
		m.wifiOfflineSince = time.Time{}
	}

	if m.MQTTReady != nil && !m.MQTTReady() {
		if m.mqttOfflineSince.IsZero() {
			m.mqttOfflineSince = now
		}
	} else {
		m.mqttOfflineSince = time.Time{}
	}
}

func (m *Monitor) maybeLog(now time.Time) {
	m.mu.Lock()
	due := now.Sub(m.lastLogAt) >= logInterval
	if due {
		m.lastLogAt = now
	}
	m.mu.Unlock()
	if !due || m.Log == nil {
		return
	}
	m.Log.Infow("health",
		"uptime_s", int64(now.Sub(m.startedAt)/time.Second),
		"free_heap", m.Heap.FreeHeap(),
		"min_free_heap", m.Heap.MinFreeHeap(),
	)
}

func (m *Monitor) checkLowHeap() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Heap.MinFreeHeap() < lowHeapThreshold {
		m.lowHeapStreak++
	} else {
		m.lowHeapStreak = 0
	}
	return m.lowHeapStreak >= lowHeapConsecutive
}

func (m *Monitor) checkWifiEscalation(now time.Time) bool {
	m.mu.Lock()
	offlineSince := m.wifiOfflineSince
	m.mu.Unlock()
	if offlineSince.IsZero() || now.Sub(offlineSince) < wifiOfflineThreshold {
		return false
	}

	m.mu.Lock()
	recoveryDue := now.Sub(m.lastWifiRecovery) >= wifiRecoveryCooldown
	offlineDur := now.Sub(offlineSince)
	m.mu.Unlock()

	if m.wifiRecoveries >= wifiRecoveryLimit && offlineDur >= wifiRebootOffline {
		m.Recover.Reboot("wifi offline past recovery-exhaustion threshold")
		return true
	}
	if recoveryDue {
		m.mu.Lock()
		m.wifiRecoveries++
		m.lastWifiRecovery = now
		m.mu.Unlock()
		m.Recover.RecoverWifi()
	}
	return false
}

func (m *Monitor) checkMQTTEscalation(now time.Time) bool {
	m.mu.Lock()
	offlineSince := m.mqttOfflineSince
	m.mu.Unlock()
	if offlineSince.IsZero() || now.Sub(offlineSince) < mqttOfflineThreshold {
		return false
	}

	m.mu.Lock()
	recoveryDue := now.Sub(m.lastMQTTRecovery) >= mqttRecoveryCooldown
	offlineDur := now.Sub(offlineSince)
	m.mu.Unlock()

	if m.mqttRecoveries >= mqttRecoveryLimit && offlineDur >= mqttEscalateOffline {
		m.Recover.RecoverWifi()
		return false
	}
	if recoveryDue {
		m.mu.Lock()
		m.mqttRecoveries++
		m.lastMQTTRecovery = now
		m.mu.Unlock()
		m.Recover.RecoverMQTT()
	}
	return false
}

func (m *Monitor) checkTimeSync(now time.Time) {
	if m.EverSynced == nil || !m.EverSynced() {
		return
	}
	since := now.Sub(m.LastSync())
	if since >= timeSyncReboot {
		m.Recover.Reboot("no time sync for 7+ days")
		return
	}
	if since >= timeSyncEscalate {
		m.Recover.RecoverWifi()
	}
}
