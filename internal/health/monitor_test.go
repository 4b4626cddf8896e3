// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package health

import (
	"sync"
	"testing"
	"time"
)

type fakeHeap struct {
	free, min uint64
}

func (f fakeHeap) FreeHeap() uint64    { return f.free }
func (f fakeHeap) MinFreeHeap() uint64 { return f.min }

type fakeRecoverer struct {
	mu                                sync.Mutex
	wifiCalls, mqttCalls, rebootCalls int
	lastRebootReason                  string
}

func (r *fakeRecoverer) RecoverWifi() { r.mu.Lock(); r.wifiCalls++; r.mu.Unlock() }
func (r *fakeRecoverer) RecoverMQTT() { r.mu.Lock(); r.mqttCalls++; r.mu.Unlock() }
func (r *fakeRecoverer) Reboot(reason string) {
	r.mu.Lock()
	r.rebootCalls++
	r.lastRebootReason = reason
	r.mu.Unlock()
}

func newTestMonitor(heap HeapStats, rec *fakeRecoverer) *Monitor {
	return &Monitor{
		Heap:          heap,
		Recover:       rec,
		WifiConnected: func() bool { return true },
		MQTTReady:     func() bool { return true },
		EverSynced:    func() bool { return false },
		LastSync:      func() time.Time { return time.Time{} },
	}
}

func TestCheckLowHeapRequiresConsecutiveBreaches(t *testing.T) {
	rec := &fakeRecoverer{}
	m := newTestMonitor(fakeHeap{min: lowHeapThreshold - 1}, rec)

	for i := 0; i < lowHeapConsecutive-1; i++ {
		if m.checkLowHeap() {
			t.Fatalf("checkLowHeap tripped early at iteration %d", i)
		}
	}
	if !m.checkLowHeap() {
		t.Fatal("expected checkLowHeap to trip on the Nth consecutive low reading")
	}
}

func TestCheckLowHeapResetsOnRecovery(t *testing.T) {
	rec := &fakeRecoverer{}
	m := newTestMonitor(fakeHeap{}, rec)
	m.Heap = fakeHeap{min: lowHeapThreshold - 1}
	m.checkLowHeap()
	m.checkLowHeap()

	m.Heap = fakeHeap{min: lowHeapThreshold + 1}
	m.checkLowHeap() // streak resets

	m.Heap = fakeHeap{min: lowHeapThreshold - 1}
	for i := 0; i < lowHeapConsecutive-1; i++ {
		if m.checkLowHeap() {
			t.Fatalf("streak should have reset after the healthy reading, tripped at %d", i)
		}
	}
}

func TestCheckWifiEscalationRecoversAfterOfflineThreshold(t *testing.T) {
	rec := &fakeRecoverer{}
	m := newTestMonitor(fakeHeap{}, rec)

	start := time.Now()
	m.mu.Lock()
	m.wifiOfflineSince = start
	m.mu.Unlock()

	if m.checkWifiEscalation(start.Add(wifiOfflineThreshold - time.Second)) {
		t.Fatal("must not escalate before the offline threshold elapses")
	}
	if rec.wifiCalls != 0 {
		t.Fatalf("expected no recovery calls yet, got %d", rec.wifiCalls)
	}

	m.checkWifiEscalation(start.Add(wifiOfflineThreshold + time.Second))
	if rec.wifiCalls != 1 {
		t.Fatalf("expected exactly one wifi recovery call, got %d", rec.wifiCalls)
	}
}

func TestCheckWifiEscalationRespectsCooldown(t *testing.T) {
	rec := &fakeRecoverer{}
	m := newTestMonitor(fakeHeap{}, rec)
	start := time.Now()
	m.mu.Lock()
	m.wifiOfflineSince = start
	m.mu.Unlock()

	now := start.Add(wifiOfflineThreshold + time.Second)
	m.checkWifiEscalation(now)
	if rec.wifiCalls != 1 {
		t.Fatalf("expected 1 recovery call, got %d", rec.wifiCalls)
	}

	// Still within cooldown: no second call.
	m.checkWifiEscalation(now.Add(time.Second))
	if rec.wifiCalls != 1 {
		t.Fatalf("expected recovery to be suppressed within cooldown, got %d calls", rec.wifiCalls)
	}
}

func TestCheckWifiEscalationRebootsAfterExhaustion(t *testing.T) {
	rec := &fakeRecoverer{}
	m := newTestMonitor(fakeHeap{}, rec)
	start := time.Now()
	m.mu.Lock()
	m.wifiOfflineSince = start
	m.wifiRecoveries = wifiRecoveryLimit
	m.mu.Unlock()

	rebooted := m.checkWifiEscalation(start.Add(wifiRebootOffline + time.Second))
	if !rebooted {
		t.Fatal("expected checkWifiEscalation to report a reboot was issued")
	}
	if rec.rebootCalls != 1 {
		t.Fatalf("expected exactly one reboot call, got %d", rec.rebootCalls)
	}
}

func TestCheckTimeSyncEscalatesAndReboots(t *testing.T) {
	rec := &fakeRecoverer{}
	m := newTestMonitor(fakeHeap{}, rec)
	m.EverSynced = func() bool { return true }

	base := time.Now()
	m.LastSync = func() time.Time { return base }

	m.checkTimeSync(base.Add(timeSyncEscalate + time.Second))
	if rec.wifiCalls != 1 {
		t.Fatalf("expected a wifi recovery call past the escalate threshold, got %d", rec.wifiCalls)
	}

	m.checkTimeSync(base.Add(timeSyncReboot + time.Second))
	if rec.rebootCalls != 1 {
		t.Fatalf("expected a reboot past the reboot threshold, got %d", rec.rebootCalls)
	}
}

func TestCheckTimeSyncSkippedBeforeFirstSync(t *testing.T) {
	rec := &fakeRecoverer{}
	m := newTestMonitor(fakeHeap{}, rec)
	m.EverSynced = func() bool { return false }
	m.checkTimeSync(time.Now().Add(timeSyncReboot * 2))
	if rec.wifiCalls != 0 || rec.rebootCalls != 0 {
		t.Fatal("a node that has never synced must not trigger time-sync escalation")
	}
}
