// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sntp implements the time-sync supervisor (spec §4.9): a bounded
// initial poll, a periodic resync task gated on connectivity, and a
// doubling retry path for resync-task launch failure.
package sntp

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Syncer performs one time-sync exchange. A real backend talks SNTP over
// UDP; the wire protocol is out of scope (spec §1) so only this interface
// is specified. SystemSyncer stands in for it in this process.
type Syncer interface {
	Sync(ctx context.Context) (time.Time, error)
}

// SystemSyncer reports the process's own wall clock, which in this
// simulated environment is already NTP-disciplined by the host OS.
type SystemSyncer struct{}

func (SystemSyncer) Sync(_ context.Context) (time.Time, error) { return time.Now(), nil }

// sanityEpoch is the "wallclock exceeds a sanity epoch" threshold spec
// §4.9 names (e.g. 2023).
var sanityEpoch = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	initialPollAttempts = 20
	initialPollInterval = time.Second

	retryInitial = 5 * time.Second
	retryMax     = 60 * time.Second
)

// Supervisor is the process-wide SNTP singleton.
type Supervisor struct {
	Syncer         Syncer
	WaitConnected  func(timeout time.Duration) bool
	ResyncInterval time.Duration
	Log            *zap.SugaredLogger
	// OnSync is called with every successful sync, feeding the health
	// monitor's last-time-sync tracking.
	OnSync func(time.Time)

	mu                        sync.Mutex
	everSynced                bool
	lastSync                  time.Time
	launchFailures            int
	firstFailure, lastFailure time.Time
	retryTimer                *time.Timer
	taskRunning               bool

	stop chan struct{}
	done chan struct{}
}

func (s *Supervisor) Name() string { return "net.sntp" }

func (s *Supervisor) Start(ctx context.Context) error {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	if !s.initialPoll(ctx) {
		s.recordLaunchFailure()
		s.armRetry(ctx)
		return nil
	}
	s.launchTask(ctx)
	return nil
}

func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if s.retryTimer != nil {
		s.retryTimer.Stop()
	}
	s.mu.Unlock()
	close(s.stop)
	s.mu.Lock()
	running := s.taskRunning
	s.mu.Unlock()
	if running {
		<-s.done
	}
	return nil
}

// initialPoll performs up to initialPollAttempts sync attempts, 1 s apart,
// until the synced time exceeds sanityEpoch (spec §4.9).
func (s *Supervisor) initialPoll(ctx context.Context) bool {
	for i := 0; i < initialPollAttempts; i++ {
		t, err := s.Syncer.Sync(ctx)
		if err == nil && t.After(sanityEpoch) {
			s.recordSync(t)
			return true
		}
		select {
		case <-time.After(initialPollInterval):
		case <-ctx.Done():
			return false
		}
	}
	return false
}

func (s *Supervisor) launchTask(ctx context.Context) {
	s.mu.Lock()
	s.taskRunning = true
	s.mu.Unlock()
	go func() {
		defer close(s.done)
		s.resyncLoop(ctx)
	}()
}

func (s *Supervisor) resyncLoop(ctx context.Context) {
	interval := s.ResyncInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if s.WaitConnected != nil && !s.WaitConnected(interval) {
				continue
			}
			if t, err := s.Syncer.Sync(ctx); err == nil {
				s.recordSync(t)
			} else if s.Log != nil {
				s.Log.Warnw("sntp resync failed", "err", err)
			}
		}
	}
}

func (s *Supervisor) recordSync(t time.Time) {
	s.mu.Lock()
	s.everSynced = true
	s.lastSync = t
	s.launchFailures = 0
	s.mu.Unlock()
	if s.OnSync != nil {
		s.OnSync(t)
	}
}

func (s *Supervisor) recordLaunchFailure() {
	s.mu.Lock()
	now := time.Now()
	if s.launchFailures == 0 {
		s.firstFailure = now
	}
	s.lastFailure = now
	s.launchFailures++
	s.mu.Unlock()
}

// armRetry schedules another attempt at launching the resync task,
// doubling the delay from 5 s to a 60 s cap on each consecutive failure
// (spec §4.9).
func (s *Supervisor) armRetry(ctx context.Context) {
	s.mu.Lock()
	delay := retryInitial << uint(s.launchFailures-1)
	if delay > retryMax || delay <= 0 {
		delay = retryMax
	}
	s.retryTimer = time.AfterFunc(time.Duration(delay), func() {
		if s.initialPoll(ctx) {
			s.launchTask(ctx)
			return
		}
		s.recordLaunchFailure()
		s.armRetry(ctx)
	})
	s.mu.Unlock()
}

// EverSynced and LastSync report time-sync state for the health monitor.
func (s *Supervisor) EverSynced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.everSynced
}

func (s *Supervisor) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}
