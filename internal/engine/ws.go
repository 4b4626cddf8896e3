// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package engine implements the three fixed-rate frame producers (spec
// §4.2-§4.4): addressable (WS), analog RGB, and white PWM, plus a fourth
// producer for the on/off relay class.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/evm100/ultranode/internal/hal/strip"
	"github.com/evm100/ultranode/internal/slot"
	"github.com/evm100/ultranode/internal/task"
)

// WS is the addressable-strip rendering engine (spec §4.2): one producer
// task evaluates every enabled strip's effect into a pixel buffer at a
// fixed frame rate; a separate refresher task, signaled by a binary
// semaphore released once per evaluation round, performs the blocking
// serial commit to the strip drivers. This decouples computation from the
// wire transfer exactly as spec §4.2 requires, and lets the two strips'
// commits run concurrently on their own transports.
type WS struct {
	Slots   [2]*slot.WS
	Drivers [2]strip.Driver
	RateHz  float64
	Log     *zap.SugaredLogger

	sem      chan struct{} // capacity 1: binary semaphore, producer gives, refresher takes
	stop     chan struct{}
	wg       sync.WaitGroup
	frameIdx uint64
}

func (e *WS) Name() string { return "engine.ws" }

func (e *WS) Start(_ context.Context) error {
	e.sem = make(chan struct{}, 1)
	e.stop = make(chan struct{})
	e.wg.Add(2)
	task.Go(task.CoreRendering, "engine.ws.producer", e.logPanic, func() {
		defer e.wg.Done()
		e.producerLoop()
	})
	task.Go(task.CoreRendering, "engine.ws.refresher", e.logPanic, func() {
		defer e.wg.Done()
		e.refresherLoop()
	})
	return nil
}

func (e *WS) Stop() error {
	close(e.stop)
	e.wg.Wait()
	for _, d := range e.Drivers {
		if d != nil {
			_ = d.Halt()
		}
	}
	return nil
}

func (e *WS) logPanic(core task.Core, name string, r any) {
	if e.Log != nil {
		e.Log.Errorw("recovered panic", "core", core.String(), "task", name, "panic", r)
	}
}

// producerLoop renders every enabled strip once per tick using an
// absolute-deadline sleep: spec §4.2: "Use absolute-deadline sleep
// (previous_wake + period) rather than relative sleep; period ticks clamp
// to ≥1. An effect's render MUST complete within one frame budget; no
// frame skipping is implemented."
func (e *WS) producerLoop() {
	period := periodFor(e.RateHz)
	next := time.Now()
	for {
		select {
		case <-e.stop:
			return
		default:
		}
		for _, s := range e.Slots {
			if s != nil && s.Enabled {
				s.RenderFrame(e.frameIdx)
			}
		}
		e.frameIdx++
		// Give the binary semaphore; a full channel means the refresher
		// hasn't yet consumed the previous round, which mirrors a
		// FreeRTOS binary semaphore give() that is a no-op when already
		// signaled — no frame skipping is implied, the refresher always
		// reads the latest committed buffers via LastFrame().
		select {
		case e.sem <- struct{}{}:
		default:
		}
		next = next.Add(period)
		sleepUntil(next, e.stop)
	}
}

// refresherLoop takes the binary semaphore and commits the most recent
// frame of each enabled strip to its driver, one goroutine per strip so
// both wire transfers overlap (spec §4.2: "decoupling computation from
// the blocking wire transfer so both strips can be updated in parallel on
// the transport").
func (e *WS) refresherLoop() {
	for {
		select {
		case <-e.stop:
			return
		case <-e.sem:
		}
		var wg sync.WaitGroup
		for i, s := range e.Slots {
			if s == nil || !s.Enabled || e.Drivers[i] == nil {
				continue
			}
			wg.Add(1)
			go func(i int, s *slot.WS) {
				defer wg.Done()
				if err := e.Drivers[i].Commit(s.LastFrame()); err != nil && e.Log != nil {
					e.Log.Warnw("strip commit failed", "slot", i, "err", err)
				}
			}(i, s)
		}
		wg.Wait()
	}
}

func periodFor(hz float64) time.Duration {
	if hz <= 0 {
		hz = 60
	}
	d := time.Duration(float64(time.Second) / hz)
	if d < time.Millisecond {
		d = time.Millisecond // period ticks clamp to >= 1, spec §4.2
	}
	return d
}

func sleepUntil(deadline time.Time, stop <-chan struct{}) {
	d := time.Until(deadline)
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-stop:
	}
}
