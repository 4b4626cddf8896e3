// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/evm100/ultranode/internal/hal/gpio"
	"github.com/evm100/ultranode/internal/slot"
	"github.com/evm100/ultranode/internal/task"
)

// Relay is the digital-output rendering engine for the relay class (spec §9
// Open Question, resolved in SPEC_FULL.md §C.2). It shares the single-tick
// shape of the White engine: one driver, one boolean channel per slot,
// written together so no channel's transition is visibly out of order with
// another's within the same frame.
type Relay struct {
	Slots  [4]*slot.Relay
	Driver gpio.Driver
	RateHz float64
	Log    *zap.SugaredLogger

	stop     chan struct{}
	done     chan struct{}
	frameIdx uint64
}

func (e *Relay) Name() string { return "engine.relay" }

func (e *Relay) Start(_ context.Context) error {
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	task.Go(task.CoreRendering, "engine.relay", e.logPanic, func() {
		defer close(e.done)
		e.loop()
	})
	return nil
}

func (e *Relay) Stop() error {
	close(e.stop)
	<-e.done
	if e.Driver != nil {
		_ = e.Driver.Halt()
	}
	return nil
}

func (e *Relay) logPanic(core task.Core, name string, r any) {
	if e.Log != nil {
		e.Log.Errorw("recovered panic", "core", core.String(), "task", name, "panic", r)
	}
}

func (e *Relay) loop() {
	period := periodFor(e.RateHz)
	next := time.Now()
	states := make([]bool, len(e.Slots))
	for {
		select {
		case <-e.stop:
			return
		default:
		}
		any := false
		for i, s := range e.Slots {
			if s == nil || !s.Enabled {
				states[i] = false
				continue
			}
			states[i] = s.RenderTick(e.frameIdx)
			any = true
		}
		if any && e.Driver != nil {
			if err := e.Driver.SetStates(states); err != nil && e.Log != nil {
				e.Log.Warnw("relay state write failed", "err", err)
			}
		}
		e.frameIdx++
		next = next.Add(period)
		sleepUntil(next, e.stop)
	}
}
