// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/evm100/ultranode/internal/hal/pwm"
	"github.com/evm100/ultranode/internal/slot"
	"github.com/evm100/ultranode/internal/task"
)

// RGB is the analog-RGB rendering engine (spec §4.3): one PWM driver per
// strip, three channels each, written together within a single tick so no
// mid-color tearing is visible (spec's "best effort" ordering guarantee).
// Unlike the WS engine, PWM register writes are fast enough that no
// separate refresher/semaphore pair is needed — render and commit happen
// in the same tick.
type RGB struct {
	Slots   [4]*slot.RGB
	Drivers [4]pwm.Driver
	RateHz  float64
	Log     *zap.SugaredLogger

	stop     chan struct{}
	done     chan struct{}
	frameIdx uint64
}

func (e *RGB) Name() string { return "engine.rgb" }

func (e *RGB) Start(_ context.Context) error {
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	task.Go(task.CoreRendering, "engine.rgb", e.logPanic, func() {
		defer close(e.done)
		e.loop()
	})
	return nil
}

func (e *RGB) Stop() error {
	close(e.stop)
	<-e.done
	for _, d := range e.Drivers {
		if d != nil {
			_ = d.Halt()
		}
	}
	return nil
}

func (e *RGB) logPanic(core task.Core, name string, r any) {
	if e.Log != nil {
		e.Log.Errorw("recovered panic", "core", core.String(), "task", name, "panic", r)
	}
}

func (e *RGB) loop() {
	period := periodFor(e.RateHz)
	next := time.Now()
	for {
		select {
		case <-e.stop:
			return
		default:
		}
		for i, s := range e.Slots {
			if s == nil || !s.Enabled || e.Drivers[i] == nil {
				continue
			}
			duty := s.RenderTick(e.frameIdx)
			if err := e.Drivers[i].SetDuties(duty[:]); err != nil && e.Log != nil {
				e.Log.Warnw("rgb duty write failed", "slot", i, "err", err)
			}
		}
		e.frameIdx++
		next = next.Add(period)
		sleepUntil(next, e.stop)
	}
}
