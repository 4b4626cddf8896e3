// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/evm100/ultranode/internal/hal/physic"
	"github.com/evm100/ultranode/internal/hal/pwm"
	"github.com/evm100/ultranode/internal/slot"
	"github.com/evm100/ultranode/internal/task"
)

// White is the white-PWM rendering engine (spec §4.4): one shared PWM
// driver, one channel per slot. A single tick computes
// duty = gamma(effect.render(frame_idx)) * brightness / 255 for every
// enabled channel and writes them together.
type White struct {
	Slots  [4]*slot.White
	Driver pwm.Driver
	RateHz float64
	Log    *zap.SugaredLogger

	stop     chan struct{}
	done     chan struct{}
	frameIdx uint64
}

func (e *White) Name() string { return "engine.white" }

func (e *White) Start(_ context.Context) error {
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	task.Go(task.CoreRendering, "engine.white", e.logPanic, func() {
		defer close(e.done)
		e.loop()
	})
	return nil
}

func (e *White) Stop() error {
	close(e.stop)
	<-e.done
	if e.Driver != nil {
		_ = e.Driver.Halt()
	}
	return nil
}

func (e *White) logPanic(core task.Core, name string, r any) {
	if e.Log != nil {
		e.Log.Errorw("recovered panic", "core", core.String(), "task", name, "panic", r)
	}
}

func (e *White) loop() {
	period := periodFor(e.RateHz)
	next := time.Now()
	duties := make([]physic.Duty, len(e.Slots))
	for {
		select {
		case <-e.stop:
			return
		default:
		}
		any := false
		for i, s := range e.Slots {
			if s == nil || !s.Enabled {
				duties[i] = 0
				continue
			}
			duties[i] = s.RenderTick(e.frameIdx)
			any = true
		}
		if any && e.Driver != nil {
			if err := e.Driver.SetDuties(duties); err != nil && e.Log != nil {
				e.Log.Warnw("white duty write failed", "err", err)
			}
		}
		e.frameIdx++
		next = next.Add(period)
		sleepUntil(next, e.stop)
	}
}
